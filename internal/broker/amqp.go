// AngelaMos | 2026
// amqp.go

package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  Channel
	exchange string
}

// Dial connects to the broker, retrying while it starts, and declares a
// durable topic exchange.
func Dial(url, exchange string, retries int, delay time.Duration) (*AMQPPublisher, error) {
	var (
		conn *amqp.Connection
		err  error
	)

	for attempt := 0; attempt < max(retries, 1); attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		time.Sleep(delay)
	}
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close() //nolint:errcheck // cleanup on setup failure
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close() //nolint:errcheck // cleanup on setup failure
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	p := NewAMQPPublisher(ch, exchange)
	p.conn = conn
	return p, nil
}

func NewAMQPPublisher(ch Channel, exchange string) *AMQPPublisher {
	return &AMQPPublisher{channel: ch, exchange: exchange}
}

func (p *AMQPPublisher) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.Publish(p.exchange, msg.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    msg.OccurredAt,
		Type:         msg.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.Type, err)
	}

	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Close(); err != nil {
		return fmt.Errorf("close channel: %w", err)
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
