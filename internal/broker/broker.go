// AngelaMos | 2026
// broker.go

package broker

import (
	"context"
	"time"
)

const (
	TypeProfileRegistered = "profile.registered"
	TypeEventCreated      = "event.created"
	TypeMembershipCreated = "membership.created"
)

// Message is the envelope for every domain event leaving the service.
// Type doubles as the routing key.
type Message struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func NewMessage(eventType string, occurredAt time.Time, data any) Message {
	return Message{
		Type:       eventType,
		OccurredAt: occurredAt.UTC(),
		Data:       data,
	}
}

// Publisher delivers domain events after the owning transaction commits.
// Delivery is at most once; callers log failures and move on.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

type Noop struct{}

func (Noop) Publish(context.Context, Message) error { return nil }

func (Noop) Close() error { return nil }
