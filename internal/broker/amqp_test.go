// AngelaMos | 2026
// amqp_test.go

package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (m *MockChannel) Close() error {
	return m.Called().Error(0)
}

func TestAMQPPublisher_PublishesPersistentJSON(t *testing.T) {
	ch := new(MockChannel)
	p := NewAMQPPublisher(ch, "meetstack.events")

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := NewMessage(TypeProfileRegistered, at, map[string]string{"profile_id": "sub-1"})

	ch.On("Publish", "meetstack.events", TypeProfileRegistered, false, false,
		mock.MatchedBy(func(pub amqp.Publishing) bool {
			var decoded map[string]any
			if err := json.Unmarshal(pub.Body, &decoded); err != nil {
				return false
			}
			data, _ := decoded["data"].(map[string]any)
			return pub.DeliveryMode == amqp.Persistent &&
				pub.ContentType == "application/json" &&
				decoded["type"] == TypeProfileRegistered &&
				data["profile_id"] == "sub-1"
		}),
	).Return(nil).Once()

	require.NoError(t, p.Publish(context.Background(), msg))
	ch.AssertExpectations(t)
}

func TestAMQPPublisher_WrapsChannelError(t *testing.T) {
	ch := new(MockChannel)
	p := NewAMQPPublisher(ch, "x")

	ch.On("Publish", "x", TypeEventCreated, false, false, mock.Anything).
		Return(errors.New("channel closed")).Once()

	err := p.Publish(context.Background(), NewMessage(TypeEventCreated, time.Now(), nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish event.created")
}

func TestAMQPPublisher_CancelledContext(t *testing.T) {
	ch := new(MockChannel)
	p := NewAMQPPublisher(ch, "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Publish(ctx, NewMessage(TypeEventCreated, time.Now(), nil))
	assert.ErrorIs(t, err, context.Canceled)
	ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
