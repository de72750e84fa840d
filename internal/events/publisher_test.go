package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/quarry-platform/quarry-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Check that the publisher satisfies the lifecycle publisher interface. This
// test would fail to compile otherwise.
func TestPublisherSatisfiesLifecycleInterface(t *testing.T) {
	var _ models.LifecycleEventPublisher = &WatermillPublisher{}
}

func TestNewWatermillPublisherValidation(t *testing.T) {
	_, err := NewWatermillPublisher()
	assert.Error(t, err)
}

func subscribe(t *testing.T, topic string) (*WatermillPublisher, <-chan *message.Message) {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	t.Cleanup(func() { _ = pubSub.Close() })
	messages, err := pubSub.Subscribe(context.Background(), topic)
	require.NoError(t, err)
	publisher, err := NewWatermillPublisher(WithMessagePublisher(pubSub))
	require.NoError(t, err)
	return publisher, messages
}

func receive(t *testing.T, messages <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-messages:
		msg.Ack()
		return msg
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return nil
	}
}

func TestPublishSessionExpired(t *testing.T) {
	publisher, messages := subscribe(t, TopicSessionExpired)
	require.NoError(t, publisher.PublishSessionExpired(context.Background(), "renewal credential rejected"))

	msg := receive(t, messages)
	_, err := uuid.Parse(msg.UUID)
	assert.NoError(t, err)

	var event SessionExpiredEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &event))
	assert.Equal(t, "renewal credential rejected", event.Reason)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestPublishSessionRenewed(t *testing.T) {
	publisher, messages := subscribe(t, TopicSessionRenewed)
	require.NoError(t, publisher.PublishSessionRenewed(context.Background(), "backend"))

	var event SessionRenewedEvent
	require.NoError(t, json.Unmarshal(receive(t, messages).Payload, &event))
	assert.Equal(t, "backend", event.SetID)
}

func TestPublishServiceLogin(t *testing.T) {
	publisher, messages := subscribe(t, TopicServiceLogin)
	require.NoError(t, publisher.PublishServiceLogin(context.Background(), "backend"))

	var event ServiceLoginEvent
	require.NoError(t, json.Unmarshal(receive(t, messages).Payload, &event))
	assert.Equal(t, "backend", event.SetID)
}
