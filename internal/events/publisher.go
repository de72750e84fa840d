// Package events publishes session lifecycle events to a message stream.
// Other dashboard instances and alerting consume them, an expired backend
// session in one replica concerns all of them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const (
	TopicSessionExpired = "quarry.dashboard.session_expired"
	TopicSessionRenewed = "quarry.dashboard.session_renewed"
	TopicServiceLogin   = "quarry.dashboard.service_login"
)

// SessionExpiredEvent is the payload published when the backend session could
// not be sustained.
type SessionExpiredEvent struct {
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SessionRenewedEvent is the payload published after a successful renewal.
type SessionRenewedEvent struct {
	SetID      string    `json:"set_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ServiceLoginEvent is the payload published after a bootstrap login.
type ServiceLoginEvent struct {
	SetID      string    `json:"set_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// WatermillPublisher implements models.LifecycleEventPublisher on top of a
// watermill publisher. The cmd wires a Redis stream publisher in, tests use
// the in-process gochannel pubsub.
type WatermillPublisher struct {
	publisher message.Publisher
	now       func() time.Time
}

func (p *WatermillPublisher) PublishSessionExpired(ctx context.Context, reason string) error {
	return p.publish(ctx, TopicSessionExpired, SessionExpiredEvent{
		Reason:     reason,
		OccurredAt: p.now().UTC(),
	})
}

func (p *WatermillPublisher) PublishSessionRenewed(ctx context.Context, setID string) error {
	return p.publish(ctx, TopicSessionRenewed, SessionRenewedEvent{
		SetID:      setID,
		OccurredAt: p.now().UTC(),
	})
}

func (p *WatermillPublisher) PublishServiceLogin(ctx context.Context, setID string) error {
	return p.publish(ctx, TopicServiceLogin, ServiceLoginEvent{
		SetID:      setID,
		OccurredAt: p.now().UTC(),
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling %s event failed: %w", topic, err)
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publishing %s event failed: %w", topic, err)
	}
	return nil
}

type WatermillPublisherOption func(*WatermillPublisher) error

func WithMessagePublisher(publisher message.Publisher) WatermillPublisherOption {
	return func(p *WatermillPublisher) error {
		p.publisher = publisher
		return nil
	}
}

func NewWatermillPublisher(options ...WatermillPublisherOption) (*WatermillPublisher, error) {
	publisher := WatermillPublisher{now: time.Now}
	for _, opt := range options {
		if err := opt(&publisher); err != nil {
			return nil, err
		}
	}
	if publisher.publisher == nil {
		return nil, fmt.Errorf("message publisher cannot be nil")
	}
	return &publisher, nil
}
