package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/pubsub"

	"pego/infrastructure/logger"
)

// Event is the envelope published for engagement and lifecycle changes
// (video.published, round.ended, payment.confirmed).
type Event struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entity_id"`
	UserID     string    `json:"user_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type IEventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventPublisher sends events to a Pub/Sub topic. A nil client disables
// publishing without failing the calling operation.
type EventPublisher struct {
	client *pubsub.Client
	topic  string
}

func NewEventPublisher(client *pubsub.Client, topic string) IEventPublisher {
	return &EventPublisher{client: client, topic: topic}
}

func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	return pubsub.NewClient(ctx, projectID)
}

func (p *EventPublisher) Publish(ctx context.Context, event Event) error {
	if p.client == nil {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	topic := p.client.Topic(p.topic)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		if _, err = p.client.CreateTopic(ctx, p.topic); err != nil {
			return err
		}
		topic = p.client.Topic(p.topic)
	}

	serverID, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("serverId", serverID).WithField("type", event.Type).Debug("event published")
	return nil
}
