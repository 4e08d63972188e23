package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/Nooxeel/zetta-backend/pkg/db/models"
)

// EventsPublisherProvider yields the topic publisher handle for the
// settlement events topic.
type EventsPublisherProvider interface {
	EventsPublisher() *gcppubsub.Publisher
}

// PubSubPublisher forwards event payloads to a Pub/Sub topic. The payload
// envelope travels as the message body with routing metadata in attributes.
type PubSubPublisher struct {
	provider EventsPublisherProvider
	topic    string
}

type PubSubPublisherParams struct {
	Provider EventsPublisherProvider
	Topic    string
}

func NewPubSubPublisher(params PubSubPublisherParams) (*PubSubPublisher, error) {
	if params.Provider == nil {
		return nil, errors.New("pubsub provider is required")
	}
	if params.Topic == "" {
		return nil, errors.New("pubsub topic is required")
	}
	return &PubSubPublisher{provider: params.Provider, topic: params.Topic}, nil
}

func (p *PubSubPublisher) Name() string { return "pubsub" }

func (p *PubSubPublisher) Deliver(ctx context.Context, event models.OutboxEvent) error {
	pub := p.provider.EventsPublisher()
	if pub == nil {
		return fmt.Errorf("publisher not configured for topic %s", p.topic)
	}

	msg := &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       event.ID.String(),
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	}

	result := pub.Publish(ctx, msg)
	if result == nil {
		return fmt.Errorf("publish to topic %s returned no result", p.topic)
	}
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish to topic %s: %w", p.topic, err)
	}
	return nil
}
