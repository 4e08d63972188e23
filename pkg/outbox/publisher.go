package outbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nooxeel/zetta-backend/pkg/config"
	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
)

// Publisher delivers a single queued event to a downstream sink. A delivery
// either succeeds or returns an error; the publisher itself never retries,
// retry policy lives in the drain loop.
type Publisher interface {
	Name() string
	Deliver(ctx context.Context, event models.OutboxEvent) error
}

// LogPublisher writes events to the structured log. It is the sink for
// environments without a downstream consumer and never fails.
type LogPublisher struct {
	logg *logger.Logger
}

func NewLogPublisher(logg *logger.Logger) *LogPublisher {
	return &LogPublisher{logg: logg}
}

func (p *LogPublisher) Name() string { return "log" }

func (p *LogPublisher) Deliver(ctx context.Context, event models.OutboxEvent) error {
	if p.logg == nil {
		return nil
	}
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
	}
	p.logg.Info(p.logg.WithFields(ctx, fields), "outbox event delivered to log sink")
	return nil
}

// SinkDeps carries the constructor inputs for each sink variant.
type SinkDeps struct {
	Logger *logger.Logger
	HTTP   HTTPDoer
	PubSub EventsPublisherProvider
}

// NewPublisher selects the sink variant named by configuration.
func NewPublisher(cfg *config.Config, deps SinkDeps) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Outbox.Sink)) {
	case "", "log":
		return NewLogPublisher(deps.Logger), nil
	case "webhook":
		return NewWebhookPublisher(WebhookPublisherParams{
			URL:    cfg.Webhook.URL,
			Secret: cfg.Webhook.Secret,
			Client: deps.HTTP,
		})
	case "pubsub":
		return NewPubSubPublisher(PubSubPublisherParams{
			Provider: deps.PubSub,
			Topic:    cfg.PubSub.EventsTopic,
		})
	default:
		return nil, fmt.Errorf("unknown outbox sink %q", cfg.Outbox.Sink)
	}
}
