package outbox

import (
	"testing"

	"github.com/Nooxeel/zetta-backend/pkg/config"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
)

func TestNewPublisherSelectsSink(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "sink-test"})

	cfg := &config.Config{}
	cfg.Outbox.Sink = "log"
	pub, err := NewPublisher(cfg, SinkDeps{Logger: logg})
	if err != nil {
		t.Fatalf("log sink: %v", err)
	}
	if pub.Name() != "log" {
		t.Fatalf("unexpected sink %q", pub.Name())
	}

	cfg = &config.Config{}
	cfg.Outbox.Sink = "webhook"
	cfg.Webhook.URL = "https://receiver.example.com/events"
	cfg.Webhook.Secret = "secret"
	pub, err = NewPublisher(cfg, SinkDeps{Logger: logg})
	if err != nil {
		t.Fatalf("webhook sink: %v", err)
	}
	if pub.Name() != "webhook" {
		t.Fatalf("unexpected sink %q", pub.Name())
	}

	cfg = &config.Config{}
	cfg.Outbox.Sink = "webhook"
	if _, err := NewPublisher(cfg, SinkDeps{Logger: logg}); err == nil {
		t.Fatalf("expected webhook sink to require url and secret")
	}

	cfg = &config.Config{}
	cfg.Outbox.Sink = "carrier-pigeon"
	if _, err := NewPublisher(cfg, SinkDeps{Logger: logg}); err == nil {
		t.Fatalf("expected error for unknown sink")
	}
}
