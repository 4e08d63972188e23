package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Nooxeel/zetta-backend/pkg/config"
	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/outbox"
)

type fakeDrainer struct {
	results []outbox.ProcessResult
	errs    []error
	calls   int
	onCall  func(call int)
}

func (f *fakeDrainer) Process(_ context.Context, _ outbox.Publisher, _ int) (outbox.ProcessResult, error) {
	call := f.calls
	f.calls++
	if f.onCall != nil {
		f.onCall(call)
	}
	var result outbox.ProcessResult
	if call < len(f.results) {
		result = f.results[call]
	}
	var err error
	if call < len(f.errs) {
		err = f.errs[call]
	}
	return result, err
}

type fakeSink struct{}

func (fakeSink) Name() string { return "fake" }

func (fakeSink) Deliver(context.Context, models.OutboxEvent) error { return nil }

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type failPinger struct{ err error }

func (p failPinger) Ping(context.Context) error { return p.err }

func newTestService(t *testing.T, drain *fakeDrainer) *Service {
	t.Helper()
	cfg := &config.Config{}
	cfg.Outbox.BatchSize = 10
	cfg.Outbox.PollIntervalMS = 1
	svc, err := NewService(ServiceParams{
		Config:    cfg,
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:        okPinger{},
		Outbox:    drain,
		Publisher: fakeSink{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestDrainOnceReportsDrained(t *testing.T) {
	drain := &fakeDrainer{results: []outbox.ProcessResult{{Processed: 3, Succeeded: 3}}}
	svc := newTestService(t, drain)

	drained, err := svc.drainOnce(context.Background())
	if err != nil {
		t.Fatalf("drain once: %v", err)
	}
	if !drained {
		t.Fatalf("expected pass with deliveries to report drained")
	}
}

func TestDrainOnceIdleWhenNothingPending(t *testing.T) {
	drain := &fakeDrainer{results: []outbox.ProcessResult{{}}}
	svc := newTestService(t, drain)

	drained, err := svc.drainOnce(context.Background())
	if err != nil {
		t.Fatalf("drain once: %v", err)
	}
	if drained {
		t.Fatalf("expected empty pass to report idle")
	}
}

func TestDrainOnceIdleWhenSinkIsDown(t *testing.T) {
	drain := &fakeDrainer{results: []outbox.ProcessResult{{Processed: 5, Failed: 5}}}
	svc := newTestService(t, drain)

	drained, err := svc.drainOnce(context.Background())
	if err != nil {
		t.Fatalf("drain once: %v", err)
	}
	if drained {
		t.Fatalf("expected all-failed pass to report idle")
	}
}

func TestRunStopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	drain := &fakeDrainer{
		results: []outbox.ProcessResult{{Processed: 1, Succeeded: 1}},
		onCall: func(call int) {
			if call >= 2 {
				cancel()
			}
		},
	}
	svc := newTestService(t, drain)

	err := svc.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if drain.calls < 2 {
		t.Fatalf("expected at least two drain passes, got %d", drain.calls)
	}
}

func TestRunFailsReadinessWhenDatabaseIsDown(t *testing.T) {
	drain := &fakeDrainer{}
	svc := newTestService(t, drain)
	svc.db = failPinger{err: errors.New("connection refused")}

	if err := svc.Run(context.Background()); err == nil {
		t.Fatalf("expected readiness failure")
	}
	if drain.calls != 0 {
		t.Fatalf("expected no drain passes after failed readiness, got %d", drain.calls)
	}
}

func TestNextBackoffDoublesAndCaps(t *testing.T) {
	base := 100 * time.Millisecond
	got := nextBackoff(base, base, maxBackoff)
	if got != 200*time.Millisecond {
		t.Fatalf("unexpected backoff: %v", got)
	}
	got = nextBackoff(20*time.Second, base, maxBackoff)
	if got != maxBackoff {
		t.Fatalf("expected backoff capped at %v, got %v", maxBackoff, got)
	}
}
