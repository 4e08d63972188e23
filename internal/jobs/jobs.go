package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Nooxeel/zetta-backend/internal/payouts"
	"github.com/Nooxeel/zetta-backend/pkg/outbox"
)

// Job names, also the administrative trigger identifiers.
const (
	JobCalculatePayouts = "calculate-payouts"
	JobProcessOutbox    = "process-outbox"
	JobCleanupOutbox    = "cleanup-outbox"
)

// Job is a named task that runs on its own cadence.
type Job interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

type payoutCalculator interface {
	CalculateAll(ctx context.Context) (payouts.CalculateResult, error)
}

type outboxProcessor interface {
	Process(ctx context.Context, publisher outbox.Publisher, batchSize int) (outbox.ProcessResult, error)
	CleanupPublished(ctx context.Context, olderThanDays int) (int64, error)
}

type payoutJob struct {
	calculator payoutCalculator
	interval   time.Duration
}

// NewPayoutJob schedules the settlement pass.
func NewPayoutJob(calculator payoutCalculator, interval time.Duration) (Job, error) {
	if calculator == nil {
		return nil, fmt.Errorf("payout calculator required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("payout job interval required")
	}
	return &payoutJob{calculator: calculator, interval: interval}, nil
}

func (j *payoutJob) Name() string            { return JobCalculatePayouts }
func (j *payoutJob) Interval() time.Duration { return j.interval }

func (j *payoutJob) Run(ctx context.Context) error {
	_, err := j.calculator.CalculateAll(ctx)
	return err
}

type outboxDrainJob struct {
	processor outboxProcessor
	publisher outbox.Publisher
	batchSize int
	interval  time.Duration
}

// NewOutboxDrainJob schedules outbox delivery through the configured sink.
func NewOutboxDrainJob(processor outboxProcessor, publisher outbox.Publisher, batchSize int, interval time.Duration) (Job, error) {
	if processor == nil {
		return nil, fmt.Errorf("outbox processor required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("outbox job interval required")
	}
	return &outboxDrainJob{
		processor: processor,
		publisher: publisher,
		batchSize: batchSize,
		interval:  interval,
	}, nil
}

func (j *outboxDrainJob) Name() string            { return JobProcessOutbox }
func (j *outboxDrainJob) Interval() time.Duration { return j.interval }

func (j *outboxDrainJob) Run(ctx context.Context) error {
	_, err := j.processor.Process(ctx, j.publisher, j.batchSize)
	return err
}

type outboxCleanupJob struct {
	processor outboxProcessor
	interval  time.Duration
}

// NewOutboxCleanupJob schedules the retention sweep of published events.
func NewOutboxCleanupJob(processor outboxProcessor, interval time.Duration) (Job, error) {
	if processor == nil {
		return nil, fmt.Errorf("outbox processor required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("cleanup job interval required")
	}
	return &outboxCleanupJob{processor: processor, interval: interval}, nil
}

func (j *outboxCleanupJob) Name() string            { return JobCleanupOutbox }
func (j *outboxCleanupJob) Interval() time.Duration { return j.interval }

func (j *outboxCleanupJob) Run(ctx context.Context) error {
	// Zero days selects the configured retention window.
	_, err := j.processor.CleanupPublished(ctx, 0)
	return err
}
