package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nooxeel/zetta-backend/pkg/config"
	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/enums"
	pkgerrors "github.com/Nooxeel/zetta-backend/pkg/errors"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/metrics"
	"github.com/Nooxeel/zetta-backend/pkg/pagination"
)

const (
	defaultFailThreshold   = 5
	defaultRetentionDays   = 30
	defaultDeliveryTimeout = 15 * time.Second
	defaultProcessBatch    = 100
)

// DomainEvent is the write-side input: a fact about an aggregate that must
// reach the outside world.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Data          interface{}
	Version       int
	OccurredAt    time.Time
}

// ProcessResult summarizes one drain pass.
type ProcessResult struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type repository interface {
	Insert(tx *gorm.DB, event *models.OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit, failThreshold int) ([]models.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, deliveryErr error) error
	ResetFailed(ctx context.Context, failThreshold int) (int64, error)
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountStats(ctx context.Context, failThreshold int) (Stats, error)
	List(ctx context.Context, filter enums.OutboxEventFilter, params pagination.Params, failThreshold int) ([]models.OutboxEvent, error)
}

type Service struct {
	repo            repository
	logg            *logger.Logger
	metrics         *metrics.OutboxMetrics
	failThreshold   int
	retentionDays   int
	deliveryTimeout time.Duration
}

type ServiceParams struct {
	Repository repository
	Logger     *logger.Logger
	Metrics    *metrics.OutboxMetrics
	Outbox     config.OutboxConfig
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	threshold := params.Outbox.FailThreshold
	if threshold <= 0 {
		threshold = defaultFailThreshold
	}
	retention := params.Outbox.RetentionDays
	if retention <= 0 {
		retention = defaultRetentionDays
	}
	timeout := params.Outbox.DeliveryTimeout
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	return &Service{
		repo:            params.Repository,
		logg:            params.Logger,
		metrics:         params.Metrics,
		failThreshold:   threshold,
		retentionDays:   retention,
		deliveryTimeout: timeout,
	}, nil
}

// Emit appends an event inside the caller's transaction so the event commits
// or rolls back together with the mutation it describes. This is the only
// write path into the outbox.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !event.EventType.IsValid() {
		return errors.New("event type is required")
	}
	if !event.AggregateType.IsValid() {
		return errors.New("aggregate type is required")
	}
	if event.AggregateID == uuid.Nil {
		return errors.New("aggregate id is required")
	}

	payload, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if event.Version <= 0 {
		event.Version = 1
	}
	envelope := PayloadEnvelope{
		Version:    event.Version,
		EventID:    uuid.NewString(),
		OccurredAt: event.OccurredAt,
		Data:       payload,
	}
	payloadJSON, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := models.OutboxEvent{
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       json.RawMessage(payloadJSON),
	}
	if err := s.repo.Insert(tx, &row); err != nil {
		return err
	}

	fields := map[string]any{
		"event_id":       envelope.EventID,
		"event_type":     event.EventType,
		"aggregate_id":   event.AggregateID.String(),
		"aggregate_type": event.AggregateType,
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event queued")
	return nil
}

// Process runs one drain pass: it selects the oldest undelivered events up
// to batchSize and attempts delivery through the publisher. Events for the
// same aggregate are delivered in creation order; once a delivery fails, the
// aggregate's remaining events in this batch are skipped so a later event
// can never overtake a failed earlier one.
func (s *Service) Process(ctx context.Context, publisher Publisher, batchSize int) (ProcessResult, error) {
	if publisher == nil {
		return ProcessResult{}, errors.New("publisher is required")
	}
	if batchSize <= 0 {
		batchSize = defaultProcessBatch
	}

	events, err := s.repo.FetchUnpublished(ctx, batchSize, s.failThreshold)
	if err != nil {
		return ProcessResult{}, err
	}

	var result ProcessResult
	blocked := make(map[string]struct{})

	for _, event := range events {
		key := aggregateKey(event)
		if _, skip := blocked[key]; skip {
			continue
		}

		result.Processed++
		fields := s.eventFields(event, publisher.Name())

		deliveryErr := s.deliver(ctx, publisher, event)
		if deliveryErr != nil {
			result.Failed++
			blocked[key] = struct{}{}
			s.metrics.IncFailed(publisher.Name(), string(event.EventType))

			logCtx := s.logg.WithFields(ctx, fields)
			logCtx = s.logg.WithField(logCtx, "attempt_count", event.AttemptCount+1)
			s.logg.Warn(s.logg.WithField(logCtx, "error", deliveryErr.Error()), "outbox delivery failed")

			if markErr := s.repo.MarkFailed(ctx, event.ID, deliveryErr); markErr != nil {
				return result, markErr
			}
			continue
		}

		stamped, markErr := s.repo.MarkPublished(ctx, event.ID)
		if markErr != nil {
			return result, markErr
		}
		if !stamped {
			// A concurrent drain already published this row.
			s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox event already published")
			continue
		}
		result.Succeeded++
		s.metrics.IncPublished(publisher.Name(), string(event.EventType))
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
	}

	return result, nil
}

func (s *Service) deliver(ctx context.Context, publisher Publisher, event models.OutboxEvent) error {
	deliveryCtx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
	defer cancel()

	start := time.Now()
	err := publisher.Deliver(deliveryCtx, event)
	s.metrics.ObservePublish(publisher.Name(), time.Since(start))
	return err
}

// GetStats returns event counts by delivery state.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	return s.repo.CountStats(ctx, s.failThreshold)
}

// RetryFailed re-admits events parked at the failure threshold and returns
// how many were reset.
func (s *Service) RetryFailed(ctx context.Context) (int64, error) {
	count, err := s.repo.ResetFailed(ctx, s.failThreshold)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logg.Info(s.logg.WithField(ctx, "reset", count), "failed outbox events re-admitted")
	}
	return count, nil
}

// CleanupPublished deletes already-published events older than the given
// number of days; zero falls back to the configured retention window.
func (s *Service) CleanupPublished(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "olderThanDays must not be negative")
	}
	if olderThanDays == 0 {
		olderThanDays = s.retentionDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	deleted, err := s.repo.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"deleted": deleted,
			"cutoff":  cutoff.Format(time.RFC3339),
		}), "published outbox events swept")
	}
	return deleted, nil
}

// ListEvents returns event metadata filtered by delivery state.
func (s *Service) ListEvents(ctx context.Context, filter enums.OutboxEventFilter, params pagination.Params) ([]models.OutboxEvent, error) {
	return s.repo.List(ctx, filter, params, s.failThreshold)
}

func (s *Service) eventFields(event models.OutboxEvent, sink string) map[string]any {
	return map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"sink":           sink,
	}
}

func aggregateKey(event models.OutboxEvent) string {
	return string(event.AggregateType) + ":" + event.AggregateID.String()
}
