package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/enums"
	"github.com/Nooxeel/zetta-backend/pkg/pagination"
)

const maxLastErrorLen = 1024

// Stats aggregates event counts by delivery state.
type Stats struct {
	Pending   int64 `json:"pending"`
	Published int64 `json:"published"`
	Failed    int64 `json:"failed"`
	Total     int64 `json:"total"`
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends an event inside the caller's transaction. The row must
// commit or roll back together with the business mutation it describes.
func (r *Repository) Insert(tx *gorm.DB, event *models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(event).Error
}

// FetchUnpublished returns the oldest undelivered events whose attempt count
// is still below the failure threshold, in creation order.
func (r *Repository) FetchUnpublished(ctx context.Context, limit, failThreshold int) ([]models.OutboxEvent, error) {
	var rows []models.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Where("attempt_count < ?", failThreshold).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// MarkPublished stamps publishedAt on an undelivered event. The update is
// conditional on published_at still being null so a concurrent drain cannot
// record a second publication; it returns false when the row was already
// published or does not exist.
func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ? AND published_at IS NULL", id).
		Updates(map[string]any{
			"published_at": time.Now().UTC(),
			"last_error":   nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkFailed increments the attempt counter and records the delivery error.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, deliveryErr error) error {
	msg := truncateError(deliveryErr)
	return r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ? AND published_at IS NULL", id).
		Updates(map[string]any{
			"last_error":    msg,
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// ResetFailed re-admits events parked at or above the failure threshold by
// zeroing their attempt counters. Published events are untouched.
func (r *Repository) ResetFailed(ctx context.Context, failThreshold int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("published_at IS NULL").
		Where("attempt_count >= ?", failThreshold).
		Updates(map[string]any{
			"attempt_count": 0,
			"last_error":    nil,
		})
	return res.RowsAffected, res.Error
}

// DeletePublishedBefore sweeps already-published rows older than the cutoff.
// Unpublished rows are never deleted.
func (r *Repository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("published_at IS NOT NULL").
		Where("published_at < ?", cutoff).
		Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}

// CountStats returns event counts grouped into pending, published, and
// failed buckets relative to the failure threshold.
func (r *Repository) CountStats(ctx context.Context, failThreshold int) (Stats, error) {
	var stats Stats
	base := r.db.WithContext(ctx).Model(&models.OutboxEvent{})

	if err := base.Session(&gorm.Session{}).
		Where("published_at IS NULL").
		Where("attempt_count < ?", failThreshold).
		Count(&stats.Pending).Error; err != nil {
		return Stats{}, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("published_at IS NOT NULL").
		Count(&stats.Published).Error; err != nil {
		return Stats{}, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("published_at IS NULL").
		Where("attempt_count >= ?", failThreshold).
		Count(&stats.Failed).Error; err != nil {
		return Stats{}, err
	}
	stats.Total = stats.Pending + stats.Published + stats.Failed
	return stats, nil
}

// List returns event metadata filtered by delivery state, newest first.
// Payload bodies are omitted from listings.
func (r *Repository) List(ctx context.Context, filter enums.OutboxEventFilter, params pagination.Params, failThreshold int) ([]models.OutboxEvent, error) {
	params = pagination.Normalize(params)
	query := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Select("id", "event_type", "aggregate_type", "aggregate_id", "created_at", "published_at", "attempt_count", "last_error")

	switch filter {
	case enums.OutboxFilterPending:
		query = query.Where("published_at IS NULL").Where("attempt_count < ?", failThreshold)
	case enums.OutboxFilterPublished:
		query = query.Where("published_at IS NOT NULL")
	case enums.OutboxFilterFailed:
		query = query.Where("published_at IS NULL").Where("attempt_count >= ?", failThreshold)
	case enums.OutboxFilterAll:
	default:
		return nil, errors.New("unknown event filter")
	}

	var rows []models.OutboxEvent
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&rows).Error
	return rows, err
}

func truncateError(err error) *string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if len(msg) > maxLastErrorLen {
		msg = msg[:maxLastErrorLen]
	}
	return &msg
}
