package feeschedule

import (
	"context"
	"errors"
	"time"

	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages persistence for fee schedules and creator tiers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ActiveAt(ctx context.Context, asOf time.Time) (*models.FeeSchedule, error)
	Create(ctx context.Context, schedule *models.FeeSchedule) error
	GetCreator(ctx context.Context, creatorID uuid.UUID) (*models.Creator, error)
	UpdateCreatorTier(ctx context.Context, creatorID uuid.UUID, tier string, changedAt time.Time) error
	InsertTierChange(ctx context.Context, change *models.TierChange) error
	ListTierChanges(ctx context.Context, creatorID uuid.UUID) ([]models.TierChange, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a fee schedule repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ActiveAt returns the schedule in effect at asOf, or nil when none is
// configured. Overlapping schedules resolve by creation order alone so a
// backdated correction appended later still wins over the row it replaces.
func (r *repository) ActiveAt(ctx context.Context, asOf time.Time) (*models.FeeSchedule, error) {
	var schedule models.FeeSchedule
	err := r.db.WithContext(ctx).
		Where("effective_from <= ?", asOf).
		Where("effective_until IS NULL OR effective_until > ?", asOf).
		Order("created_at DESC").
		First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *repository) Create(ctx context.Context, schedule *models.FeeSchedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *repository) GetCreator(ctx context.Context, creatorID uuid.UUID) (*models.Creator, error) {
	var creator models.Creator
	err := r.db.WithContext(ctx).
		Where("id = ?", creatorID).
		First(&creator).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &creator, nil
}

func (r *repository) UpdateCreatorTier(ctx context.Context, creatorID uuid.UUID, tier string, changedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Creator{}).
		Where("id = ?", creatorID).
		Updates(map[string]any{
			"tier":            tier,
			"tier_changed_at": changedAt,
		}).Error
}

func (r *repository) InsertTierChange(ctx context.Context, change *models.TierChange) error {
	return r.db.WithContext(ctx).Create(change).Error
}

func (r *repository) ListTierChanges(ctx context.Context, creatorID uuid.UUID) ([]models.TierChange, error) {
	var changes []models.TierChange
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at ASC").
		Find(&changes).Error
	return changes, err
}
