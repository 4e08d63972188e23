package payouts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/enums"
)

// Repository manages persistence for payouts and their claims.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EligibleCreatorIDs(ctx context.Context, holdCutoff time.Time) ([]uuid.UUID, error)
	LockUnclaimedMatured(ctx context.Context, creatorID uuid.UUID, holdCutoff time.Time) ([]models.Transaction, error)
	LockPendingChargebacks(ctx context.Context, creatorID uuid.UUID) ([]models.Chargeback, error)
	LastPayoutPeriodEnd(ctx context.Context, creatorID uuid.UUID) (*time.Time, error)
	CreatePayout(ctx context.Context, payout *models.Payout) error
	CreateItems(ctx context.Context, items []models.PayoutItem) error
	MarkChargebacksAbsorbed(ctx context.Context, chargebackIDs []uuid.UUID, payoutID uuid.UUID) error
	GetPayout(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error)
	ListPendingRetry(ctx context.Context, retryCap int) ([]models.Payout, error)
	MarkSent(ctx context.Context, payoutID uuid.UUID, sentAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, payoutID uuid.UUID, reason string, failedAt time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payout repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// EligibleCreatorIDs lists creators with at least one unclaimed SUCCEEDED
// transaction past the hold cutoff.
func (r *repository) EligibleCreatorIDs(ctx context.Context, holdCutoff time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Distinct("creator_id").
		Where("status = ?", enums.TransactionSucceeded).
		Where("occurred_at <= ?", holdCutoff).
		Where("NOT EXISTS (SELECT 1 FROM payout_items WHERE payout_items.transaction_id = transactions.id)").
		Pluck("creator_id", &ids).Error
	return ids, err
}

// LockUnclaimedMatured selects and row-locks the creator's claimable
// transactions. SKIP LOCKED makes a concurrent calculation pass see an
// empty set instead of blocking, which is what keeps double claiming
// impossible even before the unique index on payout_items fires.
func (r *repository) LockUnclaimedMatured(ctx context.Context, creatorID uuid.UUID, holdCutoff time.Time) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("creator_id = ?", creatorID).
		Where("status = ?", enums.TransactionSucceeded).
		Where("occurred_at <= ?", holdCutoff).
		Where("NOT EXISTS (SELECT 1 FROM payout_items WHERE payout_items.transaction_id = transactions.id)").
		Order("occurred_at ASC").
		Find(&rows).Error
	return rows, err
}

// LockPendingChargebacks row-locks the creator's unabsorbed chargebacks so
// two concurrent passes cannot net the same reversal twice.
func (r *repository) LockPendingChargebacks(ctx context.Context, creatorID uuid.UUID) ([]models.Chargeback, error) {
	var rows []models.Chargeback
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("creator_id = ?", creatorID).
		Where("absorbed_in_payout_id IS NULL").
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) LastPayoutPeriodEnd(ctx context.Context, creatorID uuid.UUID) (*time.Time, error) {
	var payout models.Payout
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("period_end DESC").
		First(&payout).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout.PeriodEnd, nil
}

func (r *repository) CreatePayout(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.PayoutItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) MarkChargebacksAbsorbed(ctx context.Context, chargebackIDs []uuid.UUID, payoutID uuid.UUID) error {
	if len(chargebackIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Chargeback{}).
		Where("id IN ?", chargebackIDs).
		Where("absorbed_in_payout_id IS NULL").
		Update("absorbed_in_payout_id", payoutID).Error
}

func (r *repository) GetPayout(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.WithContext(ctx).
		Where("id = ?", payoutID).
		First(&payout).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

func (r *repository) ListPendingRetry(ctx context.Context, retryCap int) ([]models.Payout, error) {
	var rows []models.Payout
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.PayoutFailed).
		Where("retry_count < ?", retryCap).
		Order("failed_at ASC").
		Find(&rows).Error
	return rows, err
}

// MarkSent flips a payout to SENT. Conditional on the row not already being
// sent so the external worker's report-back is idempotent.
func (r *repository) MarkSent(ctx context.Context, payoutID uuid.UUID, sentAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ?", payoutID).
		Where("status IN ?", []enums.PayoutStatus{enums.PayoutPending, enums.PayoutFailed}).
		Updates(map[string]any{
			"status":  enums.PayoutSent,
			"sent_at": sentAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkFailed flips a payout to FAILED and increments its retry counter.
func (r *repository) MarkFailed(ctx context.Context, payoutID uuid.UUID, reason string, failedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ?", payoutID).
		Where("status IN ?", []enums.PayoutStatus{enums.PayoutPending, enums.PayoutFailed}).
		Updates(map[string]any{
			"status":         enums.PayoutFailed,
			"failure_reason": reason,
			"failed_at":      failedAt,
			"retry_count":    gorm.Expr("retry_count + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
