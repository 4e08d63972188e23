package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/enums"
)

// Repository is the query surface over the settlement tables plus the
// single write path used by transaction ingestion.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UnclaimedPayable(ctx context.Context, creatorID uuid.UUID, holdCutoff time.Time) (matured, held int64, err error)
	SumSentPayouts(ctx context.Context, creatorID uuid.UUID) (int64, error)
	SumPendingChargebacks(ctx context.Context, creatorID uuid.UUID) (int64, error)
	GetCreator(ctx context.Context, creatorID uuid.UUID) (*models.Creator, error)
	InsertTransaction(ctx context.Context, transaction *models.Transaction) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// UnclaimedPayable sums creator_payable_amount over SUCCEEDED transactions
// with no payout item, split on whether occurred_at has cleared the hold
// cutoff. Empty result sets are zero.
func (r *repository) UnclaimedPayable(ctx context.Context, creatorID uuid.UUID, holdCutoff time.Time) (int64, int64, error) {
	type row struct {
		Matured int64
		Held    int64
	}
	var result row
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select(
			"COALESCE(SUM(CASE WHEN occurred_at <= ? THEN creator_payable_amount ELSE 0 END), 0) AS matured, "+
				"COALESCE(SUM(CASE WHEN occurred_at > ? THEN creator_payable_amount ELSE 0 END), 0) AS held",
			holdCutoff, holdCutoff,
		).
		Where("creator_id = ?", creatorID).
		Where("status = ?", enums.TransactionSucceeded).
		Where("NOT EXISTS (SELECT 1 FROM payout_items WHERE payout_items.transaction_id = transactions.id)").
		Scan(&result).Error
	if err != nil {
		return 0, 0, err
	}
	return result.Matured, result.Held, nil
}

func (r *repository) SumSentPayouts(ctx context.Context, creatorID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Payout{}).
		Select("COALESCE(SUM(payout_amount), 0)").
		Where("creator_id = ?", creatorID).
		Where("status = ?", enums.PayoutSent).
		Scan(&total).Error
	return total, err
}

func (r *repository) SumPendingChargebacks(ctx context.Context, creatorID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Chargeback{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("creator_id = ?", creatorID).
		Where("absorbed_in_payout_id IS NULL").
		Scan(&total).Error
	return total, err
}

func (r *repository) GetCreator(ctx context.Context, creatorID uuid.UUID) (*models.Creator, error) {
	var creator models.Creator
	err := r.db.WithContext(ctx).Where("id = ?", creatorID).First(&creator).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &creator, nil
}

func (r *repository) InsertTransaction(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}
