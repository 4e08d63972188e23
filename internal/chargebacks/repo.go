package chargebacks

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/enums"
)

// Stats aggregates chargeback counts and totals by absorption state.
type Stats struct {
	PendingCount  int64 `json:"pending_count"`
	PendingTotal  int64 `json:"pending_total"`
	AbsorbedCount int64 `json:"absorbed_count"`
	AbsorbedTotal int64 `json:"absorbed_total"`
}

// Repository manages persistence for chargebacks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetTransaction(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error)
	MarkTransactionChargeback(ctx context.Context, transactionID uuid.UUID) (bool, error)
	Insert(ctx context.Context, chargeback *models.Chargeback) error
	ListPending(ctx context.Context) ([]models.Chargeback, error)
	Aggregate(ctx context.Context) (Stats, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a chargeback repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetTransaction(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).
		Where("id = ?", transactionID).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transaction, nil
}

// MarkTransactionChargeback flips the transaction to CHARGEBACK. The update
// is conditional on the current status so a concurrent recording cannot
// double-book; it returns false when the row was not in a reversible state.
func (r *repository) MarkTransactionChargeback(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", transactionID).
		Where("status IN ?", []enums.TransactionStatus{enums.TransactionSucceeded, enums.TransactionRefunded}).
		Update("status", enums.TransactionChargeback)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Insert(ctx context.Context, chargeback *models.Chargeback) error {
	return r.db.WithContext(ctx).Create(chargeback).Error
}

func (r *repository) ListPending(ctx context.Context) ([]models.Chargeback, error) {
	var rows []models.Chargeback
	err := r.db.WithContext(ctx).
		Where("absorbed_in_payout_id IS NULL").
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Aggregate(ctx context.Context) (Stats, error) {
	type bucket struct {
		Count int64
		Total int64
	}
	var stats Stats

	var pending bucket
	err := r.db.WithContext(ctx).Model(&models.Chargeback{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("absorbed_in_payout_id IS NULL").
		Scan(&pending).Error
	if err != nil {
		return Stats{}, err
	}

	var absorbed bucket
	err = r.db.WithContext(ctx).Model(&models.Chargeback{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("absorbed_in_payout_id IS NOT NULL").
		Scan(&absorbed).Error
	if err != nil {
		return Stats{}, err
	}

	stats.PendingCount = pending.Count
	stats.PendingTotal = pending.Total
	stats.AbsorbedCount = absorbed.Count
	stats.AbsorbedTotal = absorbed.Total
	return stats, nil
}
