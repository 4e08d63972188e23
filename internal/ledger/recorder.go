package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/enums"
	pkgerrors "github.com/Nooxeel/zetta-backend/pkg/errors"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/money"
	"github.com/Nooxeel/zetta-backend/pkg/outbox"
	"github.com/Nooxeel/zetta-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type feeResolver interface {
	ResolveActive(ctx context.Context, asOf time.Time) (*models.FeeSchedule, error)
	FeeRateFor(tier enums.CreatorTier, schedule *models.FeeSchedule) int64
}

// RecordTransactionInput is one settled monetary event from the payments
// side. Gross is in minor units; the fee split is computed here from the
// creator's tier and the schedule active at OccurredAt, then frozen on
// the row.
type RecordTransactionInput struct {
	CreatorID   uuid.UUID         `json:"creator_id"`
	ProductType enums.ProductType `json:"product_type"`
	GrossAmount int64             `json:"gross_amount"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// Recorder is the ingestion write path for the ledger. It lives apart
// from Service so the balance surface stays read-only.
type Recorder interface {
	RecordTransaction(ctx context.Context, input RecordTransactionInput) (*models.Transaction, error)
}

type recorder struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	schedules feeResolver
	logg      *logger.Logger
}

// NewRecorder wires the transaction ingestion path.
func NewRecorder(repo Repository, tx txRunner, outboxSvc outboxPublisher, schedules feeResolver, logg *logger.Logger) (Recorder, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if schedules == nil {
		return nil, fmt.Errorf("schedule resolver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &recorder{repo: repo, tx: tx, outbox: outboxSvc, schedules: schedules, logg: logg}, nil
}

// RecordTransaction inserts the Transaction row and its outbox event in
// one database transaction.
func (r *recorder) RecordTransaction(ctx context.Context, input RecordTransactionInput) (*models.Transaction, error) {
	if input.CreatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id is required")
	}
	if !input.ProductType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product type %q", input.ProductType))
	}
	if input.GrossAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gross amount must be positive")
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	var transaction *models.Transaction
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := r.repo.WithTx(tx)

		creator, err := repo.GetCreator(ctx, input.CreatorID)
		if err != nil {
			return err
		}
		if creator == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("creator %s not found", input.CreatorID))
		}

		schedule, err := r.schedules.ResolveActive(ctx, occurredAt)
		if err != nil {
			return err
		}
		feeBps := r.schedules.FeeRateFor(creator.Tier, schedule)
		fee, payable := money.SplitByBps(input.GrossAmount, feeBps)

		transaction = &models.Transaction{
			CreatorID:            input.CreatorID,
			ProductType:          input.ProductType,
			GrossAmount:          input.GrossAmount,
			PlatformFeeAmount:    fee,
			CreatorPayableAmount: payable,
			FeeBps:               feeBps,
			Status:               enums.TransactionSucceeded,
			OccurredAt:           occurredAt,
		}
		if err := repo.InsertTransaction(ctx, transaction); err != nil {
			return err
		}

		return r.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransactionRecorded,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   transaction.ID,
			Data: payloads.TransactionRecordedEvent{
				TransactionID:     transaction.ID,
				CreatorID:         transaction.CreatorID,
				ProductType:       transaction.ProductType,
				GrossAmount:       transaction.GrossAmount,
				PlatformFeeAmount: transaction.PlatformFeeAmount,
				FeeBps:            transaction.FeeBps,
				OccurredAt:        transaction.OccurredAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	r.logg.Info(r.logg.WithFields(r.logg.WithCreatorID(ctx, input.CreatorID.String()), map[string]any{
		"transaction_id": transaction.ID.String(),
		"gross_amount":   transaction.GrossAmount,
		"fee_bps":        transaction.FeeBps,
	}), "transaction recorded")
	return transaction, nil
}
