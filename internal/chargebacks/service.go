package chargebacks

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/enums"
	pkgerrors "github.com/Nooxeel/zetta-backend/pkg/errors"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/outbox"
	"github.com/Nooxeel/zetta-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service records reversals and exposes the pending-chargeback read paths.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.Chargeback, error)
	Pending(ctx context.Context) ([]models.Chargeback, error)
	GetStats(ctx context.Context) (Stats, error)
}

// RecordInput captures a chargeback against a settled transaction. A zero
// Amount defaults to the transaction's full creator-payable amount.
type RecordInput struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	Reason        string    `json:"reason"`
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService wires a chargeback tracker with its collaborators.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("chargeback repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, logg: logg}, nil
}

// Record flips the transaction to CHARGEBACK, inserts the chargeback row,
// and queues the event, all in one transaction. A chargeback against an
// already-paid transaction does not claw back the disbursed payout; the
// amount is absorbed into the creator's next payout as a negative
// adjustment.
func (s *service) Record(ctx context.Context, input RecordInput) (*models.Chargeback, error) {
	if input.TransactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	if input.Amount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}

	var chargeback *models.Chargeback
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		transaction, err := repo.GetTransaction(ctx, input.TransactionID)
		if err != nil {
			return err
		}
		if transaction == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("transaction %s not found", input.TransactionID))
		}
		if transaction.Status == enums.TransactionChargeback {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("transaction %s already charged back", input.TransactionID))
		}

		amount := input.Amount
		if amount == 0 {
			amount = transaction.CreatorPayableAmount
		}
		if amount > transaction.CreatorPayableAmount {
			return pkgerrors.New(pkgerrors.CodeValidation, "amount exceeds creator payable amount")
		}

		flipped, err := repo.MarkTransactionChargeback(ctx, input.TransactionID)
		if err != nil {
			return err
		}
		if !flipped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("transaction %s is not in a reversible state", input.TransactionID))
		}

		chargeback = &models.Chargeback{
			TransactionID: input.TransactionID,
			CreatorID:     transaction.CreatorID,
			Amount:        amount,
			Reason:        input.Reason,
		}
		if err := repo.Insert(ctx, chargeback); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventChargebackRecorded,
			AggregateType: enums.AggregateChargeback,
			AggregateID:   input.TransactionID,
			Data: payloads.ChargebackRecordedEvent{
				ChargebackID:  chargeback.ID,
				TransactionID: input.TransactionID,
				CreatorID:     transaction.CreatorID,
				Amount:        amount,
				Reason:        input.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"transaction_id": input.TransactionID.String(),
		"creator_id":     chargeback.CreatorID.String(),
		"amount":         chargeback.Amount,
	}), "chargeback recorded")
	return chargeback, nil
}

// Pending returns chargebacks not yet absorbed into a payout's adjustments.
func (s *service) Pending(ctx context.Context) ([]models.Chargeback, error) {
	return s.repo.ListPending(ctx)
}

func (s *service) GetStats(ctx context.Context) (Stats, error) {
	return s.repo.Aggregate(ctx)
}
