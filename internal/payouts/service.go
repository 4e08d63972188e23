package payouts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nooxeel/zetta-backend/pkg/config"
	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/enums"
	pkgerrors "github.com/Nooxeel/zetta-backend/pkg/errors"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/outbox"
	"github.com/Nooxeel/zetta-backend/pkg/outbox/payloads"
)

const defaultRetryCap = 3

// CalculateResult summarizes one settlement pass.
type CalculateResult struct {
	CreatorsProcessed int   `json:"creators_processed"`
	PayoutsCreated    int   `json:"payouts_created"`
	TotalAmount       int64 `json:"total_amount"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type scheduleResolver interface {
	ResolveActive(ctx context.Context, asOf time.Time) (*models.FeeSchedule, error)
}

// Service batches eligible transactions into payouts and records the
// disbursement worker's report-backs.
type Service interface {
	CalculateAll(ctx context.Context) (CalculateResult, error)
	PendingRetry(ctx context.Context) ([]models.Payout, error)
	MarkSent(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error)
	MarkFailed(ctx context.Context, payoutID uuid.UUID, reason string) (*models.Payout, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	schedules scheduleResolver
	logg      *logger.Logger
	retryCap  int
}

// NewService wires the payout calculator with its collaborators.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, schedules scheduleResolver, logg *logger.Logger, cfg config.SettlementConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payout repository required")
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
	retryCap := cfg.PayoutRetryCap
	if retryCap <= 0 {
		retryCap = defaultRetryCap
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    outboxSvc,
		schedules: schedules,
		logg:      logg,
		retryCap:  retryCap,
	}, nil
}

// CalculateAll runs one settlement pass over every eligible creator. Each
// creator's batch is its own transaction: a failure is logged and does not
// abort siblings, and concurrent passes cannot claim the same transactions
// because the selection read holds SKIP LOCKED row locks until commit.
func (s *service) CalculateAll(ctx context.Context) (CalculateResult, error) {
	now := time.Now().UTC()
	schedule, err := s.schedules.ResolveActive(ctx, now)
	if err != nil {
		return CalculateResult{}, err
	}
	holdCutoff := now.AddDate(0, 0, -schedule.HoldDays)

	creatorIDs, err := s.repo.EligibleCreatorIDs(ctx, holdCutoff)
	if err != nil {
		return CalculateResult{}, err
	}

	var result CalculateResult
	for _, creatorID := range creatorIDs {
		creatorCtx := s.logg.WithCreatorID(ctx, creatorID.String())
		result.CreatorsProcessed++

		payout, err := s.calculateForCreator(creatorCtx, creatorID, schedule, holdCutoff, now)
		if err != nil {
			s.logg.Error(creatorCtx, "payout calculation failed for creator", err)
			continue
		}
		if payout != nil {
			result.PayoutsCreated++
			result.TotalAmount += payout.PayoutAmount
		}
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"creators_processed": result.CreatorsProcessed,
		"payouts_created":    result.PayoutsCreated,
		"total_amount":       result.TotalAmount,
	}), "payout calculation pass complete")
	return result, nil
}

// calculateForCreator builds at most one payout inside a single
// transaction. Returning (nil, nil) means the creator was skipped this
// cycle; their transactions stay unclaimed.
func (s *service) calculateForCreator(ctx context.Context, creatorID uuid.UUID, schedule *models.FeeSchedule, holdCutoff, now time.Time) (*models.Payout, error) {
	var created *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		lastPeriodEnd, err := repo.LastPayoutPeriodEnd(ctx, creatorID)
		if err != nil {
			return err
		}
		if lastPeriodEnd != nil && now.Before(lastPeriodEnd.Add(schedule.PayoutFrequency.Interval())) {
			return nil
		}

		transactions, err := repo.LockUnclaimedMatured(ctx, creatorID, holdCutoff)
		if err != nil {
			return err
		}
		if len(transactions) == 0 {
			return nil
		}

		var grossTotal, feeTotal, candidate int64
		periodStart := transactions[0].OccurredAt
		items := make([]models.PayoutItem, 0, len(transactions))
		for _, transaction := range transactions {
			grossTotal += transaction.GrossAmount
			feeTotal += transaction.PlatformFeeAmount
			candidate += transaction.CreatorPayableAmount
			if transaction.OccurredAt.Before(periodStart) {
				periodStart = transaction.OccurredAt
			}
		}

		// No partial claiming: below the floor the whole batch waits.
		if candidate < schedule.MinPayoutAmount {
			return nil
		}

		chargebacks, err := repo.LockPendingChargebacks(ctx, creatorID)
		if err != nil {
			return err
		}
		var adjustments int64
		chargebackIDs := make([]uuid.UUID, 0, len(chargebacks))
		for _, chargeback := range chargebacks {
			adjustments -= chargeback.Amount
			chargebackIDs = append(chargebackIDs, chargeback.ID)
		}

		payoutAmount := candidate + adjustments
		if payoutAmount < 0 {
			// Adjustments would drive the amount negative: defer, never
			// create a negative payout.
			s.logg.Warn(ctx, "payout deferred, adjustments exceed payable amount")
			return nil
		}

		payout := &models.Payout{
			CreatorID:        creatorID,
			PeriodStart:      periodStart,
			PeriodEnd:        now,
			GrossTotal:       grossTotal,
			PlatformFeeTotal: feeTotal,
			AdjustmentsTotal: adjustments,
			PayoutAmount:     payoutAmount,
			Status:           enums.PayoutPending,
		}
		if err := repo.CreatePayout(ctx, payout); err != nil {
			return err
		}

		for _, transaction := range transactions {
			items = append(items, models.PayoutItem{
				PayoutID:      payout.ID,
				TransactionID: transaction.ID,
				Amount:        transaction.CreatorPayableAmount,
			})
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return err
		}
		if err := repo.MarkChargebacksAbsorbed(ctx, chargebackIDs, payout.ID); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutCreated,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Data: payloads.PayoutCreatedEvent{
				PayoutID:         payout.ID,
				CreatorID:        creatorID,
				PeriodStart:      payout.PeriodStart,
				PeriodEnd:        payout.PeriodEnd,
				TransactionCount: len(items),
				GrossTotal:       grossTotal,
				AdjustmentsTotal: adjustments,
				PayoutAmount:     payoutAmount,
			},
		}); err != nil {
			return err
		}

		created = payout
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// PendingRetry lists FAILED payouts still under the retry cap; the external
// disbursement retrier consumes this read.
func (s *service) PendingRetry(ctx context.Context) ([]models.Payout, error) {
	return s.repo.ListPendingRetry(ctx, s.retryCap)
}

// MarkSent records the disbursement worker's success report.
func (s *service) MarkSent(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	if payoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id is required")
	}

	var payout *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.GetPayout(ctx, payoutID)
		if err != nil {
			return err
		}
		if existing == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("payout %s not found", payoutID))
		}

		now := time.Now().UTC()
		flipped, err := repo.MarkSent(ctx, payoutID, now)
		if err != nil {
			return err
		}
		if !flipped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("payout %s is not in a sendable state", payoutID))
		}

		existing.Status = enums.PayoutSent
		existing.SentAt = &now
		payout = existing

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutSent,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payoutID,
			Data: payloads.PayoutSentEvent{
				PayoutID:     payoutID,
				CreatorID:    existing.CreatorID,
				PayoutAmount: existing.PayoutAmount,
				SentAt:       now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// MarkFailed records the disbursement worker's failure report.
func (s *service) MarkFailed(ctx context.Context, payoutID uuid.UUID, reason string) (*models.Payout, error) {
	if payoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id is required")
	}

	var payout *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.GetPayout(ctx, payoutID)
		if err != nil {
			return err
		}
		if existing == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("payout %s not found", payoutID))
		}

		now := time.Now().UTC()
		flipped, err := repo.MarkFailed(ctx, payoutID, reason, now)
		if err != nil {
			return err
		}
		if !flipped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("payout %s is not in a failable state", payoutID))
		}

		existing.Status = enums.PayoutFailed
		existing.FailedAt = &now
		existing.RetryCount++
		existing.FailureReason = &reason
		payout = existing

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutFailed,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payoutID,
			Data: payloads.PayoutFailedEvent{
				PayoutID:      payoutID,
				CreatorID:     existing.CreatorID,
				PayoutAmount:  existing.PayoutAmount,
				RetryCount:    existing.RetryCount,
				FailureReason: reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}
