package feeschedule

import (
	"context"
	"errors"
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

const maxFeeBps = 10000

// ErrNoScheduleConfigured signals that no fee schedule row covers the
// requested instant. ResolveActive degrades to documented defaults instead
// of returning it; ActiveSchedule surfaces it for callers that must know.
var ErrNoScheduleConfigured = errors.New("no active fee schedule configured")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service resolves fee schedules and manages creator tier transitions.
type Service interface {
	ResolveActive(ctx context.Context, asOf time.Time) (*models.FeeSchedule, error)
	ActiveSchedule(ctx context.Context, asOf time.Time) (*models.FeeSchedule, error)
	FeeRateFor(tier enums.CreatorTier, schedule *models.FeeSchedule) int64
	CreateSchedule(ctx context.Context, input CreateScheduleInput) (*models.FeeSchedule, error)
	RecordTierChange(ctx context.Context, input TierChangeInput) (*models.TierChange, error)
	TierHistory(ctx context.Context, creatorID uuid.UUID) ([]models.TierChange, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	logg     *logger.Logger
	fallback models.FeeSchedule
}

// CreateScheduleInput captures a new fee schedule version.
type CreateScheduleInput struct {
	StandardFeeBps  int64                 `json:"standard_fee_bps"`
	VIPFeeBps       int64                 `json:"vip_fee_bps"`
	HoldDays        int                   `json:"hold_days"`
	MinPayoutAmount int64                 `json:"min_payout_amount"`
	PayoutFrequency enums.PayoutFrequency `json:"payout_frequency"`
	EffectiveFrom   time.Time             `json:"effective_from"`
	EffectiveUntil  *time.Time            `json:"effective_until"`
}

// TierChangeInput captures a creator tier transition.
type TierChangeInput struct {
	CreatorID uuid.UUID         `json:"creator_id"`
	NewTier   enums.CreatorTier `json:"new_tier"`
	Reason    string            `json:"reason"`
}

// NewService wires the fee schedule resolver with its fallback defaults.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, logg *logger.Logger, cfg config.SettlementConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fee schedule repository required")
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
	frequency, err := enums.ParsePayoutFrequency(cfg.FallbackFrequency)
	if err != nil {
		return nil, fmt.Errorf("fallback frequency: %w", err)
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: outboxSvc,
		logg:   logg,
		fallback: models.FeeSchedule{
			StandardFeeBps:  cfg.FallbackStandardFeeBps,
			VIPFeeBps:       cfg.FallbackVIPFeeBps,
			HoldDays:        cfg.FallbackHoldDays,
			MinPayoutAmount: cfg.FallbackMinPayout,
			PayoutFrequency: frequency,
		},
	}, nil
}

// ResolveActive returns the schedule in effect at asOf. When no schedule is
// configured it logs a warning and returns the documented defaults so
// settlement keeps running.
func (s *service) ResolveActive(ctx context.Context, asOf time.Time) (*models.FeeSchedule, error) {
	schedule, err := s.ActiveSchedule(ctx, asOf)
	if err != nil {
		if errors.Is(err, ErrNoScheduleConfigured) {
			s.logg.Warn(ctx, "no fee schedule configured, using fallback defaults")
			fallback := s.fallback
			fallback.EffectiveFrom = asOf
			return &fallback, nil
		}
		return nil, err
	}
	return schedule, nil
}

// ActiveSchedule is the strict lookup: ErrNoScheduleConfigured when no row
// covers asOf.
func (s *service) ActiveSchedule(ctx context.Context, asOf time.Time) (*models.FeeSchedule, error) {
	schedule, err := s.repo.ActiveAt(ctx, asOf)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, ErrNoScheduleConfigured
	}
	return schedule, nil
}

// FeeRateFor picks the schedule column that applies to the given tier.
func (s *service) FeeRateFor(tier enums.CreatorTier, schedule *models.FeeSchedule) int64 {
	if schedule == nil {
		schedule = &s.fallback
	}
	if tier == enums.TierVIP {
		return schedule.VIPFeeBps
	}
	return schedule.StandardFeeBps
}

func (s *service) CreateSchedule(ctx context.Context, input CreateScheduleInput) (*models.FeeSchedule, error) {
	if input.StandardFeeBps < 0 || input.StandardFeeBps > maxFeeBps {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "standard fee bps out of range")
	}
	if input.VIPFeeBps < 0 || input.VIPFeeBps > maxFeeBps {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vip fee bps out of range")
	}
	if input.HoldDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hold days must not be negative")
	}
	if input.MinPayoutAmount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min payout amount must not be negative")
	}
	if !input.PayoutFrequency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payout frequency %q", input.PayoutFrequency))
	}
	if input.EffectiveFrom.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "effective from is required")
	}
	if input.EffectiveUntil != nil && !input.EffectiveUntil.After(input.EffectiveFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "effective until must be after effective from")
	}

	schedule := &models.FeeSchedule{
		StandardFeeBps:  input.StandardFeeBps,
		VIPFeeBps:       input.VIPFeeBps,
		HoldDays:        input.HoldDays,
		MinPayoutAmount: input.MinPayoutAmount,
		PayoutFrequency: input.PayoutFrequency,
		EffectiveFrom:   input.EffectiveFrom,
		EffectiveUntil:  input.EffectiveUntil,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// RecordTierChange appends a tier history row, flips the creator's current
// tier, and queues a tier-changed event in one transaction.
func (s *service) RecordTierChange(ctx context.Context, input TierChangeInput) (*models.TierChange, error) {
	if input.CreatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id is required")
	}
	if !input.NewTier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid tier %q", input.NewTier))
	}

	var change *models.TierChange
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		creator, err := repo.GetCreator(ctx, input.CreatorID)
		if err != nil {
			return err
		}
		if creator == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("creator %s not found", input.CreatorID))
		}
		if creator.Tier == input.NewTier {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("creator already in tier %q", input.NewTier))
		}

		now := time.Now().UTC()
		change = &models.TierChange{
			CreatorID: input.CreatorID,
			OldTier:   creator.Tier,
			NewTier:   input.NewTier,
			Reason:    input.Reason,
		}
		if err := repo.InsertTierChange(ctx, change); err != nil {
			return err
		}
		if err := repo.UpdateCreatorTier(ctx, input.CreatorID, string(input.NewTier), now); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTierChanged,
			AggregateType: enums.AggregateCreator,
			AggregateID:   input.CreatorID,
			Data: payloads.TierChangedEvent{
				CreatorID:   input.CreatorID,
				FromTier:    creator.Tier,
				ToTier:      input.NewTier,
				EffectiveAt: now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

func (s *service) TierHistory(ctx context.Context, creatorID uuid.UUID) ([]models.TierChange, error) {
	if creatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id is required")
	}
	return s.repo.ListTierChanges(ctx, creatorID)
}
