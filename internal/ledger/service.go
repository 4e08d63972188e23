package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	pkgerrors "github.com/Nooxeel/zetta-backend/pkg/errors"
)

// Balance is a creator's settlement position in minor units. Payable splits
// into Available (past the hold window, net of pending chargebacks) and
// Pending (still inside the hold window).
type Balance struct {
	CreatorID uuid.UUID `json:"creator_id"`
	Payable   int64     `json:"payable"`
	Paid      int64     `json:"paid"`
	Available int64     `json:"available"`
	Pending   int64     `json:"pending"`
}

type scheduleResolver interface {
	ResolveActive(ctx context.Context, asOf time.Time) (*models.FeeSchedule, error)
}

// Service is the read-only balance surface; it never mutates.
type Service interface {
	GetBalance(ctx context.Context, creatorID uuid.UUID) (*Balance, error)
}

type service struct {
	repo      Repository
	schedules scheduleResolver
}

// NewService wires a ledger reader with its repository and schedule resolver.
func NewService(repo Repository, schedules scheduleResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if schedules == nil {
		return nil, fmt.Errorf("schedule resolver required")
	}
	return &service{repo: repo, schedules: schedules}, nil
}

func (s *service) GetBalance(ctx context.Context, creatorID uuid.UUID) (*Balance, error) {
	if creatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id is required")
	}

	now := time.Now().UTC()
	schedule, err := s.schedules.ResolveActive(ctx, now)
	if err != nil {
		return nil, err
	}
	holdCutoff := now.AddDate(0, 0, -schedule.HoldDays)

	matured, held, err := s.repo.UnclaimedPayable(ctx, creatorID, holdCutoff)
	if err != nil {
		return nil, err
	}
	paid, err := s.repo.SumSentPayouts(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	chargebacks, err := s.repo.SumPendingChargebacks(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	// Pending chargebacks net against the matured portion first; whatever
	// they cannot cover reduces the held portion.
	available := matured - chargebacks
	if available < 0 {
		held += available
		available = 0
	}
	if held < 0 {
		held = 0
	}

	return &Balance{
		CreatorID: creatorID,
		Payable:   available + held,
		Paid:      paid,
		Available: available,
		Pending:   held,
	}, nil
}
