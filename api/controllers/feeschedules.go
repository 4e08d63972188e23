package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Nooxeel/zetta-backend/api/responses"
	"github.com/Nooxeel/zetta-backend/api/validators"
	"github.com/Nooxeel/zetta-backend/internal/feeschedule"
	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/enums"
	pkgerrors "github.com/Nooxeel/zetta-backend/pkg/errors"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/money"
)

type createScheduleRequest struct {
	StandardFeeBps  int64   `json:"standard_fee_bps" validate:"min=0,max=10000"`
	VIPFeeBps       int64   `json:"vip_fee_bps" validate:"min=0,max=10000"`
	HoldDays        int     `json:"hold_days" validate:"min=0,max=365"`
	MinPayoutAmount string  `json:"min_payout_amount" validate:"required"`
	PayoutFrequency string  `json:"payout_frequency" validate:"required"`
	EffectiveFrom   string  `json:"effective_from" validate:"required"`
	EffectiveUntil  *string `json:"effective_until"`
}

type tierChangeRequest struct {
	NewTier string `json:"new_tier" validate:"required"`
	Reason  string `json:"reason" validate:"omitempty,max=512"`
}

type tierChangeResponse struct {
	ID        string `json:"id"`
	CreatorID string `json:"creator_id"`
	OldTier   string `json:"old_tier"`
	NewTier   string `json:"new_tier"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
}

type feeScheduleResponse struct {
	ID              string  `json:"id"`
	StandardFeeBps  int64   `json:"standard_fee_bps"`
	VIPFeeBps       int64   `json:"vip_fee_bps"`
	HoldDays        int     `json:"hold_days"`
	MinPayoutAmount string  `json:"min_payout_amount"`
	PayoutFrequency string  `json:"payout_frequency"`
	EffectiveFrom   string  `json:"effective_from"`
	EffectiveUntil  *string `json:"effective_until"`
}

// FeeScheduleActive returns the schedule governing settlements right now.
func FeeScheduleActive(svc feeschedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		schedule, err := svc.ActiveSchedule(r.Context(), time.Now().UTC())
		if err != nil {
			if errors.Is(err, feeschedule.ErrNoScheduleConfigured) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "no active fee schedule"))
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toFeeScheduleResponse(*schedule))
	}
}

// FeeScheduleCreate registers a new schedule version.
func FeeScheduleCreate(svc feeschedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createScheduleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		minPayout, err := money.ParseMinor(req.MinPayoutAmount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid min payout amount"))
			return
		}
		effectiveFrom, err := time.Parse(time.RFC3339, req.EffectiveFrom)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid effective_from timestamp"))
			return
		}

		input := feeschedule.CreateScheduleInput{
			StandardFeeBps:  req.StandardFeeBps,
			VIPFeeBps:       req.VIPFeeBps,
			HoldDays:        req.HoldDays,
			MinPayoutAmount: minPayout,
			PayoutFrequency: enums.PayoutFrequency(req.PayoutFrequency),
			EffectiveFrom:   effectiveFrom,
		}
		if req.EffectiveUntil != nil {
			until, err := time.Parse(time.RFC3339, *req.EffectiveUntil)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid effective_until timestamp"))
				return
			}
			input.EffectiveUntil = &until
		}

		schedule, err := svc.CreateSchedule(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toFeeScheduleResponse(*schedule))
	}
}

// CreatorTierChange moves a creator between fee tiers.
func CreatorTierChange(svc feeschedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creatorID, err := uuid.Parse(chi.URLParam(r, "creatorId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid creator id"))
			return
		}

		var req tierChangeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		change, err := svc.RecordTierChange(r.Context(), feeschedule.TierChangeInput{
			CreatorID: creatorID,
			NewTier:   enums.CreatorTier(req.NewTier),
			Reason:    validators.SanitizeString(req.Reason, 512),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toTierChangeResponse(*change))
	}
}

// CreatorTierHistory lists a creator's tier transitions, newest first.
func CreatorTierHistory(svc feeschedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creatorID, err := uuid.Parse(chi.URLParam(r, "creatorId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid creator id"))
			return
		}

		history, err := svc.TierHistory(r.Context(), creatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]tierChangeResponse, 0, len(history))
		for _, change := range history {
			out = append(out, toTierChangeResponse(change))
		}
		responses.WriteSuccess(w, map[string]any{"tier_changes": out})
	}
}

func toTierChangeResponse(change models.TierChange) tierChangeResponse {
	return tierChangeResponse{
		ID:        change.ID.String(),
		CreatorID: change.CreatorID.String(),
		OldTier:   string(change.OldTier),
		NewTier:   string(change.NewTier),
		Reason:    change.Reason,
		CreatedAt: change.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toFeeScheduleResponse(schedule models.FeeSchedule) feeScheduleResponse {
	resp := feeScheduleResponse{
		ID:              schedule.ID.String(),
		StandardFeeBps:  schedule.StandardFeeBps,
		VIPFeeBps:       schedule.VIPFeeBps,
		HoldDays:        schedule.HoldDays,
		MinPayoutAmount: money.FormatMinor(schedule.MinPayoutAmount),
		PayoutFrequency: string(schedule.PayoutFrequency),
		EffectiveFrom:   schedule.EffectiveFrom.UTC().Format(time.RFC3339),
	}
	if schedule.EffectiveUntil != nil {
		until := schedule.EffectiveUntil.UTC().Format(time.RFC3339)
		resp.EffectiveUntil = &until
	}
	return resp
}
