package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Nooxeel/zetta-backend/api/responses"
	"github.com/Nooxeel/zetta-backend/api/validators"
	"github.com/Nooxeel/zetta-backend/internal/payouts"
	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	pkgerrors "github.com/Nooxeel/zetta-backend/pkg/errors"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/money"
)

type payoutFailRequest struct {
	Reason string `json:"reason" validate:"required,max=512"`
}

type payoutResponse struct {
	ID               string  `json:"id"`
	CreatorID        string  `json:"creator_id"`
	PeriodStart      string  `json:"period_start"`
	PeriodEnd        string  `json:"period_end"`
	GrossTotal       string  `json:"gross_total"`
	PlatformFeeTotal string  `json:"platform_fee_total"`
	AdjustmentsTotal string  `json:"adjustments_total"`
	PayoutAmount     string  `json:"payout_amount"`
	Status           string  `json:"status"`
	RetryCount       int     `json:"retry_count"`
	FailureReason    *string `json:"failure_reason"`
	SentAt           *string `json:"sent_at"`
	FailedAt         *string `json:"failed_at"`
	CreatedAt        string  `json:"created_at"`
}

type calculateResultResponse struct {
	CreatorsProcessed int    `json:"creators_processed"`
	PayoutsCreated    int    `json:"payouts_created"`
	TotalAmount       string `json:"total_amount"`
}

// PayoutsCalculateAll runs the payout sweep for every eligible creator.
func PayoutsCalculateAll(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.CalculateAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, calculateResultResponse{
			CreatorsProcessed: result.CreatorsProcessed,
			PayoutsCreated:    result.PayoutsCreated,
			TotalAmount:       money.FormatMinor(result.TotalAmount),
		})
	}
}

// PayoutsPendingRetry lists failed payouts still under the retry cap.
func PayoutsPendingRetry(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, err := svc.PendingRetry(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]payoutResponse, 0, len(pending))
		for _, payout := range pending {
			out = append(out, toPayoutResponse(payout))
		}
		responses.WriteSuccess(w, map[string]any{"payouts": out})
	}
}

// PayoutMarkSent records delivery of one payout.
func PayoutMarkSent(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payoutID, err := uuid.Parse(chi.URLParam(r, "payoutId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout id"))
			return
		}

		payout, err := svc.MarkSent(r.Context(), payoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPayoutResponse(*payout))
	}
}

// PayoutMarkFailed records a failed delivery attempt with its reason.
func PayoutMarkFailed(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payoutID, err := uuid.Parse(chi.URLParam(r, "payoutId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout id"))
			return
		}

		var req payoutFailRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payout, err := svc.MarkFailed(r.Context(), payoutID, validators.SanitizeString(req.Reason, 512))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPayoutResponse(*payout))
	}
}

func toPayoutResponse(payout models.Payout) payoutResponse {
	resp := payoutResponse{
		ID:               payout.ID.String(),
		CreatorID:        payout.CreatorID.String(),
		PeriodStart:      payout.PeriodStart.UTC().Format(time.RFC3339),
		PeriodEnd:        payout.PeriodEnd.UTC().Format(time.RFC3339),
		GrossTotal:       money.FormatMinor(payout.GrossTotal),
		PlatformFeeTotal: money.FormatMinor(payout.PlatformFeeTotal),
		AdjustmentsTotal: money.FormatMinor(payout.AdjustmentsTotal),
		PayoutAmount:     money.FormatMinor(payout.PayoutAmount),
		Status:           string(payout.Status),
		RetryCount:       payout.RetryCount,
		FailureReason:    payout.FailureReason,
		CreatedAt:        payout.CreatedAt.UTC().Format(time.RFC3339),
	}
	if payout.SentAt != nil {
		sent := payout.SentAt.UTC().Format(time.RFC3339)
		resp.SentAt = &sent
	}
	if payout.FailedAt != nil {
		failed := payout.FailedAt.UTC().Format(time.RFC3339)
		resp.FailedAt = &failed
	}
	return resp
}
