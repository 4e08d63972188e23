package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Nooxeel/zetta-backend/api/responses"
	"github.com/Nooxeel/zetta-backend/api/validators"
	"github.com/Nooxeel/zetta-backend/internal/chargebacks"
	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	pkgerrors "github.com/Nooxeel/zetta-backend/pkg/errors"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/money"
)

type chargebackRecordRequest struct {
	TransactionID string `json:"transaction_id" validate:"required,uuid4"`
	Amount        string `json:"amount" validate:"omitempty"`
	Reason        string `json:"reason" validate:"omitempty,max=512"`
}

type chargebackResponse struct {
	ID                 string  `json:"id"`
	TransactionID      string  `json:"transaction_id"`
	CreatorID          string  `json:"creator_id"`
	Amount             string  `json:"amount"`
	Reason             string  `json:"reason"`
	AbsorbedInPayoutID *string `json:"absorbed_in_payout_id"`
	CreatedAt          string  `json:"created_at"`
}

// ChargebackRecord reverses a settled transaction and queues the amount for
// absorption into the creator's next payout.
func ChargebackRecord(svc chargebacks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chargebackRecordRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transactionID, err := uuid.Parse(req.TransactionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction id"))
			return
		}

		input := chargebacks.RecordInput{
			TransactionID: transactionID,
			Reason:        validators.SanitizeString(req.Reason, 512),
		}
		if req.Amount != "" {
			amount, err := money.ParseMinor(req.Amount)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
				return
			}
			input.Amount = amount
		}

		chargeback, err := svc.Record(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toChargebackResponse(*chargeback))
	}
}

// ChargebacksPending lists chargebacks not yet absorbed into a payout.
func ChargebacksPending(svc chargebacks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, err := svc.Pending(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]chargebackResponse, 0, len(pending))
		for _, chargeback := range pending {
			out = append(out, toChargebackResponse(chargeback))
		}
		responses.WriteSuccess(w, map[string]any{"chargebacks": out})
	}
}

type chargebackStatsResponse struct {
	PendingCount  int64  `json:"pending_count"`
	PendingTotal  string `json:"pending_total"`
	AbsorbedCount int64  `json:"absorbed_count"`
	AbsorbedTotal string `json:"absorbed_total"`
}

// ChargebackStats aggregates pending and absorbed chargeback totals.
func ChargebackStats(svc chargebacks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.GetStats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, chargebackStatsResponse{
			PendingCount:  stats.PendingCount,
			PendingTotal:  money.FormatMinor(stats.PendingTotal),
			AbsorbedCount: stats.AbsorbedCount,
			AbsorbedTotal: money.FormatMinor(stats.AbsorbedTotal),
		})
	}
}

func toChargebackResponse(chargeback models.Chargeback) chargebackResponse {
	resp := chargebackResponse{
		ID:            chargeback.ID.String(),
		TransactionID: chargeback.TransactionID.String(),
		CreatorID:     chargeback.CreatorID.String(),
		Amount:        money.FormatMinor(chargeback.Amount),
		Reason:        chargeback.Reason,
		CreatedAt:     chargeback.CreatedAt.UTC().Format(time.RFC3339),
	}
	if chargeback.AbsorbedInPayoutID != nil {
		absorbed := chargeback.AbsorbedInPayoutID.String()
		resp.AbsorbedInPayoutID = &absorbed
	}
	return resp
}
