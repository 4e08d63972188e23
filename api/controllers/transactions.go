package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Nooxeel/zetta-backend/api/responses"
	"github.com/Nooxeel/zetta-backend/api/validators"
	"github.com/Nooxeel/zetta-backend/internal/ledger"
	"github.com/Nooxeel/zetta-backend/pkg/enums"
	pkgerrors "github.com/Nooxeel/zetta-backend/pkg/errors"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/money"
)

type recordTransactionRequest struct {
	CreatorID   string `json:"creator_id" validate:"required,uuid4"`
	ProductType string `json:"product_type" validate:"required"`
	GrossAmount string `json:"gross_amount" validate:"required"`
	OccurredAt  string `json:"occurred_at" validate:"omitempty"`
}

type transactionResponse struct {
	ID                   string `json:"id"`
	CreatorID            string `json:"creator_id"`
	ProductType          string `json:"product_type"`
	GrossAmount          string `json:"gross_amount"`
	PlatformFeeAmount    string `json:"platform_fee_amount"`
	CreatorPayableAmount string `json:"creator_payable_amount"`
	FeeBps               int64  `json:"fee_bps"`
	Status               string `json:"status"`
	OccurredAt           string `json:"occurred_at"`
}

// TransactionRecord ingests one settled monetary event from the payments
// side, computing and freezing the fee split.
func TransactionRecord(rec ledger.Recorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordTransactionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		creatorID, err := uuid.Parse(req.CreatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid creator id"))
			return
		}
		gross, err := money.ParseMinor(req.GrossAmount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gross amount"))
			return
		}

		input := ledger.RecordTransactionInput{
			CreatorID:   creatorID,
			ProductType: enums.ProductType(req.ProductType),
			GrossAmount: gross,
		}
		if req.OccurredAt != "" {
			occurred, err := time.Parse(time.RFC3339, req.OccurredAt)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid occurred_at timestamp"))
				return
			}
			input.OccurredAt = occurred
		}

		transaction, err := rec.RecordTransaction(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, transactionResponse{
			ID:                   transaction.ID.String(),
			CreatorID:            transaction.CreatorID.String(),
			ProductType:          string(transaction.ProductType),
			GrossAmount:          money.FormatMinor(transaction.GrossAmount),
			PlatformFeeAmount:    money.FormatMinor(transaction.PlatformFeeAmount),
			CreatorPayableAmount: money.FormatMinor(transaction.CreatorPayableAmount),
			FeeBps:               transaction.FeeBps,
			Status:               string(transaction.Status),
			OccurredAt:           transaction.OccurredAt.UTC().Format(time.RFC3339),
		})
	}
}
