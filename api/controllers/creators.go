package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Nooxeel/zetta-backend/api/responses"
	"github.com/Nooxeel/zetta-backend/internal/ledger"
	pkgerrors "github.com/Nooxeel/zetta-backend/pkg/errors"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/money"
)

type balanceResponse struct {
	CreatorID string `json:"creator_id"`
	Payable   string `json:"payable"`
	Paid      string `json:"paid"`
	Available string `json:"available"`
	Pending   string `json:"pending"`
}

// CreatorBalance reports a creator's settlement position in minor units.
func CreatorBalance(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creatorID, err := uuid.Parse(chi.URLParam(r, "creatorId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid creator id"))
			return
		}

		balance, err := svc.GetBalance(r.Context(), creatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, balanceResponse{
			CreatorID: balance.CreatorID.String(),
			Payable:   money.FormatMinor(balance.Payable),
			Paid:      money.FormatMinor(balance.Paid),
			Available: money.FormatMinor(balance.Available),
			Pending:   money.FormatMinor(balance.Pending),
		})
	}
}
