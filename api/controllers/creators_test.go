package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Nooxeel/zetta-backend/internal/ledger"
)

type testLedgerService struct {
	balanceFn func(ctx context.Context, creatorID uuid.UUID) (*ledger.Balance, error)
}

func (s *testLedgerService) GetBalance(ctx context.Context, creatorID uuid.UUID) (*ledger.Balance, error) {
	if s.balanceFn != nil {
		return s.balanceFn(ctx, creatorID)
	}
	return &ledger.Balance{CreatorID: creatorID}, nil
}

func balanceRequest(creatorID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/creators/"+creatorID+"/balance", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("creatorId", creatorID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCreatorBalanceDecimalStrings(t *testing.T) {
	creatorID := uuid.New()
	svc := &testLedgerService{
		balanceFn: func(ctx context.Context, id uuid.UUID) (*ledger.Balance, error) {
			if id != creatorID {
				t.Fatalf("unexpected creator %s", id)
			}
			return &ledger.Balance{
				CreatorID: id,
				Payable:   18000,
				Paid:      42000,
				Available: 15000,
				Pending:   3000,
			}, nil
		},
	}

	resp := httptest.NewRecorder()
	CreatorBalance(svc, testLogger())(resp, balanceRequest(creatorID.String()))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data balanceResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if envelope.Data.Payable != "18000" || envelope.Data.Paid != "42000" {
		t.Fatalf("amounts must be decimal strings: %+v", envelope.Data)
	}
	if envelope.Data.Available != "15000" || envelope.Data.Pending != "3000" {
		t.Fatalf("unexpected split: %+v", envelope.Data)
	}
}

func TestCreatorBalanceRejectsBadID(t *testing.T) {
	resp := httptest.NewRecorder()
	CreatorBalance(&testLedgerService{}, testLogger())(resp, balanceRequest("not-a-uuid"))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
