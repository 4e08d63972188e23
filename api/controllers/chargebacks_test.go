package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Nooxeel/zetta-backend/internal/chargebacks"
	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
)

type testChargebacksService struct {
	recordFn  func(ctx context.Context, input chargebacks.RecordInput) (*models.Chargeback, error)
	pendingFn func(ctx context.Context) ([]models.Chargeback, error)
	statsFn   func(ctx context.Context) (chargebacks.Stats, error)
}

func (s *testChargebacksService) Record(ctx context.Context, input chargebacks.RecordInput) (*models.Chargeback, error) {
	if s.recordFn != nil {
		return s.recordFn(ctx, input)
	}
	return nil, nil
}

func (s *testChargebacksService) Pending(ctx context.Context) ([]models.Chargeback, error) {
	if s.pendingFn != nil {
		return s.pendingFn(ctx)
	}
	return nil, nil
}

func (s *testChargebacksService) GetStats(ctx context.Context) (chargebacks.Stats, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx)
	}
	return chargebacks.Stats{}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestChargebackRecordSuccess(t *testing.T) {
	transactionID := uuid.New()
	creatorID := uuid.New()
	svc := &testChargebacksService{
		recordFn: func(ctx context.Context, input chargebacks.RecordInput) (*models.Chargeback, error) {
			if input.TransactionID != transactionID {
				t.Fatalf("unexpected transaction %s", input.TransactionID)
			}
			if input.Amount != 5000 {
				t.Fatalf("unexpected amount %d", input.Amount)
			}
			return &models.Chargeback{
				ID:            uuid.New(),
				TransactionID: input.TransactionID,
				CreatorID:     creatorID,
				Amount:        input.Amount,
				Reason:        input.Reason,
			}, nil
		},
	}

	body := `{"transaction_id":"` + transactionID.String() + `","amount":"5000","reason":"dispute"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/chargebacks", strings.NewReader(body))
	resp := httptest.NewRecorder()
	ChargebackRecord(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data chargebackResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if envelope.Data.Amount != "5000" {
		t.Fatalf("amount must be a decimal string, got %q", envelope.Data.Amount)
	}
}

func TestChargebackRecordRejectsBadAmount(t *testing.T) {
	body := `{"transaction_id":"` + uuid.NewString() + `","amount":"12.5"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/chargebacks", strings.NewReader(body))
	resp := httptest.NewRecorder()
	ChargebackRecord(&testChargebacksService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestChargebacksPendingSerialization(t *testing.T) {
	payoutID := uuid.New()
	svc := &testChargebacksService{
		pendingFn: func(ctx context.Context) ([]models.Chargeback, error) {
			return []models.Chargeback{
				{ID: uuid.New(), TransactionID: uuid.New(), CreatorID: uuid.New(), Amount: 1200},
				{ID: uuid.New(), TransactionID: uuid.New(), CreatorID: uuid.New(), Amount: 300, AbsorbedInPayoutID: &payoutID},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/chargebacks/pending", nil)
	resp := httptest.NewRecorder()
	ChargebacksPending(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Chargebacks []chargebackResponse `json:"chargebacks"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(envelope.Data.Chargebacks) != 2 {
		t.Fatalf("expected two rows, got %d", len(envelope.Data.Chargebacks))
	}
	if envelope.Data.Chargebacks[1].AbsorbedInPayoutID == nil {
		t.Fatalf("absorbed payout id must round-trip")
	}
}

func TestChargebackStatsTotalsAreStrings(t *testing.T) {
	svc := &testChargebacksService{
		statsFn: func(ctx context.Context) (chargebacks.Stats, error) {
			return chargebacks.Stats{
				PendingCount:  2,
				PendingTotal:  1500,
				AbsorbedCount: 1,
				AbsorbedTotal: 300,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/chargebacks/stats", nil)
	resp := httptest.NewRecorder()
	ChargebackStats(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"pending_total":"1500"`) {
		t.Fatalf("pending total must be a decimal string: %s", resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"absorbed_total":"300"`) {
		t.Fatalf("absorbed total must be a decimal string: %s", resp.Body.String())
	}
}
