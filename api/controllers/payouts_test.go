package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Nooxeel/zetta-backend/internal/payouts"
	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/enums"
)

type testPayoutsService struct {
	calculateFn  func(ctx context.Context) (payouts.CalculateResult, error)
	pendingFn    func(ctx context.Context) ([]models.Payout, error)
	markSentFn   func(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error)
	markFailedFn func(ctx context.Context, payoutID uuid.UUID, reason string) (*models.Payout, error)
}

func (s *testPayoutsService) CalculateAll(ctx context.Context) (payouts.CalculateResult, error) {
	if s.calculateFn != nil {
		return s.calculateFn(ctx)
	}
	return payouts.CalculateResult{}, nil
}

func (s *testPayoutsService) PendingRetry(ctx context.Context) ([]models.Payout, error) {
	if s.pendingFn != nil {
		return s.pendingFn(ctx)
	}
	return nil, nil
}

func (s *testPayoutsService) MarkSent(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	if s.markSentFn != nil {
		return s.markSentFn(ctx, payoutID)
	}
	return nil, nil
}

func (s *testPayoutsService) MarkFailed(ctx context.Context, payoutID uuid.UUID, reason string) (*models.Payout, error) {
	if s.markFailedFn != nil {
		return s.markFailedFn(ctx, payoutID, reason)
	}
	return nil, nil
}

func payoutRequest(method, path, payoutID, body string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("payoutId", payoutID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestPayoutsCalculateAll(t *testing.T) {
	svc := &testPayoutsService{
		calculateFn: func(ctx context.Context) (payouts.CalculateResult, error) {
			return payouts.CalculateResult{CreatorsProcessed: 4, PayoutsCreated: 2, TotalAmount: 31000}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/payouts/calculate-all", nil)
	resp := httptest.NewRecorder()
	PayoutsCalculateAll(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"payouts_created":2`) {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"total_amount":"31000"`) {
		t.Fatalf("total must be a decimal string: %s", resp.Body.String())
	}
}

func TestPayoutsPendingRetryAmountsAreStrings(t *testing.T) {
	svc := &testPayoutsService{
		pendingFn: func(ctx context.Context) ([]models.Payout, error) {
			now := time.Now().UTC()
			reason := "bank rejected"
			return []models.Payout{{
				ID:               uuid.New(),
				CreatorID:        uuid.New(),
				PeriodStart:      now.AddDate(0, 0, -7),
				PeriodEnd:        now,
				GrossTotal:       20000,
				PlatformFeeTotal: 2000,
				PayoutAmount:     18000,
				Status:           enums.PayoutFailed,
				RetryCount:       1,
				FailureReason:    &reason,
				FailedAt:         &now,
			}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/payouts/pending-retry", nil)
	resp := httptest.NewRecorder()
	PayoutsPendingRetry(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Payouts []payoutResponse `json:"payouts"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(envelope.Data.Payouts) != 1 {
		t.Fatalf("expected one payout")
	}
	row := envelope.Data.Payouts[0]
	if row.PayoutAmount != "18000" || row.GrossTotal != "20000" {
		t.Fatalf("amounts must be decimal strings: %+v", row)
	}
	if row.FailedAt == nil || row.FailureReason == nil {
		t.Fatalf("failure fields must round-trip: %+v", row)
	}
}

func TestPayoutMarkFailedRequiresReason(t *testing.T) {
	payoutID := uuid.New()
	req := payoutRequest(http.MethodPost, "/api/admin/v1/payouts/"+payoutID.String()+"/mark-failed", payoutID.String(), `{}`)
	resp := httptest.NewRecorder()
	PayoutMarkFailed(&testPayoutsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestPayoutMarkSent(t *testing.T) {
	payoutID := uuid.New()
	svc := &testPayoutsService{
		markSentFn: func(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
			if id != payoutID {
				t.Fatalf("unexpected payout %s", id)
			}
			now := time.Now().UTC()
			return &models.Payout{ID: id, CreatorID: uuid.New(), PayoutAmount: 9000, Status: enums.PayoutSent, SentAt: &now}, nil
		},
	}

	req := payoutRequest(http.MethodPost, "/api/admin/v1/payouts/"+payoutID.String()+"/mark-sent", payoutID.String(), "")
	resp := httptest.NewRecorder()
	PayoutMarkSent(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"status":"sent"`) {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}
