package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nooxeel/zetta-backend/pkg/config"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
)

func adminKeyHarness(cfg config.AdminConfig) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "middleware-test"})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return AdminKey(cfg, logg)(next)
}

func TestAdminKeyAccepted(t *testing.T) {
	handler := adminKeyHarness(config.AdminConfig{APIKey: "s3cret"})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/outbox/stats", nil)
	req.Header.Set("X-Admin-Key", "s3cret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAdminKeyRejected(t *testing.T) {
	handler := adminKeyHarness(config.AdminConfig{APIKey: "s3cret"})

	for _, key := range []string{"", "wrong"} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/outbox/stats", nil)
		if key != "" {
			req.Header.Set("X-Admin-Key", key)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("key %q: expected 401, got %d", key, rec.Code)
		}
	}
}

func TestAdminKeyMissingConfiguration(t *testing.T) {
	handler := adminKeyHarness(config.AdminConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/outbox/stats", nil)
	req.Header.Set("X-Admin-Key", "anything")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		t.Fatalf("requests must be rejected when no key is configured")
	}
}
