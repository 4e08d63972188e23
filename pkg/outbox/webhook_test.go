package outbox

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/enums"
)

func TestWebhookPublisherSignsBody(t *testing.T) {
	secret := "shared-secret"
	var gotBody []byte
	var gotSignature, gotEventType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		gotBody = body
		gotSignature = r.Header.Get(SignatureHeader)
		gotEventType = r.Header.Get(EventTypeHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	publisher, err := NewWebhookPublisher(WebhookPublisherParams{
		URL:    server.URL,
		Secret: secret,
	})
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventPayoutCreated,
		AggregateType: enums.AggregatePayout,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1,"data":{"payout_id":"abc"}}`),
	}
	if err := publisher.Deliver(context.Background(), event); err != nil {
		t.Fatalf("deliver returned error: %v", err)
	}

	if string(gotBody) != string(event.Payload) {
		t.Fatalf("receiver saw body %q, want %q", gotBody, event.Payload)
	}
	if gotEventType != string(enums.EventPayoutCreated) {
		t.Fatalf("unexpected event type header %q", gotEventType)
	}
	if !VerifySignature([]byte(secret), gotBody, gotSignature) {
		t.Fatalf("signature did not verify")
	}
	if VerifySignature([]byte("wrong-secret"), gotBody, gotSignature) {
		t.Fatalf("signature verified under wrong secret")
	}
}

func TestWebhookPublisherRejectsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	publisher, err := NewWebhookPublisher(WebhookPublisherParams{
		URL:    server.URL,
		Secret: "secret",
	})
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	event := models.OutboxEvent{ID: uuid.New(), Payload: json.RawMessage(`{}`)}
	if err := publisher.Deliver(context.Background(), event); err == nil {
		t.Fatalf("expected error for non-2xx response")
	}
}

func TestNewWebhookPublisherValidation(t *testing.T) {
	if _, err := NewWebhookPublisher(WebhookPublisherParams{Secret: "s"}); err == nil {
		t.Fatalf("expected error without url")
	}
	if _, err := NewWebhookPublisher(WebhookPublisherParams{URL: "http://example.com"}); err == nil {
		t.Fatalf("expected error without secret")
	}
}
