package outbox

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Nooxeel/zetta-backend/pkg/db/models"
)

const (
	// SignatureHeader carries the hex HMAC-SHA256 of the request body so the
	// receiver can authenticate origin.
	SignatureHeader = "X-Zetta-Signature"
	// EventTypeHeader carries the event type for routing without parsing.
	EventTypeHeader = "X-Zetta-Event-Type"
	// EventIDHeader carries the outbox row ID for receiver-side deduplication.
	EventIDHeader = "X-Zetta-Event-Id"
)

// HTTPDoer is the subset of http.Client used for webhook deliveries.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookPublisher posts event payloads to a configured receiver, signing
// each request body with a shared secret.
type WebhookPublisher struct {
	url    string
	secret []byte
	client HTTPDoer
}

type WebhookPublisherParams struct {
	URL    string
	Secret string
	Client HTTPDoer
}

func NewWebhookPublisher(params WebhookPublisherParams) (*WebhookPublisher, error) {
	if strings.TrimSpace(params.URL) == "" {
		return nil, errors.New("webhook url is required")
	}
	if params.Secret == "" {
		return nil, errors.New("webhook secret is required")
	}
	client := params.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookPublisher{
		url:    params.URL,
		secret: []byte(params.Secret),
		client: client,
	}, nil
}

func (p *WebhookPublisher) Name() string { return "webhook" }

func (p *WebhookPublisher) Deliver(ctx context.Context, event models.OutboxEvent) error {
	body := []byte(event.Payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(p.secret, body))
	req.Header.Set(EventTypeHeader, string(event.EventType))
	req.Header.Set(EventIDHeader, event.ID.String())

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook receiver returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 of body under the shared secret.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether the provided signature matches the body.
// Receivers use this to authenticate the publisher.
func VerifySignature(secret, body []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(expected, mac.Sum(nil))
}
