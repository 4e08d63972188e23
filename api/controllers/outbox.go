package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/Nooxeel/zetta-backend/api/responses"
	"github.com/Nooxeel/zetta-backend/api/validators"
	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/enums"
	pkgerrors "github.com/Nooxeel/zetta-backend/pkg/errors"
	"github.com/Nooxeel/zetta-backend/pkg/logger"
	"github.com/Nooxeel/zetta-backend/pkg/outbox"
	"github.com/Nooxeel/zetta-backend/pkg/pagination"
)

type outboxProcessRequest struct {
	BatchSize int `json:"batch_size" validate:"omitempty,min=1,max=1000"`
}

type outboxCleanupRequest struct {
	OlderThanDays int `json:"older_than_days" validate:"omitempty,min=1,max=3650"`
}

type outboxEventResponse struct {
	ID            string  `json:"id"`
	EventType     string  `json:"event_type"`
	AggregateType string  `json:"aggregate_type"`
	AggregateID   string  `json:"aggregate_id"`
	CreatedAt     string  `json:"created_at"`
	PublishedAt   *string `json:"published_at"`
	AttemptCount  int     `json:"attempt_count"`
	LastError     *string `json:"last_error"`
}

// OutboxStats reports pending, published, and failed event counts.
func OutboxStats(svc *outbox.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.GetStats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// OutboxProcess drains one batch of unpublished events through the
// configured sink.
func OutboxProcess(svc *outbox.Service, publisher outbox.Publisher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req outboxProcessRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		result, err := svc.Process(r.Context(), publisher, req.BatchSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// OutboxRetryFailed re-arms events parked past the failure threshold.
func OutboxRetryFailed(svc *outbox.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := svc.RetryFailed(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"reset": count})
	}
}

// OutboxCleanup deletes published events older than the requested window.
func OutboxCleanup(svc *outbox.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req outboxCleanupRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		deleted, err := svc.CleanupPublished(r.Context(), req.OlderThanDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"deleted": deleted})
	}
}

// OutboxEvents lists event metadata filtered by delivery status.
func OutboxEvents(svc *outbox.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := enums.ParseOutboxEventFilter(strings.TrimSpace(r.URL.Query().Get("status")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, err := svc.ListEvents(r.Context(), filter, pagination.Params{Limit: limit, Offset: offset})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]outboxEventResponse, 0, len(events))
		for _, event := range events {
			out = append(out, toOutboxEventResponse(event))
		}
		responses.WriteSuccess(w, map[string]any{
			"events": out,
			"limit":  limit,
			"offset": offset,
		})
	}
}

func toOutboxEventResponse(event models.OutboxEvent) outboxEventResponse {
	resp := outboxEventResponse{
		ID:            event.ID.String(),
		EventType:     string(event.EventType),
		AggregateType: string(event.AggregateType),
		AggregateID:   event.AggregateID.String(),
		CreatedAt:     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		AttemptCount:  event.AttemptCount,
		LastError:     event.LastError,
	}
	if event.PublishedAt != nil {
		published := event.PublishedAt.UTC().Format(time.RFC3339Nano)
		resp.PublishedAt = &published
	}
	return resp
}
