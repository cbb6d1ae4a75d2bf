// Package handler exposes the webhook endpoints that feed the ingestors.
// One route per topic; bodies are the flat event JSON produced by the
// publisher.
package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veriflow/internal/events"
	"veriflow/internal/ingest"
	dErrors "veriflow/pkg/errors"
	"veriflow/pkg/httputil"
)

// 1 MiB is far beyond any flat event payload.
const maxBodyBytes = 1 << 20

// Response is the webhook acknowledgement envelope.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Handler receives webhook deliveries and hands them to the ingest router.
type Handler struct {
	router *ingest.Router
	logger *slog.Logger
}

func New(router *ingest.Router, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{router: router, logger: logger}
}

// Register mounts one POST route per event topic.
func (h *Handler) Register(r chi.Router) {
	for _, topic := range events.Topics {
		topic := topic
		r.Post(topic.WebhookPath(), h.handleDelivery(topic))
	}
}

func (h *Handler) handleDelivery(topic events.Topic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeMalformedPayload, "read webhook body"))
			return
		}
		if len(body) == 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeMalformedPayload, "empty webhook body"))
			return
		}

		if err := h.router.Apply(ctx, topic, body); err != nil {
			switch dErrors.CodeOf(err) {
			case dErrors.CodeMalformedPayload, dErrors.CodeNotFound:
				httputil.WriteJSON(w, http.StatusBadRequest, Response{
					Success: false,
					Message: err.Error(),
				})
			default:
				h.logger.ErrorContext(ctx, "webhook processing failed",
					"topic", topic,
					"error", err,
				)
				httputil.WriteJSON(w, http.StatusInternalServerError, Response{
					Success: false,
					Message: "event processing failed",
				})
			}
			return
		}

		httputil.WriteJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "event processed",
		})
	}
}
