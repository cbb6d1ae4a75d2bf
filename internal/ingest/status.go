package ingest

import (
	"context"
	"log/slog"
	"sync"

	"veriflow/internal/events"
	"veriflow/internal/ingest/store/history"
	"veriflow/internal/verification/models"
	"veriflow/internal/verification/store"
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

// StatusIngestor writes status-history rows and refreshes the request's
// current status from the latest entry. Recomputing from the history instead
// of trusting the incoming toStatus keeps out-of-order deliveries from
// regressing the request.
type StatusIngestor struct {
	history  history.Store
	requests store.Store
	logger   *slog.Logger

	// refreshMu serializes the Latest read and the SetStatus write so two
	// concurrently applied events cannot interleave and cache a stale status.
	refreshMu sync.Mutex
}

func NewStatusIngestor(historyStore history.Store, requests store.Store, logger *slog.Logger) *StatusIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusIngestor{history: historyStore, requests: requests, logger: logger}
}

func (i *StatusIngestor) Topic() events.Topic { return events.TopicStatus }

func (i *StatusIngestor) Apply(ctx context.Context, payload []byte) error {
	e, err := events.DecodeStatusUpdate(payload)
	if err != nil {
		return err
	}

	entryID, err := id.ParseHistoryID(e.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedPayload, "status event id")
	}
	requestID, err := id.ParseRequestID(e.RequestID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedPayload, "status event request id")
	}
	changedBy, err := id.ParseUserID(e.ChangedBy)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedPayload, "status event changedBy")
	}
	toStatus, err := models.ParseStatus(e.ToStatus)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedPayload, "status event toStatus")
	}
	var fromStatus *models.Status
	if e.FromStatus != "" {
		parsed, err := models.ParseStatus(e.FromStatus)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeMalformedPayload, "status event fromStatus")
		}
		fromStatus = &parsed
	}

	entry := models.StatusHistoryEntry{
		ID:         entryID,
		RequestID:  requestID,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		ChangedBy:  changedBy,
		ChangedAt:  e.ChangedAt.Time,
	}
	if e.Reason != "" {
		reason := e.Reason
		entry.Reason = &reason
	}

	inserted, err := i.history.Upsert(ctx, entry)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDatabase, "upsert status history")
	}
	if !inserted {
		i.logger.DebugContext(ctx, "status event replayed, history unchanged",
			"entry_id", entryID,
			"request_id", requestID,
		)
	}

	// Refresh on replays too: if an earlier delivery inserted the history row
	// but failed before the status write, the redelivery must repair it.
	i.refreshMu.Lock()
	defer i.refreshMu.Unlock()

	latest, err := i.history.Latest(ctx, requestID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDatabase, "read latest status history")
	}
	if err := i.requests.SetStatus(ctx, requestID, latest.ToStatus); err != nil {
		return dErrors.Wrap(err, dErrors.CodeDatabase, "refresh request status")
	}
	return nil
}
