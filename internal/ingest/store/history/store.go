// Package history persists status-history entries. The status ingestor is
// the only writer; rows are ordered by changed-at when read, not by arrival.
package history

import (
	"context"

	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

// ErrNotFound keeps store-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "status history entry not found")

// Store is the persistence contract for status-history entries. Upsert is
// keyed by the event's own id so replays never duplicate rows.
type Store interface {
	// Upsert writes the entry if its id is unseen; inserted reports whether
	// a new row was created.
	Upsert(ctx context.Context, entry models.StatusHistoryEntry) (inserted bool, err error)
	// ListByRequest returns entries ordered by changed-at ascending.
	ListByRequest(ctx context.Context, requestID id.RequestID) ([]models.StatusHistoryEntry, error)
	// Latest returns the entry with the greatest changed-at for a request.
	Latest(ctx context.Context, requestID id.RequestID) (models.StatusHistoryEntry, error)
}
