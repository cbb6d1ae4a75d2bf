// Package auditlog persists the append-only audit trail. The audit event
// carries no pre-assigned id, so the ingestor derives a deterministic
// fingerprint from event content and the store dedupes on it; entries are
// immutable once written.
package auditlog

import (
	"context"

	"veriflow/internal/verification/models"
)

// Store is the persistence contract for audit entries.
type Store interface {
	// Append writes the entry unless its fingerprint was already recorded;
	// inserted reports whether a new row was created.
	Append(ctx context.Context, entry models.AuditLogEntry) (inserted bool, err error)
	// ListByEntity returns entries for one audited entity, timestamp
	// ascending.
	ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLogEntry, error)
}
