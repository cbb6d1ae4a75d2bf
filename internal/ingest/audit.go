package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	"veriflow/internal/events"
	"veriflow/internal/ingest/store/auditlog"
	"veriflow/internal/verification/models"
	dErrors "veriflow/pkg/errors"
)

// AuditIngestor appends to the audit trail. Audit events carry no id, so
// replays are deduped on a fingerprint hashed from the event's content.
type AuditIngestor struct {
	audit  auditlog.Store
	logger *slog.Logger
}

func NewAuditIngestor(auditStore auditlog.Store, logger *slog.Logger) *AuditIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditIngestor{audit: auditStore, logger: logger}
}

func (i *AuditIngestor) Topic() events.Topic { return events.TopicAudit }

func (i *AuditIngestor) Apply(ctx context.Context, payload []byte) error {
	e, err := events.DecodeAuditLogCreated(payload)
	if err != nil {
		return err
	}

	entry := models.AuditLogEntry{
		Fingerprint: fingerprint(e),
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		ActorID:     e.ActorID,
		ActorName:   e.ActorName,
		OldValue:    e.OldValue,
		NewValue:    e.NewValue,
		Timestamp:   e.Timestamp.Time,
	}
	inserted, err := i.audit.Append(ctx, entry)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDatabase, "append audit entry")
	}
	if !inserted {
		i.logger.DebugContext(ctx, "audit event replayed",
			"entity_type", e.EntityType,
			"entity_id", e.EntityID,
			"action", e.Action,
		)
	}
	return nil
}

// fingerprint hashes the identity-bearing fields of an audit event. Two
// deliveries of the same event hash identically; two distinct actions at the
// same instant differ in at least one field.
func fingerprint(e events.AuditLogCreatedEvent) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		e.EntityType,
		e.EntityID,
		e.Action,
		e.ActorID,
		e.OldValue,
		e.NewValue,
		e.Timestamp.String(),
	}, "|")))
	return hex.EncodeToString(sum[:])
}
