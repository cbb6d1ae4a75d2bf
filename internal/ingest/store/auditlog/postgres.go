package auditlog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"veriflow/internal/verification/models"
	dErrors "veriflow/pkg/errors"
)

// PostgresStore persists audit entries in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry models.AuditLogEntry) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO audit_log
			(fingerprint, entity_type, entity_id, action, actor_id, actor_name,
			 old_value, new_value, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (fingerprint) DO NOTHING`,
		entry.Fingerprint, entry.EntityType, entry.EntityID, entry.Action,
		entry.ActorID, entry.ActorName, entry.OldValue, entry.NewValue, entry.Timestamp,
	)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeDatabase, "append audit entry")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLogEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT fingerprint, entity_type, entity_id, action, actor_id, actor_name,
		       old_value, new_value, recorded_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY recorded_at`, entityType, entityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "list audit entries")
	}
	defer rows.Close()

	var out []models.AuditLogEntry
	for rows.Next() {
		var entry models.AuditLogEntry
		err := rows.Scan(&entry.Fingerprint, &entry.EntityType, &entry.EntityID, &entry.Action,
			&entry.ActorID, &entry.ActorName, &entry.OldValue, &entry.NewValue, &entry.Timestamp)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "scan audit entry")
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
