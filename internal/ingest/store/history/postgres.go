package history

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

// PostgresStore persists status history in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, entry models.StatusHistoryEntry) (bool, error) {
	var from *string
	if entry.FromStatus != nil {
		v := string(*entry.FromStatus)
		from = &v
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO status_history
			(id, verification_request_id, from_status, to_status, changed_by, reason, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		uuid.UUID(entry.ID), uuid.UUID(entry.RequestID), from, string(entry.ToStatus),
		uuid.UUID(entry.ChangedBy), entry.Reason, entry.ChangedAt,
	)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeDatabase, "upsert status history entry")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListByRequest(ctx context.Context, requestID id.RequestID) ([]models.StatusHistoryEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, verification_request_id, from_status, to_status, changed_by, reason, changed_at
		FROM status_history
		WHERE verification_request_id = $1
		ORDER BY changed_at`, uuid.UUID(requestID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "list status history")
	}
	defer rows.Close()

	var out []models.StatusHistoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "scan status history entry")
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Latest(ctx context.Context, requestID id.RequestID) (models.StatusHistoryEntry, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, verification_request_id, from_status, to_status, changed_by, reason, changed_at
		FROM status_history
		WHERE verification_request_id = $1
		ORDER BY changed_at DESC
		LIMIT 1`, uuid.UUID(requestID))

	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.StatusHistoryEntry{}, ErrNotFound
	}
	if err != nil {
		return models.StatusHistoryEntry{}, dErrors.Wrap(err, dErrors.CodeDatabase, "latest status history entry")
	}
	return entry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (models.StatusHistoryEntry, error) {
	var (
		entry     models.StatusHistoryEntry
		entryID   uuid.UUID
		requestID uuid.UUID
		from      *string
		to        string
		changedBy uuid.UUID
	)
	err := row.Scan(&entryID, &requestID, &from, &to, &changedBy, &entry.Reason, &entry.ChangedAt)
	if err != nil {
		return models.StatusHistoryEntry{}, err
	}
	entry.ID = id.HistoryID(entryID)
	entry.RequestID = id.RequestID(requestID)
	if from != nil {
		st := models.Status(*from)
		entry.FromStatus = &st
	}
	entry.ToStatus = models.Status(to)
	entry.ChangedBy = id.UserID(changedBy)
	return entry, nil
}
