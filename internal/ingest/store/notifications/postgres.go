package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

// PostgresStore persists notifications in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, n models.Notification) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO notifications
			(id, recipient_id, verification_request_id, notification_type, message,
			 created_at, sent_at, read, read_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		uuid.UUID(n.ID), uuid.UUID(n.RecipientID), uuid.UUID(n.RequestID),
		n.Type, n.Message, n.CreatedAt, n.SentAt, n.Read, n.ReadAt,
	)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeDatabase, "insert notification")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, notificationID id.NotificationID) (models.Notification, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, recipient_id, verification_request_id, notification_type, message,
		       created_at, sent_at, read, read_at
		FROM notifications WHERE id = $1`, uuid.UUID(notificationID))

	n, err := scanNotification(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Notification{}, ErrNotFound
	}
	if err != nil {
		return models.Notification{}, dErrors.Wrap(err, dErrors.CodeDatabase, "find notification")
	}
	return n, nil
}

func (s *PostgresStore) ListByRecipient(ctx context.Context, recipientID id.UserID) ([]models.Notification, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, recipient_id, verification_request_id, notification_type, message,
		       created_at, sent_at, read, read_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC`, uuid.UUID(recipientID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "list notifications")
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "scan notification")
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkRead(ctx context.Context, notificationID id.NotificationID, readAt time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET read = TRUE, read_at = $2 WHERE id = $1`,
		uuid.UUID(notificationID), readAt)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDatabase, "mark notification read")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (models.Notification, error) {
	var (
		n              models.Notification
		notificationID uuid.UUID
		recipientID    uuid.UUID
		requestID      uuid.UUID
	)
	err := row.Scan(&notificationID, &recipientID, &requestID, &n.Type, &n.Message,
		&n.CreatedAt, &n.SentAt, &n.Read, &n.ReadAt)
	if err != nil {
		return models.Notification{}, err
	}
	n.ID = id.NotificationID(notificationID)
	n.RecipientID = id.UserID(recipientID)
	n.RequestID = id.RequestID(requestID)
	return n, nil
}
