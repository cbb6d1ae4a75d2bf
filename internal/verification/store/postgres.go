package store

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

// PostgresStore persists verification requests in PostgreSQL. Child ids are
// stored as uuid arrays; child rows live in the ingestor-owned tables.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, req models.VerificationRequest) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO verification_requests
			(id, customer_id, requestor_id, officer_id, status, reason,
			 created_at, updated_at, approved_at, rejected_at,
			 document_ids, comment_ids, history_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			officer_id = EXCLUDED.officer_id,
			status = EXCLUDED.status,
			reason = EXCLUDED.reason,
			updated_at = EXCLUDED.updated_at,
			approved_at = EXCLUDED.approved_at,
			rejected_at = EXCLUDED.rejected_at,
			document_ids = EXCLUDED.document_ids,
			comment_ids = EXCLUDED.comment_ids,
			history_ids = EXCLUDED.history_ids`,
		uuid.UUID(req.ID), uuid.UUID(req.CustomerID), uuid.UUID(req.RequestorID),
		officerValue(req.OfficerID), string(req.Status), req.Reason,
		req.CreatedAt, req.UpdatedAt, req.ApprovedAt, req.RejectedAt,
		documentUUIDs(req.DocumentIDs), commentUUIDs(req.CommentIDs), historyUUIDs(req.HistoryIDs),
	)
	return dErrors.Wrap(err, dErrors.CodeDatabase, "save verification request")
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.RequestID) (models.VerificationRequest, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, customer_id, requestor_id, officer_id, status, reason,
		       created_at, updated_at, approved_at, rejected_at,
		       document_ids, comment_ids, history_ids
		FROM verification_requests WHERE id = $1`, uuid.UUID(requestID))

	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.VerificationRequest{}, ErrNotFound
	}
	if err != nil {
		return models.VerificationRequest{}, dErrors.Wrap(err, dErrors.CodeDatabase, "find verification request")
	}
	return req, nil
}

func (s *PostgresStore) ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]models.VerificationRequest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, customer_id, requestor_id, officer_id, status, reason,
		       created_at, updated_at, approved_at, rejected_at,
		       document_ids, comment_ids, history_ids
		FROM verification_requests WHERE customer_id = $1
		ORDER BY created_at`, uuid.UUID(customerID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "list verification requests")
	}
	defer rows.Close()

	var out []models.VerificationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "scan verification request")
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountAssignedToOfficer(ctx context.Context, officerID id.UserID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM verification_requests
		WHERE officer_id = $1 AND status = $2`,
		uuid.UUID(officerID), string(models.StatusAssigned)).Scan(&count)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeDatabase, "count officer assignments")
	}
	return count, nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, requestID id.RequestID, status models.Status) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE verification_requests SET status = $2, updated_at = now()
		WHERE id = $1`, uuid.UUID(requestID), string(status))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDatabase, "set request status")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (models.VerificationRequest, error) {
	var (
		req        models.VerificationRequest
		reqID      uuid.UUID
		customerID uuid.UUID
		requestor  uuid.UUID
		officer    *uuid.UUID
		status     string
		docIDs     []uuid.UUID
		commentIDs []uuid.UUID
		historyIDs []uuid.UUID
	)
	err := row.Scan(&reqID, &customerID, &requestor, &officer, &status, &req.Reason,
		&req.CreatedAt, &req.UpdatedAt, &req.ApprovedAt, &req.RejectedAt,
		&docIDs, &commentIDs, &historyIDs)
	if err != nil {
		return models.VerificationRequest{}, err
	}

	req.ID = id.RequestID(reqID)
	req.CustomerID = id.CustomerID(customerID)
	req.RequestorID = id.UserID(requestor)
	if officer != nil {
		officerID := id.UserID(*officer)
		req.OfficerID = &officerID
	}
	req.Status = models.Status(status)
	for _, u := range docIDs {
		req.DocumentIDs = append(req.DocumentIDs, id.DocumentID(u))
	}
	for _, u := range commentIDs {
		req.CommentIDs = append(req.CommentIDs, id.CommentID(u))
	}
	for _, u := range historyIDs {
		req.HistoryIDs = append(req.HistoryIDs, id.HistoryID(u))
	}
	return req, nil
}

func officerValue(officerID *id.UserID) *uuid.UUID {
	if officerID == nil {
		return nil
	}
	u := uuid.UUID(*officerID)
	return &u
}

func documentUUIDs(ids []id.DocumentID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, v := range ids {
		out = append(out, uuid.UUID(v))
	}
	return out
}

func commentUUIDs(ids []id.CommentID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, v := range ids {
		out = append(out, uuid.UUID(v))
	}
	return out
}

func historyUUIDs(ids []id.HistoryID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, v := range ids {
		out = append(out, uuid.UUID(v))
	}
	return out
}
