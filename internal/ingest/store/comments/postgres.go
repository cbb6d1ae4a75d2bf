package comments

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

// PostgresStore persists comments in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, comment models.Comment) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO comments
			(id, verification_request_id, author_id, text, comment_type, created_at, read, edited)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		uuid.UUID(comment.ID), uuid.UUID(comment.RequestID), uuid.UUID(comment.AuthorID),
		comment.Text, string(comment.Type), comment.CreatedAt, comment.Read, comment.Edited,
	)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeDatabase, "insert comment")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) UpdateText(ctx context.Context, commentID id.CommentID, text string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE comments SET text = $2, edited = TRUE WHERE id = $1`,
		uuid.UUID(commentID), text)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDatabase, "update comment text")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, commentID id.CommentID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, uuid.UUID(commentID))
	return dErrors.Wrap(err, dErrors.CodeDatabase, "delete comment")
}

func (s *PostgresStore) FindByID(ctx context.Context, commentID id.CommentID) (models.Comment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, verification_request_id, author_id, text, comment_type, created_at, read, edited
		FROM comments WHERE id = $1`, uuid.UUID(commentID))

	comment, err := scanComment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Comment{}, ErrNotFound
	}
	if err != nil {
		return models.Comment{}, dErrors.Wrap(err, dErrors.CodeDatabase, "find comment")
	}
	return comment, nil
}

func (s *PostgresStore) ListByRequest(ctx context.Context, requestID id.RequestID) ([]models.Comment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, verification_request_id, author_id, text, comment_type, created_at, read, edited
		FROM comments
		WHERE verification_request_id = $1
		ORDER BY created_at`, uuid.UUID(requestID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "list comments")
	}
	defer rows.Close()

	var out []models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "scan comment")
		}
		out = append(out, comment)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (models.Comment, error) {
	var (
		comment     models.Comment
		commentID   uuid.UUID
		requestID   uuid.UUID
		authorID    uuid.UUID
		commentType string
	)
	err := row.Scan(&commentID, &requestID, &authorID, &comment.Text, &commentType,
		&comment.CreatedAt, &comment.Read, &comment.Edited)
	if err != nil {
		return models.Comment{}, err
	}
	comment.ID = id.CommentID(commentID)
	comment.RequestID = id.RequestID(requestID)
	comment.AuthorID = id.UserID(authorID)
	comment.Type = models.CommentType(commentType)
	return comment, nil
}
