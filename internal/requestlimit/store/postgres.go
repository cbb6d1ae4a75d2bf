package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"veriflow/internal/verification/models"
	dErrors "veriflow/pkg/errors"
)

// PostgresStore keeps counters in PostgreSQL and relies on a conditional
// upsert for atomicity: the increment only lands when the stored count is
// still below max, so concurrent transactions serialize on the row lock.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key Key) (*models.RequestLimit, error) {
	row := s.db.QueryRow(ctx, `
		SELECT l.request_count, l.max_allowed, COALESCE(t.total, 0)
		FROM request_limits l
		LEFT JOIN customer_request_totals t
		  ON t.customer_id = l.customer_id AND t.year = l.year
		WHERE l.customer_id = $1 AND l.requestor_id = $2 AND l.year = $3`,
		uuid.UUID(key.CustomerID), uuid.UUID(key.RequestorID), key.Year)

	limit := &models.RequestLimit{
		CustomerID:  key.CustomerID,
		RequestorID: key.RequestorID,
		Year:        key.Year,
	}
	err := row.Scan(&limit.RequestCount, &limit.MaxAllowed, &limit.TotalCustomerRequests)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "read limit counter")
	}
	return limit, nil
}

func (s *PostgresStore) Reserve(ctx context.Context, key Key, max int) (*models.RequestLimit, bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeDatabase, "begin reserve")
	}
	defer tx.Rollback(ctx)

	var count int
	err = tx.QueryRow(ctx, `
		INSERT INTO request_limits (customer_id, requestor_id, year, request_count, max_allowed)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (customer_id, requestor_id, year) DO UPDATE
		SET request_count = request_limits.request_count + 1
		WHERE request_limits.request_count < $4
		RETURNING request_count`,
		uuid.UUID(key.CustomerID), uuid.UUID(key.RequestorID), key.Year, max).Scan(&count)

	if errors.Is(err, pgx.ErrNoRows) {
		// Condition failed: counter already at max.
		limit, getErr := s.Get(ctx, key)
		if getErr != nil {
			return nil, false, getErr
		}
		return limit, false, nil
	}
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeDatabase, "reserve limit counter")
	}

	var total int
	err = tx.QueryRow(ctx, `
		INSERT INTO customer_request_totals (customer_id, year, total)
		VALUES ($1, $2, 1)
		ON CONFLICT (customer_id, year) DO UPDATE
		SET total = customer_request_totals.total + 1
		RETURNING total`,
		uuid.UUID(key.CustomerID), key.Year).Scan(&total)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeDatabase, "bump customer total")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeDatabase, "commit reserve")
	}

	return &models.RequestLimit{
		CustomerID:            key.CustomerID,
		RequestorID:           key.RequestorID,
		Year:                  key.Year,
		RequestCount:          count,
		TotalCustomerRequests: total,
		MaxAllowed:            max,
	}, true, nil
}
