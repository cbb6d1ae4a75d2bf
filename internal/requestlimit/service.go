// Package requestlimit gates verification-request creation behind the
// per-(customer, requestor, year) quota.
package requestlimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"veriflow/internal/requestlimit/store"
	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

// Store is the counter persistence contract.
type Store = store.Store

// Service owns the quota decisions. The accept path goes through Reserve,
// which is atomic in every store implementation.
type Service struct {
	store      Store
	maxAllowed int
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the wall clock, used by tests pinning the year.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs the limit service.
func New(store Store, maxAllowed int, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("limit store is required")
	}
	if maxAllowed < 1 {
		return nil, fmt.Errorf("max allowed requests must be positive, got %d", maxAllowed)
	}

	svc := &Service{
		store:      store,
		maxAllowed: maxAllowed,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *Service) key(customerID id.CustomerID, requestorID id.UserID) store.Key {
	return store.Key{
		CustomerID:  customerID,
		RequestorID: requestorID,
		Year:        s.now().Year(),
	}
}

// CanCreate reports whether the pair is still under its yearly quota. It is
// advisory only: the accept path must call Reserve, which re-checks
// atomically.
func (s *Service) CanCreate(ctx context.Context, customerID id.CustomerID, requestorID id.UserID) (bool, error) {
	limit, err := s.store.Get(ctx, s.key(customerID, requestorID))
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeDatabase, "read request limit")
	}
	if limit == nil {
		return true, nil
	}
	return limit.RequestCount < s.maxAllowed, nil
}

// Reserve consumes one creation slot, failing with LimitExceeded when the
// quota is exhausted. The counter is never decremented, including for
// requests that later get rejected.
func (s *Service) Reserve(ctx context.Context, customerID id.CustomerID, requestorID id.UserID) (*models.RequestLimit, error) {
	key := s.key(customerID, requestorID)
	limit, allowed, err := s.store.Reserve(ctx, key, s.maxAllowed)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "reserve request limit")
	}
	if !allowed {
		s.logger.InfoContext(ctx, "request creation denied by quota",
			"customer_id", customerID,
			"requestor_id", requestorID,
			"year", key.Year,
			"count", limit.RequestCount,
			"max", s.maxAllowed,
		)
		return limit, dErrors.Newf(dErrors.CodeLimitExceeded,
			"request limit of %d reached for year %d", s.maxAllowed, key.Year)
	}
	return limit, nil
}

// Usage returns the current counter state, nil when untouched this year.
func (s *Service) Usage(ctx context.Context, customerID id.CustomerID, requestorID id.UserID) (*models.RequestLimit, error) {
	limit, err := s.store.Get(ctx, s.key(customerID, requestorID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "read request limit")
	}
	return limit, nil
}
