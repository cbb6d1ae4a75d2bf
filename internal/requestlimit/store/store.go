// Package store persists the per-(customer, requestor, year) request-creation
// counters. Reserve is the only mutation and must be atomic: a plain
// read-then-write admits a lost-update race that lets the quota be exceeded
// under concurrent creation attempts.
package store

import (
	"context"
	"fmt"

	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
)

// Key identifies one counter.
type Key struct {
	CustomerID  id.CustomerID
	RequestorID id.UserID
	Year        int
}

// String renders the key for redis and log output.
func (k Key) String() string {
	return fmt.Sprintf("limit:%s:%s:%d", k.CustomerID, k.RequestorID, k.Year)
}

// customerKey is the customer-year total counter's redis key.
func (k Key) CustomerTotalKey() string {
	return fmt.Sprintf("limit-total:%s:%d", k.CustomerID, k.Year)
}

// Store is the persistence contract for request limits.
type Store interface {
	// Get returns the counter, or nil when no request was created yet for
	// the key's year.
	Get(ctx context.Context, key Key) (*models.RequestLimit, error)
	// Reserve atomically increments the counter if it is below max, also
	// bumping the customer-year total. allowed reports whether the
	// reservation was granted; the returned limit reflects the state after
	// the call either way.
	Reserve(ctx context.Context, key Key, max int) (limit *models.RequestLimit, allowed bool, err error)
}
