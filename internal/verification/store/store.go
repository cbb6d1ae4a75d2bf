// Package store persists verification requests, the primary aggregate.
// Stores are interface-driven so the service and the status ingestor can run
// against in-memory or Postgres persistence without rewiring.
package store

import (
	"context"

	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

// ErrNotFound keeps store-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "verification request not found")

// Store is the persistence contract for verification requests.
type Store interface {
	Save(ctx context.Context, req models.VerificationRequest) error
	FindByID(ctx context.Context, requestID id.RequestID) (models.VerificationRequest, error)
	ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]models.VerificationRequest, error)
	// CountAssignedToOfficer counts a reviewing officer's open assignments;
	// the assignment guard reads this as the officer's workload.
	CountAssignedToOfficer(ctx context.Context, officerID id.UserID) (int, error)
	// SetStatus refreshes the cached current-status field from the status
	// history's latest entry. It is the only request mutation the status
	// ingestor performs.
	SetStatus(ctx context.Context, requestID id.RequestID, status models.Status) error
}
