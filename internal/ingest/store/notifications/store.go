// Package notifications persists the notification inbox read-model. Rows are
// keyed by the event-supplied id; the store never mints its own, or replays
// would duplicate inbox entries.
package notifications

import (
	"context"
	"time"

	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

// ErrNotFound keeps store-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "notification not found")

// Store is the persistence contract for notifications.
type Store interface {
	// Insert writes the notification unless its id already exists; inserted
	// reports whether a new row was created.
	Insert(ctx context.Context, notification models.Notification) (inserted bool, err error)
	FindByID(ctx context.Context, notificationID id.NotificationID) (models.Notification, error)
	// ListByRecipient returns a user's inbox ordered by created-at descending.
	ListByRecipient(ctx context.Context, recipientID id.UserID) ([]models.Notification, error)
	// MarkRead sets the read flag and read-at time.
	MarkRead(ctx context.Context, notificationID id.NotificationID, readAt time.Time) error
}
