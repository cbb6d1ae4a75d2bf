// Package comments persists the comment read-model. The comment ingestor is
// the only writer. Creates are keyed by the event's comment id; updates and
// deletes must resolve against an existing id, never create one.
package comments

import (
	"context"

	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

// ErrNotFound keeps store-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "comment not found")

// Store is the persistence contract for comments.
type Store interface {
	// Insert writes the comment unless its id already exists; inserted
	// reports whether a new row was created.
	Insert(ctx context.Context, comment models.Comment) (inserted bool, err error)
	// UpdateText replaces the text of an existing comment and marks it
	// edited. A missing id is ErrNotFound, not an implicit create.
	UpdateText(ctx context.Context, commentID id.CommentID, text string) error
	// Delete removes the comment. Deleting an absent id is a no-op.
	Delete(ctx context.Context, commentID id.CommentID) error
	FindByID(ctx context.Context, commentID id.CommentID) (models.Comment, error)
	// ListByRequest returns comments ordered by created-at ascending.
	ListByRequest(ctx context.Context, requestID id.RequestID) ([]models.Comment, error)
}
