package ingest

import (
	"context"
	"errors"
	"log/slog"

	"veriflow/internal/events"
	"veriflow/internal/ingest/store/comments"
	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

// CommentIngestor maintains the comment read-model. Created is an idempotent
// insert keyed by the event's comment id; updated requires an existing row;
// deleted tolerates replays of an already-removed comment.
type CommentIngestor struct {
	comments comments.Store
	logger   *slog.Logger
}

func NewCommentIngestor(commentStore comments.Store, logger *slog.Logger) *CommentIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentIngestor{comments: commentStore, logger: logger}
}

func (i *CommentIngestor) Topic() events.Topic { return events.TopicComments }

func (i *CommentIngestor) Apply(ctx context.Context, payload []byte) error {
	e, err := events.DecodeComment(payload)
	if err != nil {
		return err
	}

	commentID, err := id.ParseCommentID(e.CommentID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedPayload, "comment event commentId")
	}
	requestID, err := id.ParseRequestID(e.RequestID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedPayload, "comment event request id")
	}
	authorID, err := id.ParseUserID(e.AuthorID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedPayload, "comment event authorId")
	}

	switch e.Action {
	case events.CommentActionCreated:
		commentType := models.CommentType(e.Type)
		if e.Type == "" {
			commentType = models.CommentTypeInternal
		}
		if !commentType.IsValid() {
			return dErrors.Newf(dErrors.CodeMalformedPayload, "comment event has unknown type %q", e.Type)
		}
		inserted, err := i.comments.Insert(ctx, models.Comment{
			ID:        commentID,
			RequestID: requestID,
			AuthorID:  authorID,
			Text:      e.Text,
			Type:      commentType,
			CreatedAt: e.Timestamp.Time,
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeDatabase, "insert comment")
		}
		if !inserted {
			i.logger.DebugContext(ctx, "comment created event replayed", "comment_id", commentID)
		}
		return nil

	case events.CommentActionUpdated:
		if err := i.comments.UpdateText(ctx, commentID, e.Text); err != nil {
			if errors.Is(err, comments.ErrNotFound) {
				return dErrors.Newf(dErrors.CodeNotFound, "comment %s not found for update", commentID)
			}
			return dErrors.Wrap(err, dErrors.CodeDatabase, "update comment")
		}
		return nil

	case events.CommentActionDeleted:
		if err := i.comments.Delete(ctx, commentID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeDatabase, "delete comment")
		}
		return nil
	}
	return dErrors.Newf(dErrors.CodeMalformedPayload, "comment event has unknown action %q", e.Action)
}
