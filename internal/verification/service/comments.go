package service

import (
	"context"
	"strings"

	"veriflow/internal/events"
	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

// AddComment links a new comment id to the request and emits the created
// event. The comment row itself is written by the ingestor, not here.
func (s *Service) AddComment(ctx context.Context, requestID id.RequestID, authorID id.UserID, text string, commentType models.CommentType) (id.CommentID, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return id.CommentID{}, dErrors.New(dErrors.CodeInvalidInput, "comment text must not be empty")
	}
	if !commentType.IsValid() {
		return id.CommentID{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown comment type %q", commentType)
	}
	if _, err := s.users.FindByID(ctx, authorID); err != nil {
		return id.CommentID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "unknown author")
	}

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return id.CommentID{}, err
	}

	now := s.now()
	commentID := id.NewCommentID()
	req.CommentIDs = append(req.CommentIDs, commentID)
	req.UpdatedAt = now
	if err := s.requests.Save(ctx, req); err != nil {
		return id.CommentID{}, dErrors.Wrap(err, dErrors.CodeDatabase, "save verification request")
	}

	s.emit(ctx, events.CommentEvent{
		Action:    events.CommentActionCreated,
		CommentID: commentID.String(),
		RequestID: req.ID.String(),
		AuthorID:  authorID.String(),
		Text:      text,
		Type:      string(commentType),
		Timestamp: events.NewTimestamp(now),
	})
	s.emitAudit(ctx, req.ID, authorID, "COMMENT_ADDED", "", commentID.String(), now)

	return commentID, nil
}

// EditComment emits an updated event for a comment already linked to the
// request. The aggregate itself does not change.
func (s *Service) EditComment(ctx context.Context, requestID id.RequestID, commentID id.CommentID, actorID id.UserID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "comment text must not be empty")
	}

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return err
	}
	if !hasComment(req, commentID) {
		return dErrors.Newf(dErrors.CodeNotFound, "comment %s does not belong to request %s", commentID, requestID)
	}

	s.emit(ctx, events.CommentEvent{
		Action:    events.CommentActionUpdated,
		CommentID: commentID.String(),
		RequestID: req.ID.String(),
		AuthorID:  actorID.String(),
		Text:      text,
		Timestamp: events.NewTimestamp(s.now()),
	})
	return nil
}

// DeleteComment unlinks the comment from the request and emits the deleted
// event. Deleting an already-deleted comment is rejected here, while the
// ingestor stays tolerant of replayed delete events.
func (s *Service) DeleteComment(ctx context.Context, requestID id.RequestID, commentID id.CommentID, actorID id.UserID) error {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return err
	}
	if !hasComment(req, commentID) {
		return dErrors.Newf(dErrors.CodeNotFound, "comment %s does not belong to request %s", commentID, requestID)
	}

	kept := req.CommentIDs[:0]
	for _, cid := range req.CommentIDs {
		if cid != commentID {
			kept = append(kept, cid)
		}
	}
	req.CommentIDs = kept
	now := s.now()
	req.UpdatedAt = now
	if err := s.requests.Save(ctx, req); err != nil {
		return dErrors.Wrap(err, dErrors.CodeDatabase, "save verification request")
	}

	s.emit(ctx, events.CommentEvent{
		Action:    events.CommentActionDeleted,
		CommentID: commentID.String(),
		RequestID: req.ID.String(),
		AuthorID:  actorID.String(),
		Timestamp: events.NewTimestamp(now),
	})
	s.emitAudit(ctx, req.ID, actorID, "COMMENT_DELETED", commentID.String(), "", now)
	return nil
}

// SendNotification emits a notification event outside the automatic workflow
// notifications, for officer-initiated messages.
func (s *Service) SendNotification(ctx context.Context, recipientID id.UserID, requestID id.RequestID, kind, message string) (id.NotificationID, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return id.NotificationID{}, dErrors.New(dErrors.CodeInvalidInput, "notification message must not be empty")
	}
	if kind == "" {
		return id.NotificationID{}, dErrors.New(dErrors.CodeInvalidInput, "notification type must not be empty")
	}
	if _, err := s.users.FindByID(ctx, recipientID); err != nil {
		return id.NotificationID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "unknown recipient")
	}
	if _, err := s.requests.FindByID(ctx, requestID); err != nil {
		return id.NotificationID{}, err
	}

	now := s.now()
	notificationID := id.NewNotificationID()
	s.emit(ctx, events.NotificationCreatedEvent{
		NotificationID: notificationID.String(),
		RecipientID:    recipientID.String(),
		RequestID:      requestID.String(),
		Type:           kind,
		Message:        message,
		CreatedAt:      events.NewTimestamp(now),
		SentAt:         events.NewTimestamp(now),
	})
	return notificationID, nil
}

func hasComment(req models.VerificationRequest, commentID id.CommentID) bool {
	for _, cid := range req.CommentIDs {
		if cid == commentID {
			return true
		}
	}
	return false
}
