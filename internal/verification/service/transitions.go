package service

import (
	"context"
	"strings"

	"veriflow/internal/events"
	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

// UpdateStatus applies an officer decision: APPROVED, REJECTED, or SENT_BACK.
// Approval is reserved for the assigned officer; rejection and send-back
// require a reason. Terminal requests reject every further transition.
func (s *Service) UpdateStatus(ctx context.Context, requestID id.RequestID, to models.Status, actorID id.UserID, reason string) (*models.VerificationRequest, error) {
	if !to.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown status %q", to)
	}
	reason = strings.TrimSpace(reason)
	if to.RequiresReason() && reason == "" {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "transition to %s requires a reason", to)
	}

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransitionTo(to) {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot transition from %s to %s", req.Status, to)
	}
	if to == models.StatusApproved {
		if req.OfficerID == nil || *req.OfficerID != actorID {
			return nil, dErrors.New(dErrors.CodeInvalidTransition,
				"only the assigned officer can approve")
		}
	}

	return s.transition(ctx, req, to, actorID, reason)
}

// Resubmit moves a SENT_BACK request to PENDING after the customer supplied
// the missing information. The previously assigned officer is detached; the
// request re-enters the assignment pool.
func (s *Service) Resubmit(ctx context.Context, requestID id.RequestID, actorID id.UserID) (*models.VerificationRequest, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.StatusSentBack {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot resubmit a request in status %s", req.Status)
	}
	if actorID != req.RequestorID {
		return nil, dErrors.New(dErrors.CodeInvalidTransition,
			"only the requestor of record can resubmit")
	}
	req.OfficerID = nil
	return s.transition(ctx, req, models.StatusPending, actorID, "")
}

// transition persists an already-validated status change and emits the
// status, audit, and notification events for it.
func (s *Service) transition(ctx context.Context, req models.VerificationRequest, to models.Status, actorID id.UserID, reason string) (*models.VerificationRequest, error) {
	now := s.now()
	from := req.Status
	req.Status = to
	req.UpdatedAt = now
	switch to {
	case models.StatusApproved:
		req.ApprovedAt = &now
	case models.StatusRejected:
		req.RejectedAt = &now
	}
	historyID := id.NewHistoryID()
	req.HistoryIDs = append(req.HistoryIDs, historyID)

	if err := s.requests.Save(ctx, req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "save verification request")
	}
	s.logger.InfoContext(ctx, "status changed",
		"request_id", req.ID,
		"from", from,
		"to", to,
		"actor_id", actorID,
	)

	s.emit(ctx, events.StatusUpdateEvent{
		ID:         historyID.String(),
		RequestID:  req.ID.String(),
		FromStatus: string(from),
		ToStatus:   string(to),
		ChangedBy:  actorID.String(),
		Reason:     reason,
		ChangedAt:  events.NewTimestamp(now),
	})
	s.emitAudit(ctx, req.ID, actorID, "STATUS_"+string(to), string(from), string(to), now)
	s.notify(ctx, req.RequestorID, req.ID, NotificationStatusChanged,
		statusMessage(to, reason), now)

	return &req, nil
}

func statusMessage(to models.Status, reason string) string {
	switch to {
	case models.StatusApproved:
		return "Your verification request was approved."
	case models.StatusRejected:
		return "Your verification request was rejected: " + reason
	case models.StatusSentBack:
		return "More information is needed: " + reason
	case models.StatusPending:
		return "Your verification request was resubmitted and awaits assignment."
	}
	return "Your verification request status changed to " + string(to) + "."
}
