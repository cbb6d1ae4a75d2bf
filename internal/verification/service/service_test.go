package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"veriflow/internal/directory"
	"veriflow/internal/docstore"
	"veriflow/internal/events"
	"veriflow/internal/events/publisher"
	"veriflow/internal/requestlimit"
	limitstore "veriflow/internal/requestlimit/store"
	"veriflow/internal/verification/models"
	"veriflow/internal/verification/store"
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

const maxPerYear = 5
const workloadLimit = 2

type WorkflowServiceSuite struct {
	suite.Suite
	requests *store.InMemoryStore
	recorder *publisher.Recorder
	service  *Service

	customer  id.CustomerID
	requestor id.UserID
	officer   id.UserID
}

func TestWorkflowServiceSuite(t *testing.T) {
	suite.Run(t, new(WorkflowServiceSuite))
}

func (s *WorkflowServiceSuite) SetupTest() {
	s.requests = store.NewInMemoryStore()
	s.recorder = publisher.NewRecorder()

	s.customer = id.CustomerID(uuid.MustParse("11111111-1111-4111-8111-111111111111"))
	s.requestor = id.UserID(uuid.MustParse("22222222-2222-4222-8222-222222222222"))
	s.officer = id.UserID(uuid.MustParse("33333333-3333-4333-8333-333333333333"))

	users := directory.NewInMemoryDirectory(
		directory.User{ID: s.requestor, Name: "Rita Requestor", Role: directory.RoleRequestor},
		directory.User{ID: s.officer, Name: "Omar Officer", Role: directory.RoleOfficer},
	)

	limits, err := requestlimit.New(limitstore.NewInMemoryStore(), maxPerYear)
	s.Require().NoError(err)

	s.service, err = New(
		s.requests,
		limits,
		publisher.NewSync(s.recorder),
		users,
		workloadLimit,
		WithDocuments(docstore.NewInMemoryStore()),
		WithClock(func() time.Time {
			return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
		}),
	)
	s.Require().NoError(err)
}

func (s *WorkflowServiceSuite) create() *models.VerificationRequest {
	req, err := s.service.CreateRequest(context.Background(), CreateRequestParams{
		CustomerID:  s.customer,
		RequestorID: s.requestor,
		Reason:      "onboarding check",
	})
	s.Require().NoError(err)
	return req
}

func (s *WorkflowServiceSuite) assign(req *models.VerificationRequest) *models.VerificationRequest {
	assigned, err := s.service.AssignOfficer(context.Background(), req.ID, s.officer, s.officer, false)
	s.Require().NoError(err)
	return assigned
}

func (s *WorkflowServiceSuite) lastStatusEvent() events.StatusUpdateEvent {
	sent := s.recorder.SentTo(events.TopicStatus)
	s.Require().NotEmpty(sent)
	var e events.StatusUpdateEvent
	s.Require().NoError(json.Unmarshal(sent[len(sent)-1].Payload, &e))
	return e
}

func (s *WorkflowServiceSuite) TestNew() {
	s.Run("nil request store returns error", func() {
		_, err := New(nil, s.service.limits, publisher.NewSync(s.recorder), s.service.users, workloadLimit)
		s.Error(err)
	})

	s.Run("non-positive workload limit returns error", func() {
		_, err := New(s.requests, s.service.limits, publisher.NewSync(s.recorder), s.service.users, 0)
		s.Error(err)
	})
}

func (s *WorkflowServiceSuite) TestCreateRequest() {
	ctx := context.Background()

	s.Run("creates a pending request with a creation history entry", func() {
		req := s.create()

		s.Equal(models.StatusPending, req.Status)
		s.Nil(req.OfficerID)
		s.Len(req.HistoryIDs, 1)

		stored, err := s.requests.FindByID(ctx, req.ID)
		s.NoError(err)
		s.Equal(models.StatusPending, stored.Status)

		e := s.lastStatusEvent()
		s.Equal(req.ID.String(), e.RequestID)
		s.Empty(e.FromStatus)
		s.Equal(string(models.StatusPending), e.ToStatus)
		s.Equal(s.requestor.String(), e.ChangedBy)

		s.Len(s.recorder.SentTo(events.TopicAudit), 1)
		s.Len(s.recorder.SentTo(events.TopicNotifications), 1)
	})

	s.Run("unknown requestor is rejected", func() {
		_, err := s.service.CreateRequest(ctx, CreateRequestParams{
			CustomerID:  s.customer,
			RequestorID: id.NewUserID(),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("exhausted quota is rejected and nothing is persisted", func() {
		for i := 1; i < maxPerYear; i++ {
			s.create()
		}
		before, err := s.requests.ListByCustomer(ctx, s.customer)
		s.Require().NoError(err)

		_, err = s.service.CreateRequest(ctx, CreateRequestParams{
			CustomerID:  s.customer,
			RequestorID: s.requestor,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeLimitExceeded))

		after, err := s.requests.ListByCustomer(ctx, s.customer)
		s.NoError(err)
		s.Len(after, len(before))
	})
}

func (s *WorkflowServiceSuite) TestAssignOfficer() {
	ctx := context.Background()

	s.Run("assigns an officer to a pending request", func() {
		req := s.assign(s.create())

		s.Equal(models.StatusAssigned, req.Status)
		s.Require().NotNil(req.OfficerID)
		s.Equal(s.officer, *req.OfficerID)

		e := s.lastStatusEvent()
		s.Equal(string(models.StatusPending), e.FromStatus)
		s.Equal(string(models.StatusAssigned), e.ToStatus)
	})

	s.Run("rejects a non-officer assignee", func() {
		req := s.create()
		_, err := s.service.AssignOfficer(ctx, req.ID, s.requestor, s.officer, false)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects assignment of an already assigned request", func() {
		req := s.assign(s.create())
		_, err := s.service.AssignOfficer(ctx, req.ID, s.officer, s.officer, false)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("workload guard blocks automatic assignment but not explicit choice", func() {
		for i := 0; i < workloadLimit; i++ {
			s.assign(s.create())
		}
		req := s.create()

		_, err := s.service.AssignOfficer(ctx, req.ID, s.officer, s.officer, false)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		assigned, err := s.service.AssignOfficer(ctx, req.ID, s.officer, s.officer, true)
		s.NoError(err)
		s.Equal(models.StatusAssigned, assigned.Status)
	})
}

func (s *WorkflowServiceSuite) TestUpdateStatus() {
	ctx := context.Background()

	s.Run("assigned officer approves", func() {
		req := s.assign(s.create())

		approved, err := s.service.UpdateStatus(ctx, req.ID, models.StatusApproved, s.officer, "")
		s.NoError(err)
		s.Equal(models.StatusApproved, approved.Status)
		s.NotNil(approved.ApprovedAt)
	})

	s.Run("only the assigned officer can approve", func() {
		req := s.assign(s.create())

		_, err := s.service.UpdateStatus(ctx, req.ID, models.StatusApproved, s.requestor, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("rejection without a reason is invalid input", func() {
		req := s.assign(s.create())

		_, err := s.service.UpdateStatus(ctx, req.ID, models.StatusRejected, s.officer, "  ")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejection with a reason stamps rejectedAt", func() {
		req := s.assign(s.create())

		rejected, err := s.service.UpdateStatus(ctx, req.ID, models.StatusRejected, s.officer, "document expired")
		s.NoError(err)
		s.Equal(models.StatusRejected, rejected.Status)
		s.NotNil(rejected.RejectedAt)
		s.Equal("document expired", s.lastStatusEvent().Reason)
	})

	s.Run("terminal requests reject further transitions", func() {
		req := s.assign(s.create())
		_, err := s.service.UpdateStatus(ctx, req.ID, models.StatusApproved, s.officer, "")
		s.Require().NoError(err)

		_, err = s.service.UpdateStatus(ctx, req.ID, models.StatusSentBack, s.officer, "more docs")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *WorkflowServiceSuite) TestResubmit() {
	ctx := context.Background()

	s.Run("sent back request returns to pending without an officer", func() {
		req := s.assign(s.create())
		_, err := s.service.UpdateStatus(ctx, req.ID, models.StatusSentBack, s.officer, "missing passport scan")
		s.Require().NoError(err)

		resubmitted, err := s.service.Resubmit(ctx, req.ID, s.requestor)
		s.NoError(err)
		s.Equal(models.StatusPending, resubmitted.Status)
		s.Nil(resubmitted.OfficerID)
	})

	s.Run("resubmit from any other status is rejected", func() {
		req := s.create()
		_, err := s.service.Resubmit(ctx, req.ID, s.requestor)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("only the requestor of record can resubmit", func() {
		req := s.assign(s.create())
		_, err := s.service.UpdateStatus(ctx, req.ID, models.StatusSentBack, s.officer, "missing passport scan")
		s.Require().NoError(err)

		_, err = s.service.Resubmit(ctx, req.ID, s.officer)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		unchanged, err := s.service.GetRequest(ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusSentBack, unchanged.Status)
	})
}

func (s *WorkflowServiceSuite) TestComments() {
	ctx := context.Background()

	s.Run("add links the comment and emits created", func() {
		req := s.create()
		commentID, err := s.service.AddComment(ctx, req.ID, s.officer, "please upload page two", models.CommentTypeCustomer)
		s.NoError(err)

		stored, err := s.requests.FindByID(ctx, req.ID)
		s.NoError(err)
		s.Contains(stored.CommentIDs, commentID)
		s.Len(s.recorder.SentTo(events.TopicComments), 1)
	})

	s.Run("empty text is rejected", func() {
		req := s.create()
		_, err := s.service.AddComment(ctx, req.ID, s.officer, "   ", models.CommentTypeInternal)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("edit of a foreign comment id is not found", func() {
		req := s.create()
		err := s.service.EditComment(ctx, req.ID, id.NewCommentID(), s.officer, "edited")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("delete unlinks and is not repeatable", func() {
		req := s.create()
		commentID, err := s.service.AddComment(ctx, req.ID, s.officer, "temp note", models.CommentTypeInternal)
		s.Require().NoError(err)

		s.NoError(s.service.DeleteComment(ctx, req.ID, commentID, s.officer))

		stored, err := s.requests.FindByID(ctx, req.ID)
		s.NoError(err)
		s.NotContains(stored.CommentIDs, commentID)

		err = s.service.DeleteComment(ctx, req.ID, commentID, s.officer)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *WorkflowServiceSuite) TestSendNotification() {
	ctx := context.Background()
	req := s.create()

	notificationID, err := s.service.SendNotification(ctx, s.requestor, req.ID, "REMINDER", "please respond")
	s.NoError(err)
	s.False(notificationID.IsNil())

	sent := s.recorder.SentTo(events.TopicNotifications)
	s.Require().NotEmpty(sent)
	var e events.NotificationCreatedEvent
	s.Require().NoError(json.Unmarshal(sent[len(sent)-1].Payload, &e))
	s.Equal(notificationID.String(), e.NotificationID)
	s.Equal("REMINDER", e.Type)
}

func (s *WorkflowServiceSuite) TestAttachDocument() {
	ctx := context.Background()

	s.Run("stores content and links the id", func() {
		req := s.create()
		docID, err := s.service.AttachDocument(ctx, req.ID, []byte("passport scan"))
		s.NoError(err)

		stored, err := s.requests.FindByID(ctx, req.ID)
		s.NoError(err)
		s.Contains(stored.DocumentIDs, docID)
	})

	s.Run("terminal request rejects attachments", func() {
		req := s.assign(s.create())
		_, err := s.service.UpdateStatus(ctx, req.ID, models.StatusApproved, s.officer, "")
		s.Require().NoError(err)

		_, err = s.service.AttachDocument(ctx, req.ID, []byte("late"))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

// TestFullLifecycle walks the whole send-back loop: create, assign, send
// back, resubmit, reassign, approve. Every hop lands in the status topic in
// order.
func (s *WorkflowServiceSuite) TestFullLifecycle() {
	ctx := context.Background()

	req := s.assign(s.create())
	_, err := s.service.UpdateStatus(ctx, req.ID, models.StatusSentBack, s.officer, "blurry scan")
	s.Require().NoError(err)
	_, err = s.service.Resubmit(ctx, req.ID, s.requestor)
	s.Require().NoError(err)
	req = s.assign(req)
	final, err := s.service.UpdateStatus(ctx, req.ID, models.StatusApproved, s.officer, "")
	s.Require().NoError(err)

	s.Equal(models.StatusApproved, final.Status)
	s.Len(final.HistoryIDs, 6)

	var hops []string
	for _, m := range s.recorder.SentTo(events.TopicStatus) {
		var e events.StatusUpdateEvent
		s.Require().NoError(json.Unmarshal(m.Payload, &e))
		hops = append(hops, e.ToStatus)
	}
	s.Equal([]string{"PENDING", "ASSIGNED", "SENT_BACK", "PENDING", "ASSIGNED", "APPROVED"}, hops)
}
