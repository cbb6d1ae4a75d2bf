// Package service orchestrates the verification workflow: request creation
// behind the yearly quota, officer assignment behind the workload guard, and
// the status state machine. Every accepted write emits domain events; the
// service never writes the secondary stores directly.
package service

import (
	"context"
	"log/slog"
	"time"

	"veriflow/internal/directory"
	"veriflow/internal/docstore"
	"veriflow/internal/events"
	"veriflow/internal/events/publisher"
	"veriflow/internal/platform/metrics"
	"veriflow/internal/requestlimit"
	"veriflow/internal/verification/models"
	"veriflow/internal/verification/store"
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

// Notification types emitted by the workflow.
const (
	NotificationRequestCreated  = "REQUEST_CREATED"
	NotificationOfficerAssigned = "OFFICER_ASSIGNED"
	NotificationStatusChanged   = "STATUS_CHANGED"
)

const auditEntityRequest = "VerificationRequest"

// Service owns the primary aggregate. Reads of history, comments,
// notifications, and audit rows go through the ingest stores, which this
// service feeds only via events.
type Service struct {
	requests      store.Store
	limits        *requestlimit.Service
	publisher     publisher.Publisher
	users         directory.Directory
	documents     docstore.Store
	metrics       *metrics.Metrics
	logger        *slog.Logger
	workloadLimit int
	now           func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithDocuments(docs docstore.Store) Option {
	return func(s *Service) {
		s.documents = docs
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(requests store.Store, limits *requestlimit.Service, pub publisher.Publisher, users directory.Directory, workloadLimit int, opts ...Option) (*Service, error) {
	if requests == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "request store is required")
	}
	if limits == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "request limit service is required")
	}
	if pub == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "event publisher is required")
	}
	if users == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "user directory is required")
	}
	if workloadLimit < 1 {
		return nil, dErrors.Newf(dErrors.CodeInternal, "officer workload limit must be at least 1, got %d", workloadLimit)
	}
	s := &Service{
		requests:      requests,
		limits:        limits,
		publisher:     pub,
		users:         users,
		workloadLimit: workloadLimit,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateRequestParams carries the caller-supplied fields for a new request.
type CreateRequestParams struct {
	CustomerID  id.CustomerID
	RequestorID id.UserID
	Reason      string
}

// CreateRequest reserves a quota slot and persists a new PENDING request.
// The reserved slot is not returned when the request is later rejected.
func (s *Service) CreateRequest(ctx context.Context, params CreateRequestParams) (*models.VerificationRequest, error) {
	if params.CustomerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "customer id is required")
	}
	if params.RequestorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "requestor id is required")
	}
	if _, err := s.users.FindByID(ctx, params.RequestorID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "unknown requestor")
	}

	if _, err := s.limits.Reserve(ctx, params.CustomerID, params.RequestorID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeLimitExceeded) && s.metrics != nil {
			s.metrics.RequestsRejected.WithLabelValues("limit_exceeded").Inc()
		}
		return nil, err
	}

	now := s.now()
	req := models.VerificationRequest{
		ID:          id.NewRequestID(),
		CustomerID:  params.CustomerID,
		RequestorID: params.RequestorID,
		Status:      models.StatusPending,
		Reason:      params.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	historyID := id.NewHistoryID()
	req.HistoryIDs = append(req.HistoryIDs, historyID)

	if err := s.requests.Save(ctx, req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "save verification request")
	}
	if s.metrics != nil {
		s.metrics.RequestsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "verification request created",
		"request_id", req.ID,
		"customer_id", req.CustomerID,
		"requestor_id", req.RequestorID,
	)

	s.emit(ctx, events.StatusUpdateEvent{
		ID:        historyID.String(),
		RequestID: req.ID.String(),
		ToStatus:  string(models.StatusPending),
		ChangedBy: req.RequestorID.String(),
		ChangedAt: events.NewTimestamp(now),
	})
	s.emitAudit(ctx, req.ID, req.RequestorID, "CREATED", "", string(models.StatusPending), now)
	s.notify(ctx, req.RequestorID, req.ID, NotificationRequestCreated,
		"Verification request submitted and awaiting assignment.", now)

	return &req, nil
}

// AssignOfficer moves a PENDING request to ASSIGNED. An explicitly chosen
// officer bypasses the workload guard; otherwise assignment fails once the
// officer already reviews a full plate of open requests.
func (s *Service) AssignOfficer(ctx context.Context, requestID id.RequestID, officerID id.UserID, actorID id.UserID, explicit bool) (*models.VerificationRequest, error) {
	if officerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "officer id is required")
	}
	officer, err := s.users.FindByID(ctx, officerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "unknown officer")
	}
	if officer.Role != directory.RoleOfficer {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "user %s is not a reviewing officer", officerID)
	}

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransitionTo(models.StatusAssigned) {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot assign a request in status %s", req.Status)
	}
	if !explicit {
		open, err := s.requests.CountAssignedToOfficer(ctx, officerID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "count officer workload")
		}
		if open >= s.workloadLimit {
			return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
				"officer %s already has %d open requests", officerID, open)
		}
	}

	now := s.now()
	from := req.Status
	req.OfficerID = &officerID
	req.Status = models.StatusAssigned
	req.UpdatedAt = now
	historyID := id.NewHistoryID()
	req.HistoryIDs = append(req.HistoryIDs, historyID)

	if err := s.requests.Save(ctx, req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "save verification request")
	}
	s.logger.InfoContext(ctx, "officer assigned",
		"request_id", req.ID,
		"officer_id", officerID,
		"explicit", explicit,
	)

	s.emit(ctx, events.StatusUpdateEvent{
		ID:         historyID.String(),
		RequestID:  req.ID.String(),
		FromStatus: string(from),
		ToStatus:   string(models.StatusAssigned),
		ChangedBy:  actorID.String(),
		ChangedAt:  events.NewTimestamp(now),
	})
	s.emitAudit(ctx, req.ID, actorID, "ASSIGNED", string(from), string(models.StatusAssigned), now)
	s.notify(ctx, officerID, req.ID, NotificationOfficerAssigned,
		"A verification request was assigned to you for review.", now)

	return &req, nil
}

// GetRequest returns the aggregate by id.
func (s *Service) GetRequest(ctx context.Context, requestID id.RequestID) (*models.VerificationRequest, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListRequestsByCustomer returns every request filed for the customer.
func (s *Service) ListRequestsByCustomer(ctx context.Context, customerID id.CustomerID) ([]models.VerificationRequest, error) {
	if customerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "customer id is required")
	}
	return s.requests.ListByCustomer(ctx, customerID)
}

// AttachDocument stores the document content and links it to the request.
func (s *Service) AttachDocument(ctx context.Context, requestID id.RequestID, content []byte) (id.DocumentID, error) {
	if s.documents == nil {
		return id.DocumentID{}, dErrors.New(dErrors.CodeInternal, "document store is not configured")
	}
	if len(content) == 0 {
		return id.DocumentID{}, dErrors.New(dErrors.CodeInvalidInput, "document content must not be empty")
	}
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return id.DocumentID{}, err
	}
	if req.Status.IsTerminal() {
		return id.DocumentID{}, dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot attach documents to a request in status %s", req.Status)
	}

	docID := id.NewDocumentID()
	if err := s.documents.Put(ctx, docID, content); err != nil {
		return id.DocumentID{}, dErrors.Wrap(err, dErrors.CodeInternal, "store document")
	}
	req.DocumentIDs = append(req.DocumentIDs, docID)
	req.UpdatedAt = s.now()
	if err := s.requests.Save(ctx, req); err != nil {
		return id.DocumentID{}, dErrors.Wrap(err, dErrors.CodeDatabase, "save verification request")
	}
	return docID, nil
}

// emit publishes fire-and-forget. Transport failures surface through the
// publisher's own logging and metrics, never through the caller's write path.
func (s *Service) emit(ctx context.Context, e events.Event) {
	s.publisher.Publish(ctx, e)
}

func (s *Service) emitAudit(ctx context.Context, requestID id.RequestID, actorID id.UserID, action, oldValue, newValue string, at time.Time) {
	actorName := ""
	if u, err := s.users.FindByID(ctx, actorID); err == nil {
		actorName = u.Name
	}
	s.emit(ctx, events.AuditLogCreatedEvent{
		EntityType: auditEntityRequest,
		EntityID:   requestID.String(),
		Action:     action,
		ActorID:    actorID.String(),
		ActorName:  actorName,
		OldValue:   oldValue,
		NewValue:   newValue,
		Timestamp:  events.NewTimestamp(at),
	})
}

func (s *Service) notify(ctx context.Context, recipientID id.UserID, requestID id.RequestID, kind, message string, at time.Time) {
	s.emit(ctx, events.NotificationCreatedEvent{
		NotificationID: id.NewNotificationID().String(),
		RecipientID:    recipientID.String(),
		RequestID:      requestID.String(),
		Type:           kind,
		Message:        message,
		CreatedAt:      events.NewTimestamp(at),
		SentAt:         events.NewTimestamp(at),
	})
}
