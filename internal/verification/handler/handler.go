// Package handler exposes the verification workflow over HTTP. Write routes
// delegate to the workflow service; read routes for history, comments,
// notifications, and audit go straight to the ingest stores.
package handler

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veriflow/internal/ingest/store/auditlog"
	"veriflow/internal/ingest/store/comments"
	"veriflow/internal/ingest/store/history"
	"veriflow/internal/ingest/store/notifications"
	"veriflow/internal/verification/models"
	"veriflow/internal/verification/service"
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
	"veriflow/pkg/httputil"
)

// Documents larger than this are rejected before touching the store.
const maxDocumentBytes = 16 << 20

// timeNow is swapped in tests.
var timeNow = time.Now

// Handler wires the workflow routes.
type Handler struct {
	workflow      *service.Service
	history       history.Store
	comments      comments.Store
	notifications notifications.Store
	audit         auditlog.Store
	logger        *slog.Logger
}

func New(
	workflow *service.Service,
	historyStore history.Store,
	commentStore comments.Store,
	notificationStore notifications.Store,
	auditStore auditlog.Store,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		workflow:      workflow,
		history:       historyStore,
		comments:      commentStore,
		notifications: notificationStore,
		audit:         auditStore,
		logger:        logger,
	}
}

// Register mounts the workflow routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/requests", func(r chi.Router) {
		r.Post("/", h.handleCreateRequest)
		r.Route("/{requestID}", func(r chi.Router) {
			r.Get("/", h.handleGetRequest)
			r.Post("/assign", h.handleAssignOfficer)
			r.Post("/status", h.handleUpdateStatus)
			r.Post("/resubmit", h.handleResubmit)
			r.Post("/documents", h.handleAttachDocument)
			r.Get("/history", h.handleListHistory)
			r.Get("/comments", h.handleListComments)
			r.Post("/comments", h.handleAddComment)
			r.Put("/comments/{commentID}", h.handleEditComment)
			r.Delete("/comments/{commentID}", h.handleDeleteComment)
			r.Post("/notifications", h.handleSendNotification)
		})
	})
	r.Get("/customers/{customerID}/requests", h.handleListByCustomer)
	r.Get("/users/{userID}/notifications", h.handleListNotifications)
	r.Patch("/notifications/{notificationID}/read", h.handleMarkNotificationRead)
	r.Get("/audit/{entityType}/{entityID}", h.handleListAudit)
}

func requestIDParam(r *http.Request) (id.RequestID, error) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		return id.RequestID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "request id")
	}
	return requestID, nil
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	body, ok := httputil.DecodeAndPrepare[CreateRequestBody](w, r, h.logger)
	if !ok {
		return
	}
	customerID, requestorID, err := body.Parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, err := h.workflow.CreateRequest(r.Context(), service.CreateRequestParams{
		CustomerID:  customerID,
		RequestorID: requestorID,
		Reason:      body.Reason,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := h.workflow.GetRequest(r.Context(), requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) handleListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := id.ParseCustomerID(chi.URLParam(r, "customerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "customer id"))
		return
	}
	requests, err := h.workflow.ListRequestsByCustomer(r.Context(), customerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if requests == nil {
		requests = []models.VerificationRequest{}
	}
	httputil.WriteJSON(w, http.StatusOK, requests)
}

func (h *Handler) handleAssignOfficer(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[AssignOfficerBody](w, r, h.logger)
	if !ok {
		return
	}
	officerID, err := id.ParseUserID(body.OfficerID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "officerId"))
		return
	}
	actorID, err := id.ParseUserID(body.ActorID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "actorId"))
		return
	}

	req, err := h.workflow.AssignOfficer(r.Context(), requestID, officerID, actorID, body.Explicit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[UpdateStatusBody](w, r, h.logger)
	if !ok {
		return
	}
	actorID, err := id.ParseUserID(body.ActorID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "actorId"))
		return
	}

	req, err := h.workflow.UpdateStatus(r.Context(), requestID, models.Status(body.Status), actorID, body.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) handleResubmit(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[ResubmitBody](w, r, h.logger)
	if !ok {
		return
	}
	actorID, err := id.ParseUserID(body.ActorID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "actorId"))
		return
	}

	req, err := h.workflow.Resubmit(r.Context(), requestID, actorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) handleAttachDocument(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	content, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "read document body"))
		return
	}

	docID, err := h.workflow.AttachDocument(r.Context(), requestID, content)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"documentId": docID.String()})
}

func (h *Handler) handleListHistory(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.history.ListByRequest(r.Context(), requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []models.StatusHistoryEntry{}
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.comments.ListByRequest(r.Context(), requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if list == nil {
		list = []models.Comment{}
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[AddCommentBody](w, r, h.logger)
	if !ok {
		return
	}
	authorID, err := id.ParseUserID(body.AuthorID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "authorId"))
		return
	}
	commentType := models.CommentType(body.Type)
	if body.Type == "" {
		commentType = models.CommentTypeInternal
	}

	commentID, err := h.workflow.AddComment(r.Context(), requestID, authorID, body.Text, commentType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"commentId": commentID.String()})
}

func (h *Handler) handleEditComment(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	commentID, err := id.ParseCommentID(chi.URLParam(r, "commentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "comment id"))
		return
	}
	body, ok := httputil.DecodeAndPrepare[EditCommentBody](w, r, h.logger)
	if !ok {
		return
	}
	actorID, err := id.ParseUserID(body.ActorID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "actorId"))
		return
	}

	if err := h.workflow.EditComment(r.Context(), requestID, commentID, actorID, body.Text); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	commentID, err := id.ParseCommentID(chi.URLParam(r, "commentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "comment id"))
		return
	}
	actorID, err := id.ParseUserID(r.URL.Query().Get("actorId"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "actorId"))
		return
	}

	if err := h.workflow.DeleteComment(r.Context(), requestID, commentID, actorID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSendNotification(w http.ResponseWriter, r *http.Request) {
	requestID, err := requestIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[SendNotificationBody](w, r, h.logger)
	if !ok {
		return
	}
	recipientID, err := id.ParseUserID(body.RecipientID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "recipientId"))
		return
	}

	notificationID, err := h.workflow.SendNotification(r.Context(), recipientID, requestID, body.Type, body.Message)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"notificationId": notificationID.String()})
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "user id"))
		return
	}
	inbox, err := h.notifications.ListByRecipient(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if inbox == nil {
		inbox = []models.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, inbox)
}

func (h *Handler) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "notification id"))
		return
	}
	if err := h.notifications.MarkRead(r.Context(), notificationID, timeNow()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	entityID := chi.URLParam(r, "entityID")
	entries, err := h.audit.ListByEntity(r.Context(), entityType, entityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}
