// Package events defines the typed domain events, their wire schemas, and
// the codec that moves them to and from flat JSON payloads. Schemas are
// explicit per event kind; nothing here relies on reflection.
package events

import (
	dErrors "veriflow/pkg/errors"
)

// Topic names one event family. Each topic maps to exactly one webhook and
// one ingestor.
type Topic string

const (
	TopicStatus        Topic = "verification.status"
	TopicComments      Topic = "verification.comments"
	TopicNotifications Topic = "verification.notifications"
	TopicAudit         Topic = "verification.audit"
)

// Topics lists every event family, in webhook registration order.
var Topics = []Topic{TopicStatus, TopicComments, TopicNotifications, TopicAudit}

// WebhookPath maps a topic to the webhook route that ingests it.
func (t Topic) WebhookPath() string {
	switch t {
	case TopicStatus:
		return "/webhooks/status"
	case TopicComments:
		return "/webhooks/comments"
	case TopicNotifications:
		return "/webhooks/notifications"
	case TopicAudit:
		return "/webhooks/audit"
	}
	return ""
}

// Event is a publishable domain event. Flatten produces the string-keyed
// payload that goes on the wire; Validate runs before publish and after
// decode so required fields never travel as empty strings.
type Event interface {
	Kind() string
	Topic() Topic
	// Key is the partition/idempotency key, usually the aggregate id.
	Key() string
	Flatten() map[string]string
	Validate() error
}

// CommentAction discriminates the three comment event kinds sharing one wire
// shape.
type CommentAction string

const (
	CommentActionCreated CommentAction = "CREATED"
	CommentActionUpdated CommentAction = "UPDATED"
	CommentActionDeleted CommentAction = "DELETED"
)

// IsValid checks if the action is one of the supported values.
func (a CommentAction) IsValid() bool {
	switch a {
	case CommentActionCreated, CommentActionUpdated, CommentActionDeleted:
		return true
	}
	return false
}

// StatusUpdateEvent describes one accepted status transition. ID doubles as
// the history row's idempotency key. FromStatus is empty only for the
// creation transition.
type StatusUpdateEvent struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"verificationRequestId"`
	FromStatus string    `json:"fromStatus,omitempty"`
	ToStatus   string    `json:"toStatus"`
	ChangedBy  string    `json:"changedBy"`
	Reason     string    `json:"reason,omitempty"`
	ChangedAt  Timestamp `json:"changedAt"`
}

func (e StatusUpdateEvent) Kind() string { return "status.updated" }
func (e StatusUpdateEvent) Topic() Topic { return TopicStatus }
func (e StatusUpdateEvent) Key() string  { return e.RequestID }

func (e StatusUpdateEvent) Flatten() map[string]string {
	return map[string]string{
		"id":                    e.ID,
		"verificationRequestId": e.RequestID,
		"fromStatus":            e.FromStatus,
		"toStatus":              e.ToStatus,
		"changedBy":             e.ChangedBy,
		"reason":                e.Reason,
		"changedAt":             e.ChangedAt.String(),
	}
}

func (e StatusUpdateEvent) Validate() error {
	switch {
	case e.RequestID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "status event requires verificationRequestId")
	case e.ToStatus == "":
		return dErrors.New(dErrors.CodeInvalidInput, "status event requires toStatus")
	case e.ChangedBy == "":
		return dErrors.New(dErrors.CodeInvalidInput, "status event requires changedBy")
	case e.ChangedAt.IsZero():
		return dErrors.New(dErrors.CodeInvalidInput, "status event requires changedAt")
	}
	return nil
}

// CommentEvent covers created, updated, and deleted comment actions with a
// single wire shape discriminated by commentAction.
type CommentEvent struct {
	Action    CommentAction `json:"commentAction"`
	CommentID string        `json:"commentId"`
	RequestID string        `json:"verificationRequestId"`
	AuthorID  string        `json:"authorId"`
	Text      string        `json:"text,omitempty"`
	Type      string        `json:"commentType,omitempty"`
	Timestamp Timestamp     `json:"timestamp"`
}

func (e CommentEvent) Kind() string {
	switch e.Action {
	case CommentActionUpdated:
		return "comment.updated"
	case CommentActionDeleted:
		return "comment.deleted"
	default:
		return "comment.created"
	}
}

func (e CommentEvent) Topic() Topic { return TopicComments }
func (e CommentEvent) Key() string  { return e.RequestID }

func (e CommentEvent) Flatten() map[string]string {
	return map[string]string{
		"commentAction":         string(e.Action),
		"commentId":             e.CommentID,
		"verificationRequestId": e.RequestID,
		"authorId":              e.AuthorID,
		"text":                  e.Text,
		"commentType":           e.Type,
		"timestamp":             e.Timestamp.String(),
	}
}

func (e CommentEvent) Validate() error {
	switch {
	case !e.Action.IsValid():
		return dErrors.Newf(dErrors.CodeInvalidInput, "comment event has unknown action %q", e.Action)
	case e.CommentID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "comment event requires commentId")
	case e.RequestID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "comment event requires verificationRequestId")
	case e.AuthorID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "comment event requires authorId")
	case e.Timestamp.IsZero():
		return dErrors.New(dErrors.CodeInvalidInput, "comment event requires timestamp")
	}
	if e.Action == CommentActionCreated && e.Text == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "comment created event requires text")
	}
	return nil
}

// NotificationCreatedEvent carries a pre-assigned notification id; the store
// must never mint its own, or replays duplicate inbox rows.
type NotificationCreatedEvent struct {
	NotificationID string    `json:"notificationId"`
	RecipientID    string    `json:"userId"`
	RequestID      string    `json:"verificationRequestId"`
	Type           string    `json:"notificationType"`
	Message        string    `json:"message"`
	CreatedAt      Timestamp `json:"createdAt"`
	SentAt         Timestamp `json:"sentAt"`
}

func (e NotificationCreatedEvent) Kind() string { return "notification.created" }
func (e NotificationCreatedEvent) Topic() Topic { return TopicNotifications }
func (e NotificationCreatedEvent) Key() string  { return e.RecipientID }

func (e NotificationCreatedEvent) Flatten() map[string]string {
	return map[string]string{
		"notificationId":        e.NotificationID,
		"userId":                e.RecipientID,
		"verificationRequestId": e.RequestID,
		"notificationType":      e.Type,
		"message":               e.Message,
		"createdAt":             e.CreatedAt.String(),
		"sentAt":                e.SentAt.String(),
	}
}

func (e NotificationCreatedEvent) Validate() error {
	switch {
	case e.NotificationID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "notification event requires notificationId")
	case e.RecipientID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "notification event requires userId")
	case e.RequestID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "notification event requires verificationRequestId")
	case e.Type == "":
		return dErrors.New(dErrors.CodeInvalidInput, "notification event requires notificationType")
	case e.Message == "":
		return dErrors.New(dErrors.CodeInvalidInput, "notification event requires message")
	case e.CreatedAt.IsZero():
		return dErrors.New(dErrors.CodeInvalidInput, "notification event requires createdAt")
	case e.SentAt.IsZero():
		return dErrors.New(dErrors.CodeInvalidInput, "notification event requires sentAt")
	}
	return nil
}

// AuditLogCreatedEvent carries no pre-assigned identity. The ingestor derives
// a deterministic fingerprint from its content to dedupe replays.
type AuditLogCreatedEvent struct {
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Action     string    `json:"action"`
	ActorID    string    `json:"userId,omitempty"`
	ActorName  string    `json:"username,omitempty"`
	OldValue   string    `json:"oldValue,omitempty"`
	NewValue   string    `json:"newValue,omitempty"`
	Timestamp  Timestamp `json:"timestamp"`
}

func (e AuditLogCreatedEvent) Kind() string { return "audit.created" }
func (e AuditLogCreatedEvent) Topic() Topic { return TopicAudit }
func (e AuditLogCreatedEvent) Key() string  { return e.EntityID }

func (e AuditLogCreatedEvent) Flatten() map[string]string {
	return map[string]string{
		"entityType": e.EntityType,
		"entityId":   e.EntityID,
		"action":     e.Action,
		"userId":     e.ActorID,
		"username":   e.ActorName,
		"oldValue":   e.OldValue,
		"newValue":   e.NewValue,
		"timestamp":  e.Timestamp.String(),
	}
}

func (e AuditLogCreatedEvent) Validate() error {
	switch {
	case e.EntityType == "":
		return dErrors.New(dErrors.CodeInvalidInput, "audit event requires entityType")
	case e.EntityID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "audit event requires entityId")
	case e.Action == "":
		return dErrors.New(dErrors.CodeInvalidInput, "audit event requires action")
	case e.Timestamp.IsZero():
		return dErrors.New(dErrors.CodeInvalidInput, "audit event requires timestamp")
	}
	return nil
}
