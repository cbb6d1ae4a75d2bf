// Package models holds the verification workflow entities. The aggregate
// references its children by id only; child rows live in their own stores and
// are written exclusively by the ingestors.
package models

import (
	"slices"
	"time"

	id "veriflow/pkg/domain"
)

// VerificationRequest is the primary aggregate and the single source of truth
// for status. ApprovedAt/RejectedAt are set only on the matching transition.
type VerificationRequest struct {
	ID          id.RequestID   `json:"id"`
	CustomerID  id.CustomerID  `json:"customer_id"`
	RequestorID id.UserID      `json:"requestor_id"`
	OfficerID   *id.UserID     `json:"officer_id,omitempty"`
	Status      Status         `json:"status"`
	Reason      string         `json:"reason"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ApprovedAt  *time.Time     `json:"approved_at,omitempty"`
	RejectedAt  *time.Time     `json:"rejected_at,omitempty"`
	DocumentIDs []id.DocumentID `json:"document_ids"`
	CommentIDs  []id.CommentID  `json:"comment_ids"`
	HistoryIDs  []id.HistoryID  `json:"history_ids"`
}

// Clone returns a copy whose slice and pointer fields share no memory with
// the receiver, so callers can mutate the result without affecting stored
// state.
func (r VerificationRequest) Clone() VerificationRequest {
	out := r
	out.DocumentIDs = slices.Clone(r.DocumentIDs)
	out.CommentIDs = slices.Clone(r.CommentIDs)
	out.HistoryIDs = slices.Clone(r.HistoryIDs)
	if r.OfficerID != nil {
		officer := *r.OfficerID
		out.OfficerID = &officer
	}
	if r.ApprovedAt != nil {
		at := *r.ApprovedAt
		out.ApprovedAt = &at
	}
	if r.RejectedAt != nil {
		at := *r.RejectedAt
		out.RejectedAt = &at
	}
	return out
}

// StatusHistoryEntry records one accepted transition. FromStatus is nil only
// on the creation entry. Entries are ordered by ChangedAt at read time, not
// by arrival order.
type StatusHistoryEntry struct {
	ID         id.HistoryID `json:"id"`
	RequestID  id.RequestID `json:"verification_request_id"`
	FromStatus *Status      `json:"from_status,omitempty"`
	ToStatus   Status       `json:"to_status"`
	ChangedBy  id.UserID    `json:"changed_by"`
	Reason     *string      `json:"reason,omitempty"`
	ChangedAt  time.Time    `json:"changed_at"`
}

// CommentType distinguishes who a comment addresses.
type CommentType string

const (
	CommentTypeInternal CommentType = "INTERNAL"
	CommentTypeCustomer CommentType = "CUSTOMER"
)

// IsValid checks if the comment type is one of the supported values.
func (t CommentType) IsValid() bool {
	return t == CommentTypeInternal || t == CommentTypeCustomer
}

// Comment is a remark on a verification request. Updates and deletes arrive
// as events referencing the same id; the store resolves them against the
// existing row.
type Comment struct {
	ID        id.CommentID `json:"id"`
	RequestID id.RequestID `json:"verification_request_id"`
	AuthorID  id.UserID    `json:"author_id"`
	Text      string       `json:"text"`
	Type      CommentType  `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	Read      bool         `json:"read"`
	Edited    bool         `json:"edited"`
}

// Notification is a message in a user's inbox. The id is event-supplied so
// replays resolve to the same row instead of duplicating it.
type Notification struct {
	ID          id.NotificationID `json:"id"`
	RecipientID id.UserID         `json:"recipient_id"`
	RequestID   id.RequestID      `json:"verification_request_id"`
	Type        string            `json:"type"`
	Message     string            `json:"message"`
	CreatedAt   time.Time         `json:"created_at"`
	SentAt      time.Time         `json:"sent_at"`
	Read        bool              `json:"read"`
	ReadAt      *time.Time        `json:"read_at,omitempty"`
}

// AuditLogEntry is an immutable record of a state-changing action. The
// fingerprint is derived from event content and keys replay deduplication.
type AuditLogEntry struct {
	Fingerprint string    `json:"fingerprint"`
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id"`
	Action      string    `json:"action"`
	ActorID     string    `json:"actor_id"`
	ActorName   string    `json:"actor_name"`
	OldValue    string    `json:"old_value"`
	NewValue    string    `json:"new_value"`
	Timestamp   time.Time `json:"timestamp"`
}

// RequestLimit tracks the per-(customer, requestor, year) creation quota.
// Created lazily on the first request of a year, never decremented.
type RequestLimit struct {
	CustomerID            id.CustomerID `json:"customer_id"`
	RequestorID           id.UserID     `json:"requestor_id"`
	Year                  int           `json:"year"`
	RequestCount          int           `json:"request_count"`
	TotalCustomerRequests int           `json:"total_customer_requests"`
	MaxAllowed            int           `json:"max_allowed"`
}
