// Package domain holds typed identifiers for the verification workflow.
// Distinct uuid-backed types keep request, customer, and actor IDs from
// being swapped at call sites; the compiler enforces the distinction.
package domain

import (
	"github.com/google/uuid"

	dErrors "veriflow/pkg/errors"
)

type (
	// RequestID identifies a verification request, the primary aggregate.
	RequestID uuid.UUID
	// CustomerID identifies the customer whose documents are under review.
	CustomerID uuid.UUID
	// UserID identifies any acting party: requestor, officer, or commenter.
	UserID uuid.UUID
	// CommentID identifies a comment on a verification request.
	CommentID uuid.UUID
	// NotificationID identifies a notification; it is event-supplied, never
	// store-generated, so replays resolve to the same row.
	NotificationID uuid.UUID
	// HistoryID identifies a status-history entry; doubles as the status
	// event's idempotency key.
	HistoryID uuid.UUID
	// DocumentID references a stored document blob.
	DocumentID uuid.UUID
)

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid id format")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil uuid")
	}
	return u, nil
}

func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s)
	return RequestID(u), err
}

func ParseCustomerID(s string) (CustomerID, error) {
	u, err := parseUUID(s)
	return CustomerID(u), err
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

func ParseCommentID(s string) (CommentID, error) {
	u, err := parseUUID(s)
	return CommentID(u), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s)
	return NotificationID(u), err
}

func ParseHistoryID(s string) (HistoryID, error) {
	u, err := parseUUID(s)
	return HistoryID(u), err
}

func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s)
	return DocumentID(u), err
}

func NewRequestID() RequestID           { return RequestID(uuid.New()) }
func NewCustomerID() CustomerID         { return CustomerID(uuid.New()) }
func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewCommentID() CommentID           { return CommentID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }
func NewHistoryID() HistoryID           { return HistoryID(uuid.New()) }
func NewDocumentID() DocumentID         { return DocumentID(uuid.New()) }

func (id RequestID) String() string      { return uuid.UUID(id).String() }
func (id CustomerID) String() string     { return uuid.UUID(id).String() }
func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id CommentID) String() string      { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id HistoryID) String() string      { return uuid.UUID(id).String() }
func (id DocumentID) String() string     { return uuid.UUID(id).String() }

func (id RequestID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CustomerID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id CommentID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id HistoryID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// The defined types do not inherit uuid.UUID's text marshalling, so each one
// implements it explicitly; without this they would encode as byte arrays.

func (id RequestID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id CustomerID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id CommentID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id NotificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id HistoryID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id DocumentID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }

func (id *RequestID) UnmarshalText(b []byte) error {
	parsed, err := ParseRequestID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *CustomerID) UnmarshalText(b []byte) error {
	parsed, err := ParseCustomerID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *CommentID) UnmarshalText(b []byte) error {
	parsed, err := ParseCommentID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *NotificationID) UnmarshalText(b []byte) error {
	parsed, err := ParseNotificationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *HistoryID) UnmarshalText(b []byte) error {
	parsed, err := ParseHistoryID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *DocumentID) UnmarshalText(b []byte) error {
	parsed, err := ParseDocumentID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
