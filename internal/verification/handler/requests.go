package handler

import (
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

// CreateRequestBody is the payload for POST /requests.
type CreateRequestBody struct {
	CustomerID  string `json:"customerId"`
	RequestorID string `json:"requestorId"`
	Reason      string `json:"reason,omitempty"`
}

func (b CreateRequestBody) Parse() (id.CustomerID, id.UserID, error) {
	customerID, err := id.ParseCustomerID(b.CustomerID)
	if err != nil {
		return id.CustomerID{}, id.UserID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "customerId")
	}
	requestorID, err := id.ParseUserID(b.RequestorID)
	if err != nil {
		return id.CustomerID{}, id.UserID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "requestorId")
	}
	return customerID, requestorID, nil
}

// AssignOfficerBody is the payload for POST /requests/{id}/assign. Explicit
// marks a deliberate choice of officer, which bypasses the workload guard.
type AssignOfficerBody struct {
	OfficerID string `json:"officerId"`
	ActorID   string `json:"actorId"`
	Explicit  bool   `json:"explicit,omitempty"`
}

// UpdateStatusBody is the payload for POST /requests/{id}/status.
type UpdateStatusBody struct {
	Status  string `json:"status"`
	ActorID string `json:"actorId"`
	Reason  string `json:"reason,omitempty"`
}

// ResubmitBody is the payload for POST /requests/{id}/resubmit.
type ResubmitBody struct {
	ActorID string `json:"actorId"`
}

// AddCommentBody is the payload for POST /requests/{id}/comments.
type AddCommentBody struct {
	AuthorID string `json:"authorId"`
	Text     string `json:"text"`
	Type     string `json:"commentType,omitempty"`
}

// EditCommentBody is the payload for PUT /requests/{id}/comments/{commentId}.
type EditCommentBody struct {
	ActorID string `json:"actorId"`
	Text    string `json:"text"`
}

// SendNotificationBody is the payload for POST /requests/{id}/notifications.
type SendNotificationBody struct {
	RecipientID string `json:"recipientId"`
	Type        string `json:"notificationType"`
	Message     string `json:"message"`
}
