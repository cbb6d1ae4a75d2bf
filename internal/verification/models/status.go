package models

import (
	dErrors "veriflow/pkg/errors"
)

// Status enumerates the verification-request states.
type Status string

const (
	// StatusPending: created, no officer attached yet.
	StatusPending Status = "PENDING"
	// StatusAssigned: a reviewing officer has been attached.
	StatusAssigned Status = "ASSIGNED"
	// StatusApproved: terminal, request accepted.
	StatusApproved Status = "APPROVED"
	// StatusRejected: terminal, request declined.
	StatusRejected Status = "REJECTED"
	// StatusSentBack: officer requested more information from the customer.
	StatusSentBack Status = "SENT_BACK"
)

// ParseStatus validates a status string coming off the wire.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown status %q", s)
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusApproved, StatusRejected, StatusSentBack:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are accepted.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// String returns the string representation.
func (s Status) String() string {
	return string(s)
}

// transitions is the closed set of legal status moves. Creation (no prior
// status -> PENDING) is handled separately since it has no from-state.
var transitions = map[Status][]Status{
	StatusPending:  {StatusAssigned},
	StatusAssigned: {StatusApproved, StatusRejected, StatusSentBack},
	StatusSentBack: {StatusPending},
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// RequiresReason reports whether a transition into this status must carry a
// free-text reason.
func (s Status) RequiresReason() bool {
	return s == StatusRejected || s == StatusSentBack
}
