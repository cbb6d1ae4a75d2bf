package events

import (
	"encoding/json"

	dErrors "veriflow/pkg/errors"
)

// Marshal validates an event and encodes its flattened payload as JSON.
// Flattening is lossy for nested values, which is acceptable here: every
// payload is a flat DTO.
func Marshal(e Event) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	payload := e.Flatten()
	// Drop empty optional fields so the wire shape stays minimal.
	for k, v := range payload {
		if v == "" {
			delete(payload, k)
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode event payload")
	}
	return data, nil
}

// decode unmarshals raw JSON into a typed event. Unknown fields are ignored
// for forward compatibility; a body that fails to parse is a malformed
// payload, and a body that parses but misses required fields fails the
// event's own validation.
func decode[T Event](raw []byte) (T, error) {
	var e T
	if err := json.Unmarshal(raw, &e); err != nil {
		return e, dErrors.Wrap(err, dErrors.CodeMalformedPayload, "decode event payload")
	}
	if err := e.Validate(); err != nil {
		return e, dErrors.Wrap(err, dErrors.CodeMalformedPayload, "event failed validation")
	}
	return e, nil
}

// DecodeStatusUpdate parses a raw status event body.
func DecodeStatusUpdate(raw []byte) (StatusUpdateEvent, error) {
	return decode[StatusUpdateEvent](raw)
}

// DecodeComment parses a raw comment event body.
func DecodeComment(raw []byte) (CommentEvent, error) {
	return decode[CommentEvent](raw)
}

// DecodeNotificationCreated parses a raw notification event body.
func DecodeNotificationCreated(raw []byte) (NotificationCreatedEvent, error) {
	return decode[NotificationCreatedEvent](raw)
}

// DecodeAuditLogCreated parses a raw audit event body.
func DecodeAuditLogCreated(raw []byte) (AuditLogCreatedEvent, error) {
	return decode[AuditLogCreatedEvent](raw)
}
