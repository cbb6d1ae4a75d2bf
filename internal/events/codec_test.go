package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "veriflow/pkg/errors"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"no fraction with zone", "2024-03-15T10:30:00Z"},
		{"three digits", "2024-03-15T10:30:00.123Z"},
		{"six digits", "2024-03-15T10:30:00.123456Z"},
		{"nine digits", "2024-03-15T10:30:00.123456789Z"},
		{"offset zone", "2024-03-15T10:30:00.5+02:00"},
		{"no zone no fraction", "2024-03-15T10:30:00"},
		{"no zone with fraction", "2024-03-15T10:30:00.123456"},
		{"single digit fraction", "2024-03-15T10:30:00.1Z"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts, err := ParseTimestamp(tc.input)
			require.NoError(t, err)
			assert.Equal(t, 2024, ts.Year())
			assert.Equal(t, time.March, ts.Month())
		})
	}

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseTimestamp("yesterday at noon")
		require.Error(t, err)
	})
}

func TestMarshal(t *testing.T) {
	changedAt, err := ParseTimestamp("2024-03-15T10:30:00.123Z")
	require.NoError(t, err)

	t.Run("flattens to string-keyed payload", func(t *testing.T) {
		e := StatusUpdateEvent{
			ID:         "6a1b8e2e-0000-4000-8000-000000000001",
			RequestID:  "6a1b8e2e-0000-4000-8000-000000000002",
			FromStatus: "PENDING",
			ToStatus:   "ASSIGNED",
			ChangedBy:  "6a1b8e2e-0000-4000-8000-000000000003",
			ChangedAt:  changedAt,
		}

		raw, err := Marshal(e)
		require.NoError(t, err)

		var payload map[string]string
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, "ASSIGNED", payload["toStatus"])
		assert.Equal(t, e.RequestID, payload["verificationRequestId"])
		// Empty optionals are dropped from the wire shape.
		_, hasReason := payload["reason"]
		assert.False(t, hasReason)
	})

	t.Run("rejects event missing required fields", func(t *testing.T) {
		e := StatusUpdateEvent{ToStatus: "ASSIGNED", ChangedAt: changedAt}
		_, err := Marshal(e)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestDecodeStatusUpdate(t *testing.T) {
	t.Run("tolerates unknown fields", func(t *testing.T) {
		raw := []byte(`{
			"id": "6a1b8e2e-0000-4000-8000-000000000001",
			"verificationRequestId": "6a1b8e2e-0000-4000-8000-000000000002",
			"fromStatus": "PENDING",
			"toStatus": "ASSIGNED",
			"changedBy": "6a1b8e2e-0000-4000-8000-000000000003",
			"changedAt": "2024-03-15T10:30:00.123456Z",
			"someFutureField": {"nested": true}
		}`)

		e, err := DecodeStatusUpdate(raw)
		require.NoError(t, err)
		assert.Equal(t, "ASSIGNED", e.ToStatus)
		assert.Equal(t, "PENDING", e.FromStatus)
	})

	t.Run("accepts zone-free timestamps", func(t *testing.T) {
		raw := []byte(`{
			"id": "6a1b8e2e-0000-4000-8000-000000000001",
			"verificationRequestId": "6a1b8e2e-0000-4000-8000-000000000002",
			"toStatus": "PENDING",
			"changedBy": "6a1b8e2e-0000-4000-8000-000000000003",
			"changedAt": "2024-03-15T10:30:00"
		}`)

		e, err := DecodeStatusUpdate(raw)
		require.NoError(t, err)
		assert.False(t, e.ChangedAt.IsZero())
	})

	t.Run("unparseable body is malformed", func(t *testing.T) {
		_, err := DecodeStatusUpdate([]byte(`{not json`))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedPayload))
	})

	t.Run("missing required field is malformed", func(t *testing.T) {
		raw := []byte(`{"toStatus": "ASSIGNED", "changedAt": "2024-03-15T10:30:00Z"}`)
		_, err := DecodeStatusUpdate(raw)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedPayload))
	})
}

func TestDecodeComment(t *testing.T) {
	t.Run("created requires text", func(t *testing.T) {
		raw := []byte(`{
			"commentAction": "CREATED",
			"commentId": "6a1b8e2e-0000-4000-8000-000000000001",
			"verificationRequestId": "6a1b8e2e-0000-4000-8000-000000000002",
			"authorId": "6a1b8e2e-0000-4000-8000-000000000003",
			"timestamp": "2024-03-15T10:30:00Z"
		}`)
		_, err := DecodeComment(raw)
		require.Error(t, err)
	})

	t.Run("deleted needs no text", func(t *testing.T) {
		raw := []byte(`{
			"commentAction": "DELETED",
			"commentId": "6a1b8e2e-0000-4000-8000-000000000001",
			"verificationRequestId": "6a1b8e2e-0000-4000-8000-000000000002",
			"authorId": "6a1b8e2e-0000-4000-8000-000000000003",
			"timestamp": "2024-03-15T10:30:00Z"
		}`)
		e, err := DecodeComment(raw)
		require.NoError(t, err)
		assert.Equal(t, CommentActionDeleted, e.Action)
		assert.Equal(t, "comment.deleted", e.Kind())
	})

	t.Run("unknown action rejected", func(t *testing.T) {
		raw := []byte(`{
			"commentAction": "ARCHIVED",
			"commentId": "6a1b8e2e-0000-4000-8000-000000000001",
			"verificationRequestId": "6a1b8e2e-0000-4000-8000-000000000002",
			"authorId": "6a1b8e2e-0000-4000-8000-000000000003",
			"timestamp": "2024-03-15T10:30:00Z"
		}`)
		_, err := DecodeComment(raw)
		require.Error(t, err)
	})
}

func TestRoundTrip(t *testing.T) {
	sentAt, err := ParseTimestamp("2024-03-15T10:30:01Z")
	require.NoError(t, err)

	e := NotificationCreatedEvent{
		NotificationID: "6a1b8e2e-0000-4000-8000-000000000001",
		RecipientID:    "6a1b8e2e-0000-4000-8000-000000000002",
		RequestID:      "6a1b8e2e-0000-4000-8000-000000000003",
		Type:           "REQUEST_ASSIGNED",
		Message:        "a request was assigned to you",
		CreatedAt:      sentAt,
		SentAt:         sentAt,
	}

	raw, err := Marshal(e)
	require.NoError(t, err)

	got, err := DecodeNotificationCreated(raw)
	require.NoError(t, err)
	assert.Equal(t, e.NotificationID, got.NotificationID)
	assert.Equal(t, e.Message, got.Message)
	assert.True(t, e.SentAt.Equal(got.SentAt.Time))
}
