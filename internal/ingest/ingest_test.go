package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veriflow/internal/events"
	"veriflow/internal/ingest/store/auditlog"
	"veriflow/internal/ingest/store/comments"
	"veriflow/internal/ingest/store/history"
	"veriflow/internal/ingest/store/notifications"
	"veriflow/internal/verification/models"
	"veriflow/internal/verification/store"
	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

func seedRequest(t *testing.T, requests *store.InMemoryStore) models.VerificationRequest {
	t.Helper()
	req := models.VerificationRequest{
		ID:          id.NewRequestID(),
		CustomerID:  id.NewCustomerID(),
		RequestorID: id.NewUserID(),
		Status:      models.StatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, requests.Save(context.Background(), req))
	return req
}

func mustMarshal(t *testing.T, e events.Event) []byte {
	t.Helper()
	payload, err := events.Marshal(e)
	require.NoError(t, err)
	return payload
}

func TestStatusIngestor(t *testing.T) {
	ctx := context.Background()

	newFixture := func(t *testing.T) (*StatusIngestor, *history.InMemoryStore, *store.InMemoryStore, models.VerificationRequest) {
		requests := store.NewInMemoryStore()
		hist := history.NewInMemoryStore()
		return NewStatusIngestor(hist, requests, nil), hist, requests, seedRequest(t, requests)
	}

	statusEvent := func(req models.VerificationRequest, from, to string, at time.Time) events.StatusUpdateEvent {
		return events.StatusUpdateEvent{
			ID:         id.NewHistoryID().String(),
			RequestID:  req.ID.String(),
			FromStatus: from,
			ToStatus:   to,
			ChangedBy:  req.RequestorID.String(),
			ChangedAt:  events.NewTimestamp(at),
		}
	}

	t.Run("writes history and refreshes request status", func(t *testing.T) {
		ing, hist, requests, req := newFixture(t)
		now := time.Now().UTC()

		err := ing.Apply(ctx, mustMarshal(t, statusEvent(req, "PENDING", "ASSIGNED", now)))
		require.NoError(t, err)

		entries, err := hist.ListByRequest(ctx, req.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, models.StatusAssigned, entries[0].ToStatus)

		stored, err := requests.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAssigned, stored.Status)
	})

	t.Run("replay of the same event leaves one row", func(t *testing.T) {
		ing, hist, _, req := newFixture(t)
		payload := mustMarshal(t, statusEvent(req, "PENDING", "ASSIGNED", time.Now().UTC()))

		require.NoError(t, ing.Apply(ctx, payload))
		require.NoError(t, ing.Apply(ctx, payload))

		entries, err := hist.ListByRequest(ctx, req.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("redelivery repairs the status after a partial first apply", func(t *testing.T) {
		requests := store.NewInMemoryStore()
		hist := history.NewInMemoryStore()
		ing := NewStatusIngestor(hist, requests, nil)

		req := models.VerificationRequest{
			ID:          id.NewRequestID(),
			CustomerID:  id.NewCustomerID(),
			RequestorID: id.NewUserID(),
			Status:      models.StatusPending,
		}
		payload := mustMarshal(t, statusEvent(req, "PENDING", "ASSIGNED", time.Now().UTC()))

		// First delivery inserts the history row but the status write fails
		// because the request row is not there yet.
		err := ing.Apply(ctx, payload)
		require.True(t, dErrors.HasCode(err, dErrors.CodeDatabase))

		require.NoError(t, requests.Save(ctx, req))
		require.NoError(t, ing.Apply(ctx, payload))

		entries, err := hist.ListByRequest(ctx, req.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 1)

		stored, err := requests.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAssigned, stored.Status)
	})

	t.Run("late delivery of an older event does not regress the status", func(t *testing.T) {
		ing, _, requests, req := newFixture(t)
		now := time.Now().UTC()

		require.NoError(t, ing.Apply(ctx, mustMarshal(t, statusEvent(req, "ASSIGNED", "APPROVED", now))))
		require.NoError(t, ing.Apply(ctx, mustMarshal(t, statusEvent(req, "PENDING", "ASSIGNED", now.Add(-time.Minute)))))

		stored, err := requests.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, stored.Status)
	})

	t.Run("concurrent deliveries settle on the latest entry", func(t *testing.T) {
		ing, _, requests, req := newFixture(t)
		now := time.Now().UTC()

		older := mustMarshal(t, statusEvent(req, "PENDING", "ASSIGNED", now))
		newer := mustMarshal(t, statusEvent(req, "ASSIGNED", "APPROVED", now.Add(time.Second)))

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			payload := older
			if i%2 == 0 {
				payload = newer
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, ing.Apply(ctx, payload))
			}()
		}
		wg.Wait()

		stored, err := requests.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, stored.Status)
	})

	t.Run("unknown request id fails", func(t *testing.T) {
		ing, _, _, req := newFixture(t)
		e := statusEvent(req, "", "PENDING", time.Now().UTC())
		e.RequestID = id.NewRequestID().String()

		err := ing.Apply(ctx, mustMarshal(t, e))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDatabase))
	})

	t.Run("malformed body is reported as such", func(t *testing.T) {
		ing, _, _, _ := newFixture(t)
		err := ing.Apply(ctx, []byte(`{"toStatus":`))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedPayload))
	})

	t.Run("unknown status value is a malformed payload", func(t *testing.T) {
		ing, _, _, req := newFixture(t)
		err := ing.Apply(ctx, mustMarshal(t, statusEvent(req, "", "SHIPPED", time.Now().UTC())))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedPayload))
	})
}

func TestCommentIngestor(t *testing.T) {
	ctx := context.Background()

	newFixture := func() (*CommentIngestor, *comments.InMemoryStore) {
		cs := comments.NewInMemoryStore()
		return NewCommentIngestor(cs, nil), cs
	}

	commentEvent := func(action events.CommentAction, commentID id.CommentID, text string) events.CommentEvent {
		return events.CommentEvent{
			Action:    action,
			CommentID: commentID.String(),
			RequestID: id.NewRequestID().String(),
			AuthorID:  id.NewUserID().String(),
			Text:      text,
			Type:      string(models.CommentTypeInternal),
			Timestamp: events.NewTimestamp(time.Now().UTC()),
		}
	}

	t.Run("created inserts once across replays", func(t *testing.T) {
		ing, cs := newFixture()
		commentID := id.NewCommentID()
		payload := mustMarshal(t, commentEvent(events.CommentActionCreated, commentID, "first"))

		require.NoError(t, ing.Apply(ctx, payload))
		require.NoError(t, ing.Apply(ctx, payload))

		stored, err := cs.FindByID(ctx, commentID)
		require.NoError(t, err)
		assert.Equal(t, "first", stored.Text)
		assert.False(t, stored.Edited)
	})

	t.Run("updated edits the existing row", func(t *testing.T) {
		ing, cs := newFixture()
		commentID := id.NewCommentID()
		require.NoError(t, ing.Apply(ctx, mustMarshal(t, commentEvent(events.CommentActionCreated, commentID, "first"))))

		require.NoError(t, ing.Apply(ctx, mustMarshal(t, commentEvent(events.CommentActionUpdated, commentID, "second"))))

		stored, err := cs.FindByID(ctx, commentID)
		require.NoError(t, err)
		assert.Equal(t, "second", stored.Text)
		assert.True(t, stored.Edited)
	})

	t.Run("updated never creates a missing comment", func(t *testing.T) {
		ing, cs := newFixture()
		commentID := id.NewCommentID()

		err := ing.Apply(ctx, mustMarshal(t, commentEvent(events.CommentActionUpdated, commentID, "ghost")))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = cs.FindByID(ctx, commentID)
		assert.Error(t, err)
	})

	t.Run("deleted tolerates replays", func(t *testing.T) {
		ing, cs := newFixture()
		commentID := id.NewCommentID()
		require.NoError(t, ing.Apply(ctx, mustMarshal(t, commentEvent(events.CommentActionCreated, commentID, "bye"))))

		deletePayload := mustMarshal(t, commentEvent(events.CommentActionDeleted, commentID, ""))
		require.NoError(t, ing.Apply(ctx, deletePayload))
		require.NoError(t, ing.Apply(ctx, deletePayload))

		_, err := cs.FindByID(ctx, commentID)
		assert.Error(t, err)
	})
}

func TestNotificationIngestor(t *testing.T) {
	ctx := context.Background()
	ns := notifications.NewInMemoryStore()
	ing := NewNotificationIngestor(ns, nil)

	recipient := id.NewUserID()
	e := events.NotificationCreatedEvent{
		NotificationID: id.NewNotificationID().String(),
		RecipientID:    recipient.String(),
		RequestID:      id.NewRequestID().String(),
		Type:           "STATUS_CHANGED",
		Message:        "approved",
		CreatedAt:      events.NewTimestamp(time.Now().UTC()),
		SentAt:         events.NewTimestamp(time.Now().UTC()),
	}
	payload := mustMarshal(t, e)

	require.NoError(t, ing.Apply(ctx, payload))
	require.NoError(t, ing.Apply(ctx, payload))

	inbox, err := ns.ListByRecipient(ctx, recipient)
	require.NoError(t, err)
	assert.Len(t, inbox, 1)
	assert.False(t, inbox[0].Read)
}

func TestAuditIngestor(t *testing.T) {
	ctx := context.Background()
	as := auditlog.NewInMemoryStore()
	ing := NewAuditIngestor(as, nil)

	requestID := id.NewRequestID()
	e := events.AuditLogCreatedEvent{
		EntityType: "VerificationRequest",
		EntityID:   requestID.String(),
		Action:     "STATUS_APPROVED",
		ActorID:    id.NewUserID().String(),
		OldValue:   "ASSIGNED",
		NewValue:   "APPROVED",
		Timestamp:  events.NewTimestamp(time.Now().UTC()),
	}
	payload := mustMarshal(t, e)

	require.NoError(t, ing.Apply(ctx, payload))
	require.NoError(t, ing.Apply(ctx, payload))

	entries, err := as.ListByEntity(ctx, e.EntityType, e.EntityID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// A different action at the same instant is a distinct entry.
	e.Action = "COMMENT_ADDED"
	require.NoError(t, ing.Apply(ctx, mustMarshal(t, e)))

	entries, err = as.ListByEntity(ctx, e.EntityType, e.EntityID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRouter(t *testing.T) {
	ctx := context.Background()
	router := NewRouter()
	router.Register(NewAuditIngestor(auditlog.NewInMemoryStore(), nil))

	t.Run("routes to the registered ingestor", func(t *testing.T) {
		payload := mustMarshal(t, events.AuditLogCreatedEvent{
			EntityType: "VerificationRequest",
			EntityID:   id.NewRequestID().String(),
			Action:     "CREATED",
			Timestamp:  events.NewTimestamp(time.Now().UTC()),
		})
		assert.NoError(t, router.Apply(ctx, events.TopicAudit, payload))
	})

	t.Run("unregistered topic fails", func(t *testing.T) {
		err := router.Apply(ctx, events.TopicStatus, []byte(`{}`))
		assert.Error(t, err)
	})
}
