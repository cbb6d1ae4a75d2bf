package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veriflow/internal/verification/models"
	id "veriflow/pkg/domain"
)

func newRequest(customer id.CustomerID) models.VerificationRequest {
	now := time.Now()
	return models.VerificationRequest{
		ID:          id.NewRequestID(),
		CustomerID:  customer,
		RequestorID: id.UserID(uuidFor("requestor")),
		Status:      models.StatusPending,
		Reason:      "account opening",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func uuidFor(seed string) [16]byte {
	var u [16]byte
	copy(u[:], seed)
	u[6] = (u[6] & 0x0f) | 0x40
	u[8] = (u[8] & 0x3f) | 0x80
	return u
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save and find round-trip", func(t *testing.T) {
		s := NewInMemoryStore()
		req := newRequest(id.CustomerID(uuidFor("customer-1")))
		require.NoError(t, s.Save(ctx, req))

		got, err := s.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, req.ID, got.ID)
		assert.Equal(t, models.StatusPending, got.Status)
	})

	t.Run("missing request returns not found", func(t *testing.T) {
		s := NewInMemoryStore()
		_, err := s.FindByID(ctx, id.NewRequestID())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list by customer is creation-ordered", func(t *testing.T) {
		s := NewInMemoryStore()
		customer := id.CustomerID(uuidFor("customer-2"))

		first := newRequest(customer)
		second := newRequest(customer)
		second.CreatedAt = first.CreatedAt.Add(time.Minute)
		require.NoError(t, s.Save(ctx, second))
		require.NoError(t, s.Save(ctx, first))
		require.NoError(t, s.Save(ctx, newRequest(id.CustomerID(uuidFor("customer-3")))))

		got, err := s.ListByCustomer(ctx, customer)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, first.ID, got[0].ID)
		assert.Equal(t, second.ID, got[1].ID)
	})

	t.Run("counts only open assignments for an officer", func(t *testing.T) {
		s := NewInMemoryStore()
		officer := id.UserID(uuidFor("officer-1"))

		assigned := newRequest(id.CustomerID(uuidFor("customer-4")))
		assigned.Status = models.StatusAssigned
		assigned.OfficerID = &officer
		require.NoError(t, s.Save(ctx, assigned))

		approved := newRequest(id.CustomerID(uuidFor("customer-4")))
		approved.Status = models.StatusApproved
		approved.OfficerID = &officer
		require.NoError(t, s.Save(ctx, approved))

		count, err := s.CountAssignedToOfficer(ctx, officer)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("returned aggregates share no memory with stored state", func(t *testing.T) {
		s := NewInMemoryStore()
		req := newRequest(id.CustomerID(uuidFor("customer-6")))
		req.CommentIDs = append(req.CommentIDs, id.NewCommentID(), id.NewCommentID())
		first, second := req.CommentIDs[0], req.CommentIDs[1]
		require.NoError(t, s.Save(ctx, req))

		// Mutating the caller's copy after Save must not leak into the store.
		req.CommentIDs[0] = id.NewCommentID()
		req.CommentIDs = req.CommentIDs[:1]

		got, err := s.FindByID(ctx, req.ID)
		require.NoError(t, err)
		require.Len(t, got.CommentIDs, 2)

		// Mutating a found copy, including the in-place filter a delete
		// performs, must not leak into the store either.
		kept := got.CommentIDs[:0]
		kept = append(kept, got.CommentIDs[1])
		_ = kept

		again, err := s.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, []id.CommentID{first, second}, again.CommentIDs)
	})

	t.Run("set status refreshes the cached field", func(t *testing.T) {
		s := NewInMemoryStore()
		req := newRequest(id.CustomerID(uuidFor("customer-5")))
		require.NoError(t, s.Save(ctx, req))

		require.NoError(t, s.SetStatus(ctx, req.ID, models.StatusAssigned))
		got, err := s.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAssigned, got.Status)

		assert.ErrorIs(t, s.SetStatus(ctx, id.NewRequestID(), models.StatusAssigned), ErrNotFound)
	})
}
