package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veriflow/internal/events"
	dErrors "veriflow/pkg/errors"
)

func statusEvent(t *testing.T) events.StatusUpdateEvent {
	t.Helper()
	ts, err := events.ParseTimestamp("2024-03-15T10:30:00Z")
	require.NoError(t, err)
	return events.StatusUpdateEvent{
		ID:        "6a1b8e2e-0000-4000-8000-000000000001",
		RequestID: "6a1b8e2e-0000-4000-8000-000000000002",
		ToStatus:  "PENDING",
		ChangedBy: "6a1b8e2e-0000-4000-8000-000000000003",
		ChangedAt: ts,
	}
}

func TestSyncPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers and resolves immediately", func(t *testing.T) {
		recorder := NewRecorder()
		pub := NewSync(recorder)

		receipt := pub.Publish(ctx, statusEvent(t))
		require.NoError(t, receipt.Wait(ctx))

		sent := recorder.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, events.TopicStatus, sent[0].Topic)
		assert.Equal(t, "6a1b8e2e-0000-4000-8000-000000000002", sent[0].Key)
	})

	t.Run("invalid event never reaches the transport", func(t *testing.T) {
		recorder := NewRecorder()
		pub := NewSync(recorder)

		receipt := pub.Publish(ctx, events.StatusUpdateEvent{})
		err := receipt.Wait(ctx)
		require.Error(t, err)
		assert.Empty(t, recorder.Sent())
	})

	t.Run("transport failure surfaces as publish failure", func(t *testing.T) {
		recorder := NewRecorder()
		recorder.FailWith(errors.New("broker unreachable"))
		pub := NewSync(recorder)

		receipt := pub.Publish(ctx, statusEvent(t))
		err := receipt.Wait(ctx)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePublishFailure))
	})
}

func TestAsyncPublisher(t *testing.T) {
	t.Run("receipt resolves after worker delivers", func(t *testing.T) {
		recorder := NewRecorder()
		pub := NewAsync(recorder, WithBuffer(4))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = pub.Run(ctx) }()

		receipt := pub.Publish(ctx, statusEvent(t))

		waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
		defer waitCancel()
		require.NoError(t, receipt.Wait(waitCtx))
		require.Len(t, recorder.Sent(), 1)
	})

	t.Run("caller may ignore the receipt", func(t *testing.T) {
		recorder := NewRecorder()
		pub := NewAsync(recorder)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = pub.Run(ctx) }()

		_ = pub.Publish(ctx, statusEvent(t))

		assert.Eventually(t, func() bool {
			return len(recorder.Sent()) == 1
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("delivery failure resolves the receipt with an error", func(t *testing.T) {
		recorder := NewRecorder()
		recorder.FailWith(errors.New("broker down"))
		pub := NewAsync(recorder)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = pub.Run(ctx) }()

		receipt := pub.Publish(ctx, statusEvent(t))

		waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
		defer waitCancel()
		err := receipt.Wait(waitCtx)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePublishFailure))
	})
}
