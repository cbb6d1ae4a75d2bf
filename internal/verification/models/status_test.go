package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "veriflow/pkg/errors"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusAssigned, true},
		{StatusAssigned, StatusApproved, true},
		{StatusAssigned, StatusRejected, true},
		{StatusAssigned, StatusSentBack, true},
		{StatusSentBack, StatusPending, true},
		{StatusPending, StatusApproved, false},
		{StatusPending, StatusRejected, false},
		{StatusPending, StatusSentBack, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusAssigned, false},
		{StatusRejected, StatusPending, false},
		{StatusSentBack, StatusApproved, false},
		{StatusAssigned, StatusPending, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusAssigned.IsTerminal())
	assert.False(t, StatusSentBack.IsTerminal())

	// Terminal states accept nothing.
	for _, to := range []Status{StatusPending, StatusAssigned, StatusApproved, StatusRejected, StatusSentBack} {
		assert.False(t, StatusApproved.CanTransitionTo(to))
		assert.False(t, StatusRejected.CanTransitionTo(to))
	}
}

func TestStatusRequiresReason(t *testing.T) {
	assert.True(t, StatusRejected.RequiresReason())
	assert.True(t, StatusSentBack.RequiresReason())
	assert.False(t, StatusApproved.RequiresReason())
	assert.False(t, StatusAssigned.RequiresReason())
}

func TestParseStatus(t *testing.T) {
	t.Run("accepts known statuses", func(t *testing.T) {
		st, err := ParseStatus("SENT_BACK")
		require.NoError(t, err)
		assert.Equal(t, StatusSentBack, st)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := ParseStatus("ARCHIVED")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
