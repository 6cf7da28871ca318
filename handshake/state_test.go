package handshake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "CREATED", StateCreated.String())
	assert.Equal(t, "TIMED_OUT", StateTimedOut.String())
	assert.Equal(t, "UNKNOWN", State(99).String())
}

func TestState_Terminal(t *testing.T) {
	for _, s := range []State{StateCompleted, StateRejected, StateFailed} {
		assert.True(t, s.Terminal(), s.String())
	}
	for _, s := range []State{StateCreated, StateProposed, StateValidated, StateDispatched, StateExecuting, StateTimedOut} {
		assert.False(t, s.Terminal(), s.String())
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateCreated, StateProposed, true},
		{StateProposed, StateValidated, true},
		{StateProposed, StateRejected, true},
		{StateValidated, StateDispatched, true},
		{StateDispatched, StateExecuting, true},
		{StateDispatched, StateTimedOut, true},
		{StateExecuting, StateCompleted, true},
		{StateExecuting, StateTimedOut, true},
		{StateTimedOut, StateDispatched, true},

		// Unrecoverable errors may fail a session from any live state.
		{StateCreated, StateFailed, true},
		{StateExecuting, StateFailed, true},
		{StateTimedOut, StateFailed, true},

		// No skipping ahead.
		{StateCreated, StateValidated, false},
		{StateProposed, StateDispatched, false},
		{StateValidated, StateExecuting, false},

		// Terminal states are final.
		{StateCompleted, StateDispatched, false},
		{StateRejected, StateProposed, false},
		{StateFailed, StateFailed, false},
		{StateCompleted, StateFailed, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, canTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}
