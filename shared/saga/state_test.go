package saga

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// allowedTransitions is the full transition relation. Anything not listed
// here must be rejected.
var allowedTransitions = map[State][]State{
	StateCreated:         {StatePaymentPending, StateCancelled},
	StatePaymentPending:  {StatePaid, StateCancelled, StateFailed},
	StatePaid:            {StateKitchenPending, StateCancelled},
	StateKitchenPending:  {StateDeliveryPending, StateCancelled},
	StateDeliveryPending: {StateCompleted, StateCancelled, StateFailed},
	StateCompleted:       {},
	StateCancelled:       {},
	StateFailed:          {},
}

func TestIsValidTransition_FullMatrix(t *testing.T) {
	for _, from := range AllStates {
		allowed := map[State]bool{}
		for _, to := range allowedTransitions[from] {
			allowed[to] = true
		}
		for _, to := range AllStates {
			got := IsValidTransition(from, to)
			assert.Equal(t, allowed[to], got, "%s -> %s", from, to)
		}
	}
}

func TestIsValidTransition_SelfTransitionsRejected(t *testing.T) {
	for _, state := range AllStates {
		assert.False(t, IsValidTransition(state, state), "%s -> %s", state, state)
	}
}

func TestIsValidTransition_TerminalStatesHaveNoExit(t *testing.T) {
	for _, from := range []State{StateCompleted, StateCancelled, StateFailed} {
		for _, to := range AllStates {
			assert.False(t, IsValidTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		terminal bool
	}{
		{StateCreated, false},
		{StatePaymentPending, false},
		{StatePaid, false},
		{StateKitchenPending, false},
		{StateDeliveryPending, false},
		{StateCompleted, true},
		{StateCancelled, true},
		{StateFailed, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.terminal, tt.state.IsTerminal(), "state %s", tt.state)
	}
}

func TestParseState(t *testing.T) {
	for _, state := range AllStates {
		parsed, err := ParseState(string(state))
		assert.NoError(t, err)
		assert.Equal(t, state, parsed)
	}

	_, err := ParseState("SHIPPED")
	assert.Error(t, err)

	_, err = ParseState("created")
	assert.Error(t, err, "states are case sensitive")
}
