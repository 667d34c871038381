package saga

import "github.com/pkg/errors"

// State is the closed set of saga states an order moves through.
// Every state change must pass IsValidTransition before it is committed.
type State string

const (
	StateCreated         State = "CREATED"
	StatePaymentPending  State = "PAYMENT_PENDING"
	StatePaid            State = "PAID"
	StateKitchenPending  State = "KITCHEN_PENDING"
	StateDeliveryPending State = "DELIVERY_PENDING"
	StateCompleted       State = "COMPLETED"
	StateCancelled       State = "CANCELLED"
	StateFailed          State = "FAILED"
)

// ErrIllegalTransition is returned when an event contradicts the current
// state. It signals a delivery-ordering or logic bug upstream; the write
// that triggered it must be refused.
var ErrIllegalTransition = errors.New("illegal saga state transition")

// AllStates lists every state, in lifecycle order.
var AllStates = []State{
	StateCreated,
	StatePaymentPending,
	StatePaid,
	StateKitchenPending,
	StateDeliveryPending,
	StateCompleted,
	StateCancelled,
	StateFailed,
}

// ParseState parses a state string as stored in the database.
func ParseState(s string) (State, error) {
	for _, state := range AllStates {
		if State(s) == state {
			return state, nil
		}
	}
	return "", errors.Errorf("unknown saga state: %q", s)
}

// IsValidTransition reports whether moving from one state to another is
// legal. It is total over all state pairs; anything not listed is illegal.
func IsValidTransition(from, to State) bool {
	switch from {
	case StateCreated:
		return to == StatePaymentPending || to == StateCancelled
	case StatePaymentPending:
		return to == StatePaid || to == StateCancelled || to == StateFailed
	case StatePaid:
		return to == StateKitchenPending || to == StateCancelled
	case StateKitchenPending:
		return to == StateDeliveryPending || to == StateCancelled
	case StateDeliveryPending:
		return to == StateCompleted || to == StateCancelled || to == StateFailed
	}
	// Completed, Cancelled and Failed are terminal.
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

func (s State) String() string {
	return string(s)
}
