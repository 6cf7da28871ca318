package handshake

// State is a position in the session lifecycle.
type State int

// Session lifecycle states.
const (
	// StateCreated is the initial state of a freshly opened session.
	StateCreated State = iota
	// StateProposed means the reasoning role has submitted a proposal.
	StateProposed
	// StateValidated means the execution role advertises every required
	// capability.
	StateValidated
	// StateDispatched means the proposal has been handed to the execution
	// role and the deadline timer is running.
	StateDispatched
	// StateExecuting means the execution role acknowledged receipt.
	StateExecuting
	// StateCompleted is terminal: an outcome arrived before the deadline.
	StateCompleted
	// StateRejected is terminal: validation failed.
	StateRejected
	// StateFailed is terminal: an unrecoverable error, exhausted retries or
	// cancellation ended the session.
	StateFailed
	// StateTimedOut is the retry pivot: the deadline elapsed without an
	// outcome. The session either re-enters StateDispatched or fails.
	StateTimedOut
)

// String returns the canonical name of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateProposed:
		return "PROPOSED"
	case StateValidated:
		return "VALIDATED"
	case StateDispatched:
		return "DISPATCHED"
	case StateExecuting:
		return "EXECUTING"
	case StateCompleted:
		return "COMPLETED"
	case StateRejected:
		return "REJECTED"
	case StateFailed:
		return "FAILED"
	case StateTimedOut:
		return "TIMED_OUT"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transitions may occur from s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateRejected || s == StateFailed
}

// transitions lists the permitted successors of each non-terminal state.
// Any non-terminal state may additionally move to StateFailed, which
// canTransition handles explicitly so unrecoverable errors can short-circuit
// the remaining states.
var transitions = map[State][]State{
	StateCreated:    {StateProposed},
	StateProposed:   {StateValidated, StateRejected},
	StateValidated:  {StateDispatched},
	StateDispatched: {StateExecuting, StateTimedOut},
	StateExecuting:  {StateCompleted, StateTimedOut},
	StateTimedOut:   {StateDispatched},
}

// canTransition reports whether from → to is a legal move.
func canTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
