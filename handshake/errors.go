package handshake

import "fmt"

// SessionBusyError reports a concurrent attempt to advance a session whose
// state is already being advanced. Transitions on a single session are
// strictly serialized; the losing attempt is rejected, never merged.
type SessionBusyError struct {
	ProposalID string
}

// Error implements the error interface.
func (e *SessionBusyError) Error() string {
	return fmt.Sprintf("session %s is busy with a concurrent transition", e.ProposalID)
}

// InvalidTransitionError reports an attempted transition the state machine
// does not permit.
type InvalidTransitionError struct {
	ProposalID string
	From, To   State
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("session %s cannot transition %s -> %s", e.ProposalID, e.From, e.To)
}

// SessionNotFoundError reports a reference to an unknown session.
type SessionNotFoundError struct {
	ProposalID string
}

// Error implements the error interface.
func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("no session for proposal %s", e.ProposalID)
}

// CapabilityMismatchError reports that the execution role does not advertise
// every capability the proposal requires.
type CapabilityMismatchError struct {
	ProposalID string
	Missing    []string
}

// Error implements the error interface.
func (e *CapabilityMismatchError) Error() string {
	return fmt.Sprintf("proposal %s requires capabilities not advertised by the execution role: %v", e.ProposalID, e.Missing)
}
