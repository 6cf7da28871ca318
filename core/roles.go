package core

import "context"

// Reasoner is the Reasoning role interface. Implementations produce action
// proposals from a context snapshot and consume execution outcomes. The core
// only requires this shape; the reasoning algorithm itself is an external
// collaborator.
//
// OnOutcome is invoked exactly once per terminal session, for successes and
// failures alike (failures arrive as failure-shaped outcomes, never silently
// dropped).
type Reasoner interface {
	Name() string
	Propose(ctx context.Context, snapshot Snapshot) (*Proposal, error)
	OnOutcome(ctx context.Context, outcome Outcome)
}

// Executor is the Execution role interface. Implementations advertise their
// capabilities, acknowledge dispatched proposals, and perform the side
// effects.
//
// Execute is fire-and-report: the protocol does not wait on the call itself
// but on the returned channels, mirroring the streaming-generation pattern
// used elsewhere in the module. Exactly one of the channels eventually yields
// a value; both are closed when execution finishes. Implementations must
// respect cancellation of the supplied context, which doubles as the
// best-effort cancellation signal for a dispatched proposal.
type Executor interface {
	Name() string
	Capabilities() []CapabilityTag
	Accept(ctx context.Context, proposal *Proposal) (Ack, error)
	Execute(ctx context.Context, proposal *Proposal) (<-chan Outcome, <-chan error)
}

// CancelNotifier is an optional extension of Executor. When implemented, the
// protocol calls CancelProposal in addition to cancelling the dispatch
// context when a session is cancelled after dispatch. The signal is best
// effort; the side effect may already have happened.
type CancelNotifier interface {
	CancelProposal(proposalID string)
}
