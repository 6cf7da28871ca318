package core

import "time"

// CapabilityTag names an ability an Execution role advertises. Proposals list
// the capabilities they require; the handshake protocol matches the two sets
// before dispatch.
type CapabilityTag string

// Proposal is the unit of work produced by a Reasoning role. The intended
// action is opaque to the protocol: Action names it and Params carry its
// arguments, but only the Execution role interprets either.
type Proposal struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	Params     map[string]any  `json:"params,omitempty"`
	Requires   []CapabilityTag `json:"requires,omitempty"`
	SnapshotID string          `json:"snapshot_id,omitempty"`
	Created    time.Time       `json:"created"`
}

// NewProposal creates a proposal with a generated id bound to the snapshot it
// was derived from.
func NewProposal(action string, params map[string]any, requires []CapabilityTag, snapshotID string) *Proposal {
	return &Proposal{
		ID:         NewID(),
		Action:     action,
		Params:     params,
		Requires:   requires,
		SnapshotID: snapshotID,
		Created:    time.Now().UTC(),
	}
}

// OutcomeStatus classifies the result of executing a proposal.
type OutcomeStatus string

// Outcome statuses.
const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
	OutcomePartial OutcomeStatus = "partial"
)

// Outcome is the result of executing a Proposal. Created by the Execution
// role, consumed by the handshake protocol, which writes a derived fact into
// the knowledge graph and forwards the outcome to the Reasoning role.
type Outcome struct {
	ProposalID string         `json:"proposal_id"`
	Status     OutcomeStatus  `json:"status"`
	Result     map[string]any `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	Finished   time.Time      `json:"finished"`
}

// NewSuccessOutcome builds a success outcome for the given proposal.
func NewSuccessOutcome(proposalID string, result map[string]any) Outcome {
	return Outcome{ProposalID: proposalID, Status: OutcomeSuccess, Result: result, Finished: time.Now().UTC()}
}

// NewFailureOutcome builds a failure outcome carrying the error detail.
func NewFailureOutcome(proposalID string, err error) Outcome {
	o := Outcome{ProposalID: proposalID, Status: OutcomeFailure, Finished: time.Now().UTC()}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

// Failed reports whether the outcome represents a failure.
func (o Outcome) Failed() bool { return o.Status == OutcomeFailure }

// Ack acknowledges receipt of a dispatched proposal by an Execution role.
// Acks are idempotent: a duplicate ack for the same proposal id is a no-op.
type Ack struct {
	ProposalID string    `json:"proposal_id"`
	Executor   string    `json:"executor"`
	At         time.Time `json:"at"`
}
