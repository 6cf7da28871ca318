package testutil

import (
	"time"

	"github.com/imran-siddique/mute-agent/core"
)

// ProposalBuilder provides a fluent helper for constructing proposals in
// tests.
//
// Example:
//
//	p := NewProposalBuilder().ID("p-1").Action("echo").Requires("shell").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type ProposalBuilder struct {
	id         string
	action     string
	params     map[string]any
	requires   []core.CapabilityTag
	snapshotID string
}

// NewProposalBuilder creates a builder with default action "noop".
func NewProposalBuilder() *ProposalBuilder { return &ProposalBuilder{action: "noop"} }

// ID overrides the auto-generated proposal id (chainable).
func (b *ProposalBuilder) ID(id string) *ProposalBuilder { b.id = id; return b }

// Action sets the action name (chainable).
func (b *ProposalBuilder) Action(a string) *ProposalBuilder { b.action = a; return b }

// Param adds one action parameter (chainable).
func (b *ProposalBuilder) Param(key string, value any) *ProposalBuilder {
	if b.params == nil {
		b.params = map[string]any{}
	}
	b.params[key] = value
	return b
}

// Requires appends required capability tags (chainable).
func (b *ProposalBuilder) Requires(tags ...string) *ProposalBuilder {
	for _, tag := range tags {
		b.requires = append(b.requires, core.CapabilityTag(tag))
	}
	return b
}

// Snapshot sets the context snapshot reference (chainable).
func (b *ProposalBuilder) Snapshot(id string) *ProposalBuilder { b.snapshotID = id; return b }

// Build materializes the proposal.
func (b *ProposalBuilder) Build() *core.Proposal {
	p := core.NewProposal(b.action, b.params, b.requires, b.snapshotID)
	if b.id != "" {
		p.ID = b.id
	}
	return p
}

// SuccessOutcome builds a success outcome with a single result entry.
func SuccessOutcome(proposalID, key string, value any) core.Outcome {
	return core.Outcome{
		ProposalID: proposalID,
		Status:     core.OutcomeSuccess,
		Result:     map[string]any{key: value},
		Finished:   time.Now().UTC(),
	}
}
