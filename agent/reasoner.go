package agent

import (
	"context"
	"fmt"

	"github.com/imran-siddique/mute-agent/core"
)

// ProposeFunc produces a proposal from a context snapshot.
type ProposeFunc func(ctx context.Context, snapshot core.Snapshot) (*core.Proposal, error)

// OutcomeFunc consumes the outcome of an executed proposal.
type OutcomeFunc func(ctx context.Context, outcome core.Outcome)

// FuncReasoner adapts a pair of plain Go functions into a core.Reasoner. It
// has no internal mutable state after construction and is safe for
// concurrent use.
type FuncReasoner struct {
	name      string
	propose   ProposeFunc
	onOutcome OutcomeFunc
}

var _ core.Reasoner = (*FuncReasoner)(nil)

// NewFuncReasoner constructs a FuncReasoner. The outcome callback may be nil
// when the caller has no interest in results.
func NewFuncReasoner(name string, propose ProposeFunc, onOutcome OutcomeFunc) *FuncReasoner {
	return &FuncReasoner{name: name, propose: propose, onOutcome: onOutcome}
}

// Name returns the reasoner's name.
func (r *FuncReasoner) Name() string { return r.name }

// Propose implements core.Reasoner.
func (r *FuncReasoner) Propose(ctx context.Context, snapshot core.Snapshot) (*core.Proposal, error) {
	if r.propose == nil {
		return nil, fmt.Errorf("reasoner %s has no propose function", r.name)
	}
	return r.propose(ctx, snapshot)
}

// OnOutcome implements core.Reasoner.
func (r *FuncReasoner) OnOutcome(ctx context.Context, outcome core.Outcome) {
	if r.onOutcome != nil {
		r.onOutcome(ctx, outcome)
	}
}
