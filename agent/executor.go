package agent

import (
	"context"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/imran-siddique/mute-agent/core"
)

// ExecuteFunc performs the side effect of a proposal and returns its
// outcome.
type ExecuteFunc func(ctx context.Context, proposal *core.Proposal) (core.Outcome, error)

// FuncExecutor adapts a plain Go function into a core.Executor. Accept
// acknowledges immediately; Execute runs the wrapped function in a goroutine
// and reports through the outcome/error channel pair the protocol expects.
//
// A FuncExecutor has no internal mutable state after construction and is
// safe for concurrent use by multiple sessions.
type FuncExecutor struct {
	name         string
	capabilities []core.CapabilityTag
	execute      ExecuteFunc
}

var _ core.Executor = (*FuncExecutor)(nil)

// NewFuncExecutor constructs a FuncExecutor advertising the given
// capabilities.
func NewFuncExecutor(name string, capabilities []core.CapabilityTag, execute ExecuteFunc) *FuncExecutor {
	return &FuncExecutor{name: name, capabilities: capabilities, execute: execute}
}

// Name returns the executor's name.
func (e *FuncExecutor) Name() string { return e.name }

// Capabilities returns the advertised capability tags.
func (e *FuncExecutor) Capabilities() []core.CapabilityTag {
	return append([]core.CapabilityTag(nil), e.capabilities...)
}

// Accept acknowledges receipt of a dispatched proposal.
func (e *FuncExecutor) Accept(_ context.Context, proposal *core.Proposal) (core.Ack, error) {
	return core.Ack{ProposalID: proposal.ID, Executor: e.name, At: time.Now().UTC()}, nil
}

// Execute runs the wrapped function asynchronously and reports its outcome.
func (e *FuncExecutor) Execute(ctx context.Context, proposal *core.Proposal) (<-chan core.Outcome, <-chan error) {
	outCh := make(chan core.Outcome, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		outcome, err := e.execute(ctx, proposal)
		if err != nil {
			select {
			case errCh <- err:
			case <-ctx.Done():
			}
			return
		}
		select {
		case outCh <- outcome:
		case <-ctx.Done():
		}
	}()

	return outCh, errCh
}

// DecodeAction decodes a proposal's opaque parameter map into a typed
// struct, so executors can work with real types instead of map lookups.
// Field matching follows mapstructure conventions.
func DecodeAction(proposal *core.Proposal, out any) error {
	return mapstructure.Decode(proposal.Params, out)
}
