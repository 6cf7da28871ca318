package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id1 := NewID()
	id2 := NewID()
	assert.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2)
}

func TestNewProposal(t *testing.T) {
	p := NewProposal("deploy", map[string]any{"env": "prod"}, []CapabilityTag{"deploy"}, "snap-1")
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "deploy", p.Action)
	assert.Equal(t, "prod", p.Params["env"])
	assert.Equal(t, []CapabilityTag{"deploy"}, p.Requires)
	assert.Equal(t, "snap-1", p.SnapshotID)
	assert.False(t, p.Created.IsZero())
}

func TestOutcomeHelpers(t *testing.T) {
	success := NewSuccessOutcome("p1", map[string]any{"rows": 3})
	assert.Equal(t, "p1", success.ProposalID)
	assert.Equal(t, OutcomeSuccess, success.Status)
	assert.False(t, success.Failed())

	failure := NewFailureOutcome("p2", assert.AnError)
	assert.Equal(t, OutcomeFailure, failure.Status)
	assert.True(t, failure.Failed())
	assert.Equal(t, assert.AnError.Error(), failure.Error)

	// A nil error still yields a failure outcome, just without detail.
	failure = NewFailureOutcome("p3", nil)
	assert.True(t, failure.Failed())
	assert.Empty(t, failure.Error)
}

func TestNewRequest(t *testing.T) {
	req := NewRequest("infra", map[string]any{"task": "restart"})
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "infra", req.Classification)
	assert.False(t, req.Received.IsZero())
}

func TestResultFailed(t *testing.T) {
	assert.False(t, Result{Payload: map[string]any{"ok": true}}.Failed())
	assert.True(t, Result{Reason: ReasonDeadlineExceeded}.Failed())
}

func TestErrorMessages(t *testing.T) {
	conflict := &ConflictError{Dimension: DimensionSemantic, NodeID: "n1", Existing: "fact", Proposed: "rule"}
	require.Contains(t, conflict.Error(), "n1")
	require.Contains(t, conflict.Error(), "fact")
	require.Contains(t, conflict.Error(), "rule")

	notFound := &NotFoundError{Dimension: DimensionTemporal, Kind: "node", ID: "ghost"}
	require.Contains(t, notFound.Error(), "ghost")
	require.Contains(t, notFound.Error(), "temporal")
}
