package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imran-siddique/mute-agent/core"
)

func collectChanges(t *testing.T, ch <-chan core.Change, n int) []core.Change {
	t.Helper()
	var out []core.Change
	deadline := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case change, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, change)
		case <-deadline:
			t.Fatalf("timed out after %d of %d changes", len(out), n)
		}
	}
	return out
}

func TestChangelog_DeliversMutationsInOrder(t *testing.T) {
	g := NewInMemoryGraph()
	ch, cancel := g.Subscribe(4)
	defer cancel()

	require.NoError(t, g.UpsertNode(core.DimensionSemantic, "a", "fact", nil))
	require.NoError(t, g.UpsertNode(core.DimensionSemantic, "b", "fact", nil))
	require.NoError(t, g.UpsertEdge(core.DimensionSemantic, "a", "b", "relates", nil))

	changes := collectChanges(t, ch, 3)
	assert.Equal(t, core.ChangeNodeUpserted, changes[0].Kind)
	assert.Equal(t, "a", changes[0].Node.ID)
	assert.Equal(t, core.ChangeNodeUpserted, changes[1].Kind)
	assert.Equal(t, core.ChangeEdgeUpserted, changes[2].Kind)
	require.NotNil(t, changes[2].Edge)
	assert.Equal(t, "a", changes[2].Edge.Source)

	// Ids are strictly increasing so consumers can deduplicate redeliveries.
	for i := 1; i < len(changes); i++ {
		assert.Greater(t, changes[i].ID, changes[i-1].ID)
	}
}

func TestChangelog_SlowConsumerDoesNotBlockMutations(t *testing.T) {
	g := NewInMemoryGraph()
	// Tiny buffer, nobody reading yet: mutations must still complete.
	ch, cancel := g.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_ = g.UpsertNode(core.DimensionSemantic, core.NewID(), "fact", nil)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("mutations blocked on a slow subscriber")
	}

	changes := collectChanges(t, ch, 50)
	assert.Len(t, changes, 50)
}

func TestChangelog_CancelClosesChannel(t *testing.T) {
	g := NewInMemoryGraph()
	ch, cancel := g.Subscribe(1)
	cancel()
	// Cancel is idempotent.
	cancel()

	require.NoError(t, g.UpsertNode(core.DimensionSemantic, "a", "fact", nil))

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestChangelog_FailedMutationEmitsNothing(t *testing.T) {
	g := NewInMemoryGraph()
	require.NoError(t, g.UpsertNode(core.DimensionSemantic, "a", "fact", nil))

	ch, cancel := g.Subscribe(4)
	defer cancel()

	// Type conflict: rejected mutations never reach the change log.
	err := g.UpsertNode(core.DimensionSemantic, "a", "rule", nil)
	require.Error(t, err)

	select {
	case change := <-ch:
		t.Fatalf("unexpected change %+v for a rejected mutation", change)
	case <-time.After(100 * time.Millisecond):
	}
}
