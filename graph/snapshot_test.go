package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imran-siddique/mute-agent/core"
)

func TestSnapshot_IsolatedFromLaterMutations(t *testing.T) {
	g := NewInMemoryGraph()
	require.NoError(t, g.UpsertNode(core.DimensionSemantic, "n1", "fact", map[string]any{"v": 1}))

	snap, err := g.Snapshot(core.DimensionSemantic)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID())
	assert.False(t, snap.Taken().IsZero())

	// Mutate the live graph after the snapshot was taken.
	require.NoError(t, g.UpsertNode(core.DimensionSemantic, "n1", "fact", map[string]any{"v": 2}))
	require.NoError(t, g.UpsertNode(core.DimensionSemantic, "n2", "fact", nil))

	node, ok := snap.Node(core.DimensionSemantic, "n1")
	require.True(t, ok)
	assert.Equal(t, 1, node.Payload["v"], "snapshot must keep the pre-mutation payload")

	_, ok = snap.Node(core.DimensionSemantic, "n2")
	assert.False(t, ok, "node created after the snapshot must be invisible")

	cursor, err := snap.Query(core.DimensionSemantic, core.Pattern{NodeType: "fact"})
	require.NoError(t, err)
	count := 0
	for {
		if _, ok := cursor.Next(); !ok {
			break
		}
		count++
	}
	assert.Equal(t, 1, count)
}

func TestSnapshot_NestedPayloadIsIsolated(t *testing.T) {
	g := NewInMemoryGraph()
	payload := map[string]any{
		"meta": map[string]any{"env": "prod"},
		"tags": []any{"a"},
	}
	require.NoError(t, g.UpsertNode(core.DimensionSemantic, "n1", "fact", payload))

	snap, err := g.Snapshot(core.DimensionSemantic)
	require.NoError(t, err)

	// Mutating the caller's retained maps must not reach the stored node.
	payload["meta"].(map[string]any)["env"] = "dev"
	payload["tags"].([]any)[0] = "z"

	node, ok := g.Node(core.DimensionSemantic, "n1")
	require.True(t, ok)
	assert.Equal(t, "prod", node.Payload["meta"].(map[string]any)["env"])
	assert.Equal(t, "a", node.Payload["tags"].([]any)[0])

	// Nor does mutating a returned copy bleed through the snapshot boundary.
	node.Payload["meta"].(map[string]any)["env"] = "staging"
	snapNode, ok := snap.Node(core.DimensionSemantic, "n1")
	require.True(t, ok)
	assert.Equal(t, "prod", snapNode.Payload["meta"].(map[string]any)["env"])
}

func TestSnapshot_SelectsDimensions(t *testing.T) {
	g := NewInMemoryGraph()
	require.NoError(t, g.UpsertNode(core.DimensionSemantic, "s", "fact", nil))
	require.NoError(t, g.UpsertNode(core.DimensionTemporal, "t", "event", nil))

	snap, err := g.Snapshot(core.DimensionSemantic)
	require.NoError(t, err)
	assert.Equal(t, []core.Dimension{core.DimensionSemantic}, snap.Dimensions())

	_, ok := snap.Node(core.DimensionTemporal, "t")
	assert.False(t, ok)

	// Querying an uncaptured dimension yields an empty cursor, not an error.
	cursor, err := snap.Query(core.DimensionTemporal, core.Pattern{})
	require.NoError(t, err)
	_, ok = cursor.Next()
	assert.False(t, ok)
}

func TestSnapshot_DefaultCapturesAllDimensions(t *testing.T) {
	g := NewInMemoryGraph()
	require.NoError(t, g.UpsertNode(core.DimensionSemantic, "s", "fact", nil))
	require.NoError(t, g.UpsertNode(core.DimensionTemporal, "t", "event", nil))

	snap, err := g.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.Dimensions(), 2)
}
