package graph

import (
	"sort"

	"github.com/imran-siddique/mute-agent/core"
)

// sliceCursor replays a materialized match set. It satisfies the lazy, finite,
// restartable contract of core.Cursor: Next walks the captured matches and
// Reset rewinds to the beginning.
type sliceCursor struct {
	matches []core.Match
	pos     int
}

func newSliceCursor(matches []core.Match) *sliceCursor {
	return &sliceCursor{matches: matches}
}

// Next returns the next match, or false once the sequence is exhausted.
func (c *sliceCursor) Next() (core.Match, bool) {
	if c.pos >= len(c.matches) {
		return core.Match{}, false
	}
	m := c.matches[c.pos]
	c.pos++
	return m, true
}

// Reset rewinds the cursor so the sequence replays identically.
func (c *sliceCursor) Reset() { c.pos = 0 }

// matchPattern evaluates a pattern against one dimension and returns the
// match set. Patterns with an origin run a breadth-first traversal bounded by
// the pattern depth (clamped to core.MaxTraversalDepth); patterns without an
// origin scan the whole dimension. Each node appears at most once.
func matchPattern(d *dimension, dim core.Dimension, pattern core.Pattern) ([]core.Match, error) {
	if pattern.Origin != "" {
		return traverse(d, dim, pattern)
	}
	return scan(d, pattern), nil
}

// scan returns all nodes and edges in the dimension passing the type and
// relation filters. Results are sorted for deterministic replay.
func scan(d *dimension, pattern core.Pattern) []core.Match {
	ids := make([]string, 0, len(d.nodes))
	for id, n := range d.nodes {
		if pattern.NodeType != "" && n.Type != pattern.NodeType {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	matches := make([]core.Match, 0, len(ids))
	for _, id := range ids {
		matches = append(matches, core.Match{Node: copyNode(d.nodes[id])})
	}

	// Edges match when a relation filter is set, and also under the fully
	// unfiltered pattern, which matches everything in the dimension. A
	// NodeType-only pattern is a node query and emits no edges.
	if pattern.Relation != "" || pattern.NodeType == "" {
		keys := make([]edgeKey, 0, len(d.edges))
		for key := range d.edges {
			if pattern.Relation != "" && key.relation != pattern.Relation {
				continue
			}
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			a, b := keys[i], keys[j]
			if a.src != b.src {
				return a.src < b.src
			}
			if a.dst != b.dst {
				return a.dst < b.dst
			}
			return a.relation < b.relation
		})
		for _, key := range keys {
			matches = append(matches, core.Match{Edge: copyEdge(d.edges[key])})
		}
	}

	return matches
}

// traverse runs a bounded breadth-first walk from the pattern origin. The
// depth limit, not the visited set, guarantees termination on cyclic graphs;
// the visited set only keeps each node from being reported twice.
func traverse(d *dimension, dim core.Dimension, pattern core.Pattern) ([]core.Match, error) {
	origin, ok := d.nodes[pattern.Origin]
	if !ok {
		return nil, &core.NotFoundError{Dimension: dim, Kind: "node", ID: pattern.Origin}
	}

	depth := pattern.Depth
	if depth < 0 {
		depth = 0
	}
	if depth > core.MaxTraversalDepth {
		depth = core.MaxTraversalDepth
	}

	type frontierItem struct {
		id    string
		depth int
	}

	visited := map[string]bool{pattern.Origin: true}
	frontier := []frontierItem{{id: pattern.Origin, depth: 0}}

	var matches []core.Match
	if nodeMatches(origin, pattern) {
		matches = append(matches, core.Match{Node: copyNode(origin)})
	}

	for len(frontier) > 0 {
		item := frontier[0]
		frontier = frontier[1:]
		if item.depth >= depth {
			continue
		}

		keys := append([]edgeKey(nil), d.out[item.id]...)
		sort.Slice(keys, func(i, j int) bool {
			a, b := keys[i], keys[j]
			if a.dst != b.dst {
				return a.dst < b.dst
			}
			return a.relation < b.relation
		})

		for _, key := range keys {
			if pattern.Relation != "" && key.relation != pattern.Relation {
				continue
			}
			edge := d.edges[key]
			next, ok := d.nodes[key.dst]
			if !ok {
				// Bridge edges may point outside this dimension; the walk
				// stays within the queried facet.
				continue
			}
			if visited[key.dst] {
				continue
			}
			visited[key.dst] = true
			if nodeMatches(next, pattern) {
				matches = append(matches, core.Match{Node: copyNode(next), Edge: copyEdge(edge), Depth: item.depth + 1})
			}
			frontier = append(frontier, frontierItem{id: key.dst, depth: item.depth + 1})
		}
	}

	return matches, nil
}

func nodeMatches(n *core.Node, pattern core.Pattern) bool {
	return pattern.NodeType == "" || n.Type == pattern.NodeType
}
