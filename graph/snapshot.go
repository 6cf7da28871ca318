package graph

import (
	"sort"
	"time"

	"github.com/imran-siddique/mute-agent/core"
)

// memorySnapshot is a frozen deep copy of selected dimensions. It is
// immutable after construction and therefore safe for concurrent use without
// locking; queries against it reuse the same pattern machinery as the live
// graph.
type memorySnapshot struct {
	id    string
	taken time.Time
	dims  map[core.Dimension]*dimension
}

var _ core.Snapshot = (*memorySnapshot)(nil)

// ID returns the unique identifier of this snapshot.
func (s *memorySnapshot) ID() string { return s.id }

// Taken returns the time the snapshot was materialized.
func (s *memorySnapshot) Taken() time.Time { return s.taken }

// Dimensions lists the captured dimensions in sorted order.
func (s *memorySnapshot) Dimensions() []core.Dimension {
	dims := make([]core.Dimension, 0, len(s.dims))
	for dim := range s.dims {
		dims = append(dims, dim)
	}
	sort.Slice(dims, func(i, j int) bool { return dims[i] < dims[j] })
	return dims
}

// Node looks up a single node in the frozen view.
func (s *memorySnapshot) Node(dim core.Dimension, id string) (*core.Node, bool) {
	d, ok := s.dims[dim]
	if !ok {
		return nil, false
	}
	n, ok := d.nodes[id]
	if !ok {
		return nil, false
	}
	return copyNode(n), true
}

// Query evaluates a pattern against the frozen view.
func (s *memorySnapshot) Query(dim core.Dimension, pattern core.Pattern) (core.Cursor, error) {
	d, ok := s.dims[dim]
	if !ok {
		return newSliceCursor(nil), nil
	}
	matches, err := matchPattern(d, dim, pattern)
	if err != nil {
		return nil, err
	}
	return newSliceCursor(matches), nil
}
