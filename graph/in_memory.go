package graph

import (
	"sync"
	"time"

	"github.com/imran-siddique/mute-agent/core"
	"github.com/imran-siddique/mute-agent/logging"
	"github.com/imran-siddique/mute-agent/metrics"
)

// edgeKey identifies an edge within a dimension. Multiplicity between the
// same node pair is allowed as long as the relation type differs.
type edgeKey struct {
	src, dst, relation string
}

// dimension holds the nodes and edges of one graph facet. Outgoing edge keys
// are indexed per source node to keep traversals linear in the visited set.
type dimension struct {
	nodes map[string]*core.Node
	edges map[edgeKey]*core.Edge
	out   map[string][]edgeKey
}

func newDimension() *dimension {
	return &dimension{
		nodes: make(map[string]*core.Node),
		edges: make(map[edgeKey]*core.Edge),
		out:   make(map[string][]edgeKey),
	}
}

// Options configures an InMemoryGraph.
type Options struct {
	// BridgeDimensions designates the dimensions whose edges may connect
	// nodes living in two different dimensions. Defaults to
	// {core.DimensionBridge}.
	BridgeDimensions []core.Dimension

	// Logger receives mutation debug logs. Defaults to NoOpLogger.
	Logger logging.Logger

	// Collector receives mutation metrics. May be nil.
	Collector *metrics.Collector
}

// InMemoryGraph is a volatile core.KnowledgeGraph implementation storing all
// dimensions in process-local maps. It is safe for concurrent access: reads
// take a shared lock, mutations take an exclusive lock, and the
// type-immutability invariant provides optimistic conflict detection for the
// single-writer-per-node-id policy.
type InMemoryGraph struct {
	mu      sync.RWMutex
	dims    map[core.Dimension]*dimension
	bridges map[core.Dimension]bool

	// Change log. nextChange is protected by mu; observer bookkeeping has
	// its own lock so slow consumers never stall mutations.
	nextChange uint64
	obsMu      sync.Mutex
	observers  map[int]*observer
	nextObsID  int

	logger    logging.Logger
	collector *metrics.Collector
}

var _ core.KnowledgeGraph = (*InMemoryGraph)(nil)

// NewInMemoryGraph constructs an empty in-memory graph.
func NewInMemoryGraph(optFns ...func(o *Options)) *InMemoryGraph {
	opts := Options{
		BridgeDimensions: []core.Dimension{core.DimensionBridge},
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	bridges := make(map[core.Dimension]bool, len(opts.BridgeDimensions))
	for _, d := range opts.BridgeDimensions {
		bridges[d] = true
	}

	return &InMemoryGraph{
		dims:      make(map[core.Dimension]*dimension),
		bridges:   bridges,
		observers: make(map[int]*observer),
		logger:    opts.Logger,
		collector: opts.Collector,
	}
}

// WithLogger sets the logger used for mutation debug logs.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithBridgeDimensions overrides the set of designated bridge dimensions.
func WithBridgeDimensions(dims ...core.Dimension) func(o *Options) {
	return func(o *Options) { o.BridgeDimensions = dims }
}

// WithCollector sets the metrics collector mutations are counted on.
func WithCollector(c *metrics.Collector) func(o *Options) {
	return func(o *Options) { o.Collector = c }
}

// UpsertNode inserts or replaces a node. The type tag is immutable once set:
// re-upserting an existing id+dimension with a different type fails with
// *core.ConflictError and leaves the prior node unchanged. On replacement the
// original creation timestamp is preserved.
func (g *InMemoryGraph) UpsertNode(dim core.Dimension, id, nodeType string, payload map[string]any) error {
	g.mu.Lock()
	d, ok := g.dims[dim]
	if !ok {
		d = newDimension()
		g.dims[dim] = d
	}

	created := time.Now().UTC()
	if existing, ok := d.nodes[id]; ok {
		if existing.Type != nodeType {
			g.mu.Unlock()
			return &core.ConflictError{Dimension: dim, NodeID: id, Existing: existing.Type, Proposed: nodeType}
		}
		created = existing.Created
	}

	node := &core.Node{ID: id, Type: nodeType, Dimension: dim, Payload: copyPayload(payload), Created: created}
	d.nodes[id] = node
	change := g.nextChangeLocked(core.ChangeNodeUpserted, dim, node, nil)
	g.mu.Unlock()

	g.logger.Debug("graph node upserted dimension=%s id=%s type=%s", dim, id, nodeType)
	g.collector.ObserveGraphMutation(string(core.ChangeNodeUpserted), string(dim))
	g.publish(change)
	return nil
}

// UpsertEdge inserts or replaces the edge keyed by (src, dst, relation,
// dimension). Both endpoints must already exist or the call fails with
// *core.NotFoundError. For edges in a designated bridge dimension the
// endpoints may live in any two dimensions; for all other dimensions both
// endpoints must exist in the edge's own dimension.
func (g *InMemoryGraph) UpsertEdge(dim core.Dimension, src, dst, relation string, metadata map[string]any) error {
	g.mu.Lock()
	if err := g.checkEndpointLocked(dim, src); err != nil {
		g.mu.Unlock()
		return err
	}
	if err := g.checkEndpointLocked(dim, dst); err != nil {
		g.mu.Unlock()
		return err
	}

	d, ok := g.dims[dim]
	if !ok {
		d = newDimension()
		g.dims[dim] = d
	}

	key := edgeKey{src: src, dst: dst, relation: relation}
	_, replacing := d.edges[key]
	edge := &core.Edge{Source: src, Target: dst, Relation: relation, Dimension: dim, Metadata: copyPayload(metadata)}
	d.edges[key] = edge
	if !replacing {
		d.out[src] = append(d.out[src], key)
	}
	change := g.nextChangeLocked(core.ChangeEdgeUpserted, dim, nil, edge)
	g.mu.Unlock()

	g.logger.Debug("graph edge upserted dimension=%s src=%s dst=%s relation=%s", dim, src, dst, relation)
	g.collector.ObserveGraphMutation(string(core.ChangeEdgeUpserted), string(dim))
	g.publish(change)
	return nil
}

// checkEndpointLocked verifies an edge endpoint exists. Bridge dimensions
// resolve endpoints across every dimension; other dimensions only within
// themselves. Caller must hold the write lock.
func (g *InMemoryGraph) checkEndpointLocked(dim core.Dimension, id string) error {
	if g.bridges[dim] {
		for _, d := range g.dims {
			if _, ok := d.nodes[id]; ok {
				return nil
			}
		}
		return &core.NotFoundError{Dimension: dim, Kind: "node", ID: id}
	}
	if d, ok := g.dims[dim]; ok {
		if _, ok := d.nodes[id]; ok {
			return nil
		}
	}
	return &core.NotFoundError{Dimension: dim, Kind: "node", ID: id}
}

// Node returns a copy of the node with the given id, if present.
func (g *InMemoryGraph) Node(dim core.Dimension, id string) (*core.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.dims[dim]
	if !ok {
		return nil, false
	}
	n, ok := d.nodes[id]
	if !ok {
		return nil, false
	}
	return copyNode(n), true
}

// Query evaluates a pattern against one dimension and returns a finite,
// restartable cursor. The match set is materialized under a shared lock at
// call time, so the cursor replays a consistent view even while the graph
// keeps mutating.
func (g *InMemoryGraph) Query(dim core.Dimension, pattern core.Pattern) (core.Cursor, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.dims[dim]
	if !ok {
		return newSliceCursor(nil), nil
	}
	matches, err := matchPattern(d, dim, pattern)
	if err != nil {
		return nil, err
	}
	return newSliceCursor(matches), nil
}

// Snapshot materializes an immutable point-in-time view of the requested
// dimensions (all dimensions when none are named). Mutations after the
// snapshot was taken are invisible to holders.
func (g *InMemoryGraph) Snapshot(dimensions ...core.Dimension) (core.Snapshot, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(dimensions) == 0 {
		dimensions = make([]core.Dimension, 0, len(g.dims))
		for dim := range g.dims {
			dimensions = append(dimensions, dim)
		}
	}

	frozen := make(map[core.Dimension]*dimension, len(dimensions))
	for _, dim := range dimensions {
		if d, ok := g.dims[dim]; ok {
			frozen[dim] = copyDimension(d)
		} else {
			frozen[dim] = newDimension()
		}
	}

	return &memorySnapshot{
		id:    core.NewID(),
		taken: time.Now().UTC(),
		dims:  frozen,
	}, nil
}

// nextChangeLocked allocates the next change log entry. Caller must hold the
// write lock.
func (g *InMemoryGraph) nextChangeLocked(kind core.ChangeKind, dim core.Dimension, node *core.Node, edge *core.Edge) core.Change {
	g.nextChange++
	return core.Change{
		ID:        g.nextChange,
		Kind:      kind,
		Dimension: dim,
		Node:      copyNode(node),
		Edge:      copyEdge(edge),
		At:        time.Now().UTC(),
	}
}

func copyPayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	cp := make(map[string]any, len(payload))
	for k, v := range payload {
		cp[k] = copyValue(v)
	}
	return cp
}

// copyValue deep-copies the nested containers JSON-shaped payloads are built
// from, so retained or returned payloads never share mutable state with the
// stored node. Scalars and unrecognized types are shared as-is.
func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyPayload(val)
	case []any:
		cp := make([]any, len(val))
		for i, e := range val {
			cp[i] = copyValue(e)
		}
		return cp
	default:
		return v
	}
}

func copyNode(n *core.Node) *core.Node {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Payload = copyPayload(n.Payload)
	return &cp
}

func copyEdge(e *core.Edge) *core.Edge {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Metadata = copyPayload(e.Metadata)
	return &cp
}

func copyDimension(d *dimension) *dimension {
	cp := newDimension()
	for id, n := range d.nodes {
		cp.nodes[id] = copyNode(n)
	}
	for key, e := range d.edges {
		cp.edges[key] = copyEdge(e)
	}
	for src, keys := range d.out {
		cp.out[src] = append([]edgeKey(nil), keys...)
	}
	return cp
}
