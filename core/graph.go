package core

import "time"

// Dimension identifies an independent facet of the knowledge graph. Each
// dimension has its own node/edge namespace and is queried separately unless
// connected through a bridge dimension.
type Dimension string

// Well-known dimensions. Callers are free to introduce additional ones; these
// constants only name the facets the triad itself reads and writes.
const (
	// DimensionSemantic holds facts about entities and their meaning.
	DimensionSemantic Dimension = "semantic"
	// DimensionTemporal holds time-ordered facts.
	DimensionTemporal Dimension = "temporal"
	// DimensionCausal holds cause/effect facts. The handshake protocol
	// records proposal outcomes here.
	DimensionCausal Dimension = "causal"
	// DimensionBridge is the designated cross-dimension link facet. Edges in
	// a bridge dimension may connect nodes living in two different
	// dimensions; traversal across dimensions always goes through an
	// explicit bridge lookup, never through implicit merging.
	DimensionBridge Dimension = "bridge"
)

// Node is a typed fact in one dimension of the knowledge graph.
//
// Invariants:
//   - ID is unique within its dimension.
//   - Type is immutable once set; re-upserting the same id with a different
//     type fails with *ConflictError.
type Node struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Dimension Dimension      `json:"dimension"`
	Payload   map[string]any `json:"payload,omitempty"`
	Created   time.Time      `json:"created"`
}

// Edge is a directed, typed relation between two nodes. Multiple relation
// types between the same pair are allowed; the edge identity is the tuple
// (Source, Target, Relation, Dimension).
type Edge struct {
	Source    string         `json:"source"`
	Target    string         `json:"target"`
	Relation  string         `json:"relation"`
	Dimension Dimension      `json:"dimension"`
	Weight    float64        `json:"weight,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Pattern describes a graph query. All filters are optional; the zero value
// matches every node and edge in the queried dimension. Setting NodeType
// turns the query into a node query: only nodes of that type are matched,
// plus edges when Relation is also set.
//
// When Origin is set the query becomes a traversal: starting at the origin
// node, edges are followed outward up to Depth hops. Depth is always bounded
// (see MaxTraversalDepth) so walks on cyclic graphs terminate.
type Pattern struct {
	// NodeType restricts matched nodes to this type tag.
	NodeType string
	// Relation restricts followed/matched edges to this relation type.
	Relation string
	// Origin, when non-empty, roots the query at this node id.
	Origin string
	// Depth bounds traversal from Origin. Zero means only the origin node
	// itself. Values above MaxTraversalDepth are clamped.
	Depth int
}

// MaxTraversalDepth is the hard bound applied to every traversal regardless
// of the depth requested by a pattern.
const MaxTraversalDepth = 32

// Match is a single query result: a node, an edge, or both (a traversal step
// reports the edge it followed together with the node it reached).
type Match struct {
	Node  *Node
	Edge  *Edge
	Depth int
}

// Cursor is a lazy, finite, restartable sequence of query matches.
//
// Next returns the next match and true, or a zero Match and false once the
// sequence is exhausted. Reset rewinds the cursor to the beginning; the
// sequence then replays identically, even if the graph has mutated since the
// query was issued.
type Cursor interface {
	Next() (Match, bool)
	Reset()
}

// ChangeKind categorizes a knowledge graph mutation.
type ChangeKind string

// Change kinds emitted by graph implementations.
const (
	ChangeNodeUpserted ChangeKind = "node_upserted"
	ChangeEdgeUpserted ChangeKind = "edge_upserted"
)

// Change is one entry of the graph's append-only change log. Delivery to
// observers is at-least-once: consumers must deduplicate by ID.
type Change struct {
	ID        uint64     `json:"id"`
	Kind      ChangeKind `json:"kind"`
	Dimension Dimension  `json:"dimension"`
	Node      *Node      `json:"node,omitempty"`
	Edge      *Edge      `json:"edge,omitempty"`
	At        time.Time  `json:"at"`
}

// Snapshot is an immutable point-in-time view over one or more dimensions.
// Mutations committed after the snapshot was taken are invisible to holders;
// proposals reference the snapshot they were derived from by its ID.
type Snapshot interface {
	// ID returns the unique identifier of this snapshot.
	ID() string
	// Taken returns the time the snapshot was materialized.
	Taken() time.Time
	// Dimensions lists the dimensions captured by the snapshot.
	Dimensions() []Dimension
	// Node looks up a single node by dimension and id.
	Node(dimension Dimension, id string) (*Node, bool)
	// Query runs a pattern query against the frozen view.
	Query(dimension Dimension, pattern Pattern) (Cursor, error)
}

// KnowledgeGraph is the storage boundary of the triad. The core does not
// mandate a backing medium; any implementation honoring these contracts can
// serve as the shared fact store.
//
// Contracts:
//   - UpsertNode inserts or replaces a node, failing with *ConflictError when
//     an existing node carries a different type tag for the same id+dimension.
//   - UpsertEdge inserts or replaces the edge keyed by (src, dst, relation,
//     dimension), failing with *NotFoundError if either endpoint is absent.
//     Edges in a bridge dimension may reference nodes in two different
//     dimensions.
//   - Query returns a finite, restartable cursor and never blocks
//     indefinitely; traversal depth is always bounded.
//   - Snapshot returns an isolated view; concurrent mutations after creation
//     are invisible to holders.
//   - Subscribe registers a change observer with at-least-once delivery. The
//     returned cancel function releases the observer.
type KnowledgeGraph interface {
	UpsertNode(dimension Dimension, id, nodeType string, payload map[string]any) error
	UpsertEdge(dimension Dimension, src, dst, relation string, metadata map[string]any) error
	Query(dimension Dimension, pattern Pattern) (Cursor, error)
	Snapshot(dimensions ...Dimension) (Snapshot, error)
	Subscribe(buffer int) (<-chan Change, func())
}
