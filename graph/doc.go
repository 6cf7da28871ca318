// Package graph provides the in-memory multidimensional knowledge graph, the
// default core.KnowledgeGraph implementation shared by the reasoning and
// execution roles, the handshake protocol and the router.
//
// The store keeps typed nodes and directed edges partitioned into independent
// dimensions (semantic, temporal, causal, ...). Dimensions never merge
// implicitly; cross-dimension links go through edges in a designated bridge
// dimension. Queries return finite, restartable cursors whose traversal depth
// is always bounded, snapshots give isolated point-in-time views, and every
// mutation is appended to a change log delivered at-least-once to observers.
package graph
