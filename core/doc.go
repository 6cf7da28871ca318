// Package core contains the shared data model and contracts of the
// mute-agent coordination triad: knowledge graph types and the storage
// boundary (KnowledgeGraph, Snapshot, Cursor), the Proposal/Outcome handoff
// payloads, the Reasoner and Execution role interfaces, and the Request/Result
// shapes consumed by the router.
//
// The package is intentionally leaf-level: it defines WHAT the components
// exchange, while graph, handshake and router supply the HOW. Implementations
// of the interfaces here may live anywhere (in-memory, on-disk, remote) as
// long as they honor the documented contracts.
package core
