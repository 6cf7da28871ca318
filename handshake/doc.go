// Package handshake implements the state machine governing the handoff
// between the Reasoning and Execution roles for a single unit of work.
//
// One Session exists per proposal id and moves through
//
//	CREATED → PROPOSED → VALIDATED → DISPATCHED → EXECUTING →
//	COMPLETED | REJECTED | FAILED (TIMED_OUT is the retry pivot)
//
// The Protocol owns every live session exclusively. It validates proposals
// against the execution role's advertised capabilities, dispatches with a
// deadline and a bounded exponential-backoff retry policy, treats duplicate
// acknowledgments and duplicate outcomes as no-ops, records the final outcome
// as a fact in the knowledge graph, and notifies the reasoning role exactly
// once per session. Transitions on a single session are strictly serialized;
// concurrent attempts to advance the same session are rejected with
// *SessionBusyError rather than merged.
package handshake
