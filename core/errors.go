package core

import "fmt"

// ConflictError reports an attempt to change the immutable type tag of an
// existing node. The prior node is left unchanged.
type ConflictError struct {
	Dimension Dimension
	NodeID    string
	Existing  string
	Proposed  string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("node %s in dimension %s already has type %q, cannot change to %q",
		e.NodeID, e.Dimension, e.Existing, e.Proposed)
}

// NotFoundError reports a reference to a missing node or edge.
type NotFoundError struct {
	Dimension Dimension
	Kind      string // "node" or "edge"
	ID        string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found in dimension %s", e.Kind, e.ID, e.Dimension)
}
