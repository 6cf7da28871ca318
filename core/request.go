package core

import "time"

// Request is an external unit of work entering the system through the
// router. Classification selects the route; Payload is opaque to the core
// and defined by the caller and its collaborators.
type Request struct {
	ID             string         `json:"id"`
	Classification string         `json:"classification"`
	Payload        map[string]any `json:"payload,omitempty"`
	Received       time.Time      `json:"received"`
}

// NewRequest creates a request with a generated id.
func NewRequest(classification string, payload map[string]any) Request {
	return Request{
		ID:             NewID(),
		Classification: classification,
		Payload:        payload,
		Received:       time.Now().UTC(),
	}
}

// FailureReason is the structured reason attached to terminal failures.
type FailureReason string

// Failure reasons surfaced by the handshake protocol and router.
const (
	ReasonCapabilityMismatch FailureReason = "CapabilityMismatch"
	ReasonDeadlineExceeded   FailureReason = "DeadlineExceeded"
	ReasonCancelled          FailureReason = "Cancelled"
	ReasonMalformedOutcome   FailureReason = "MalformedOutcome"
	ReasonProposalFailed     FailureReason = "ProposalFailed"
	ReasonExecutionFailed    FailureReason = "ExecutionFailed"
)

// Result is what a router dispatch ultimately resolves to: either a success
// payload or a structured failure reason. SessionID correlates the result
// with the handshake session that produced it.
type Result struct {
	SessionID string         `json:"session_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Reason    FailureReason  `json:"reason,omitempty"`
	Detail    string         `json:"detail,omitempty"`
}

// Failed reports whether the result carries a failure reason.
func (r Result) Failed() bool { return r.Reason != "" }
