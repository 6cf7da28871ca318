package handshake

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/imran-siddique/mute-agent/core"
)

// Session is the live instance of the handshake state machine for one
// Proposal/Outcome pair. It is owned exclusively by the Protocol for its
// lifetime; the router and callers only ever hold references.
//
// Concurrency: state reads take a shared lock. Advancement is serialized
// through an atomic guard so that truly concurrent attempts to advance the
// same session fail fast with *SessionBusyError instead of queueing up and
// silently merging.
type Session struct {
	id       string
	proposal *core.Proposal
	reasoner core.Reasoner
	executor core.Executor

	mu       sync.RWMutex
	state    State
	reason   core.FailureReason
	outcome  *core.Outcome
	attempts int
	created  time.Time
	updated  time.Time
	cancel   context.CancelFunc

	advancing atomic.Bool
	notified  bool
}

func newSession(proposal *core.Proposal, reasoner core.Reasoner, executor core.Executor) *Session {
	now := time.Now().UTC()
	return &Session{
		id:       proposal.ID,
		proposal: proposal,
		reasoner: reasoner,
		executor: executor,
		state:    StateCreated,
		created:  now,
		updated:  now,
	}
}

// ID returns the session identifier, which equals the proposal id.
func (s *Session) ID() string { return s.id }

// Proposal returns the proposal bound to this session.
func (s *Session) Proposal() *core.Proposal { return s.proposal }

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Reason returns the failure reason attached to a terminal session, or the
// empty string while the session is live or completed successfully.
func (s *Session) Reason() core.FailureReason {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// Outcome returns the recorded outcome once the session is terminal.
func (s *Session) Outcome() (core.Outcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.outcome == nil {
		return core.Outcome{}, false
	}
	return *s.outcome, true
}

// Attempts returns the number of dispatch attempts made so far.
func (s *Session) Attempts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attempts
}

// beginAdvance claims the exclusive right to advance the session. A failed
// claim means another goroutine is mid-transition.
func (s *Session) beginAdvance() error {
	if !s.advancing.CompareAndSwap(false, true) {
		return &SessionBusyError{ProposalID: s.id}
	}
	return nil
}

// endAdvance releases the advancement claim.
func (s *Session) endAdvance() { s.advancing.Store(false) }

// advance applies the transition to the target state after validating it
// against the state machine. Caller must hold the advancement claim.
func (s *Session) advance(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !canTransition(s.state, to) {
		return &InvalidTransitionError{ProposalID: s.id, From: s.state, To: to}
	}
	s.state = to
	s.updated = time.Now().UTC()
	if to == StateDispatched {
		s.attempts++
	}
	return nil
}

// finalize moves the session into a terminal state and records the outcome.
// It returns false when the session is already terminal, which is how
// duplicate outcome deliveries and racing cancellations collapse into a
// single terminal transition. The winning caller (and only that caller) is
// responsible for the exactly-once notification side effects.
func (s *Session) finalize(to State, reason core.FailureReason, outcome core.Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() || s.notified {
		return false
	}
	if !canTransition(s.state, to) {
		return false
	}
	s.state = to
	s.reason = reason
	s.outcome = &outcome
	s.notified = true
	s.updated = time.Now().UTC()
	return true
}

// setCancel stores the cancel function of the active dispatch context so a
// later Cancel call can signal the execution role.
func (s *Session) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = cancel
}

// signalCancel cancels the active dispatch context, if any. Best effort; the
// side effect may already have happened.
func (s *Session) signalCancel() {
	s.mu.RLock()
	cancel := s.cancel
	s.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}
