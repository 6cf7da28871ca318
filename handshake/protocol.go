package handshake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/imran-siddique/mute-agent/core"
	"github.com/imran-siddique/mute-agent/logging"
	"github.com/imran-siddique/mute-agent/metrics"
)

// Config defines the protocol's timing and retry policy.
//
// Retries are confined to the dispatch/execution deadline path; every other
// error surfaces immediately with no implicit retry. The retry budget is
// finite by construction: MaxRetries bounds the number of re-dispatches and
// BackoffMax caps each delay, so a dispatch never blocks a caller
// indefinitely.
type Config struct {
	// Deadline bounds a single dispatch attempt: acknowledgment plus
	// execution must finish within it.
	Deadline time.Duration

	// MaxRetries is the number of re-dispatches after the first attempt
	// times out. Zero disables retries.
	MaxRetries int

	// BackoffBase is the delay before the first retry; it doubles per
	// attempt.
	BackoffBase time.Duration

	// BackoffMax caps the exponential backoff delay.
	BackoffMax time.Duration

	// MaxConcurrentSessions bounds how many sessions the protocol drives
	// simultaneously. Zero or negative falls back to the default.
	MaxConcurrentSessions int64

	// OutcomeDimension is the knowledge graph dimension outcome facts are
	// written to.
	OutcomeDimension core.Dimension
}

// DefaultConfig provides conservative defaults suitable for development and
// tests.
var DefaultConfig = Config{
	Deadline:              5 * time.Second,
	MaxRetries:            3,
	BackoffBase:           100 * time.Millisecond,
	BackoffMax:            5 * time.Second,
	MaxConcurrentSessions: 32,
	OutcomeDimension:      core.DimensionCausal,
}

// Options configures a Protocol instance using the functional options
// pattern.
type Options struct {
	// Config contains the timing and retry policy. Defaults to
	// DefaultConfig.
	Config Config

	// Graph receives outcome facts. May be nil, in which case no facts are
	// written.
	Graph core.KnowledgeGraph

	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger

	// Collector receives Prometheus metrics. May be nil.
	Collector *metrics.Collector
}

// WithConfig overrides the protocol policy.
func WithConfig(cfg Config) func(o *Options) {
	return func(o *Options) { o.Config = cfg }
}

// WithGraph sets the knowledge graph outcome facts are written to.
func WithGraph(g core.KnowledgeGraph) func(o *Options) {
	return func(o *Options) { o.Graph = g }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithCollector sets the metrics collector.
func WithCollector(c *metrics.Collector) func(o *Options) {
	return func(o *Options) { o.Collector = c }
}

// Protocol is the handshake coordinator. It owns every live Session, drives
// the reasoning → execution handoff, and guarantees:
//
//   - per-session transitions are strictly ordered and serialized
//   - exactly one terminal state per proposal id
//   - the reasoning role's OnOutcome is invoked exactly once per session,
//     for failures as much as for successes
//   - at most one outcome fact per proposal id reaches the knowledge graph,
//     no matter how many duplicate outcome deliveries arrive
type Protocol struct {
	config    Config
	graph     core.KnowledgeGraph
	logger    logging.Logger
	collector *metrics.Collector

	mu       sync.RWMutex
	sessions map[string]*Session

	sem *semaphore.Weighted
}

// New creates a Protocol with the supplied options.
func New(optFns ...func(o *Options)) *Protocol {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config.MaxConcurrentSessions <= 0 {
		opts.Config.MaxConcurrentSessions = DefaultConfig.MaxConcurrentSessions
	}
	if opts.Config.OutcomeDimension == "" {
		opts.Config.OutcomeDimension = DefaultConfig.OutcomeDimension
	}

	return &Protocol{
		config:    opts.Config,
		graph:     opts.Graph,
		logger:    opts.Logger,
		collector: opts.Collector,
		sessions:  make(map[string]*Session),
		sem:       semaphore.NewWeighted(opts.Config.MaxConcurrentSessions),
	}
}

// Session returns the session for a proposal id, if one exists.
func (p *Protocol) Session(proposalID string) (*Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.sessions[proposalID]
	return s, ok
}

// Archive removes a terminal session from the protocol's registry. It
// reports whether a session was removed; live sessions are never archived.
func (p *Protocol) Archive(proposalID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[proposalID]
	if !ok || !s.State().Terminal() {
		return false
	}
	delete(p.sessions, proposalID)
	return true
}

// Submit opens a session for a proposal and moves it CREATED → PROPOSED.
// Submission is idempotent: resubmitting a proposal id that already has a
// session returns the existing session (whatever its current state) with
// existing=true instead of creating a duplicate.
func (p *Protocol) Submit(proposal *core.Proposal, reasoner core.Reasoner, executor core.Executor) (*Session, bool, error) {
	if proposal == nil || proposal.ID == "" {
		return nil, false, fmt.Errorf("proposal must carry an id")
	}

	p.mu.Lock()
	if existing, ok := p.sessions[proposal.ID]; ok {
		p.mu.Unlock()
		return existing, true, nil
	}
	sess := newSession(proposal, reasoner, executor)
	p.sessions[proposal.ID] = sess
	p.mu.Unlock()

	p.collector.SessionStarted()
	if err := p.transition(sess, StateProposed, ""); err != nil {
		return sess, false, err
	}
	return sess, false, nil
}

// Validate checks the execution role's advertised capabilities against the
// proposal's requirements, moving the session to VALIDATED or to the
// terminal REJECTED state with reason CapabilityMismatch.
func (p *Protocol) Validate(ctx context.Context, sess *Session) error {
	missing := missingCapabilities(sess.proposal, sess.executor)
	if len(missing) == 0 {
		return p.transition(sess, StateValidated, "")
	}

	capErr := &CapabilityMismatchError{ProposalID: sess.id, Missing: missing}
	outcome := core.NewFailureOutcome(sess.id, capErr)
	p.concludeGuarded(ctx, sess, StateRejected, core.ReasonCapabilityMismatch, outcome)
	return capErr
}

// Ack records the execution role's acknowledgment of a dispatched proposal,
// moving the session DISPATCHED → EXECUTING. A duplicate ack for the same
// proposal id is a no-op, not an error.
func (p *Protocol) Ack(proposalID string) error {
	sess, ok := p.Session(proposalID)
	if !ok {
		return &SessionNotFoundError{ProposalID: proposalID}
	}

	if err := sess.beginAdvance(); err != nil {
		return err
	}
	defer sess.endAdvance()

	switch sess.State() {
	case StateDispatched:
		if err := sess.advance(StateExecuting); err != nil {
			return err
		}
		p.observe(sess, StateExecuting, "")
		return nil
	case StateExecuting, StateCompleted:
		// Duplicate ack.
		return nil
	default:
		return &InvalidTransitionError{ProposalID: proposalID, From: sess.State(), To: StateExecuting}
	}
}

// HandleOutcome finalizes a session with an outcome reported by the
// execution role. Duplicate deliveries for the same proposal id are no-ops:
// exactly one outcome fact reaches the knowledge graph and the reasoning
// role is notified exactly once. An outcome arriving while the session is
// still DISPATCHED counts as an implicit acknowledgment.
func (p *Protocol) HandleOutcome(ctx context.Context, outcome core.Outcome) error {
	sess, ok := p.Session(outcome.ProposalID)
	if !ok {
		return &SessionNotFoundError{ProposalID: outcome.ProposalID}
	}

	if err := sess.beginAdvance(); err != nil {
		return err
	}
	defer sess.endAdvance()

	if sess.State().Terminal() {
		// Duplicate delivery.
		return nil
	}

	if sess.State() == StateDispatched {
		if err := sess.advance(StateExecuting); err != nil {
			return err
		}
		p.observe(sess, StateExecuting, "")
	}

	if outcome.Failed() {
		p.conclude(ctx, sess, StateFailed, core.ReasonExecutionFailed, outcome)
		return nil
	}
	p.conclude(ctx, sess, StateCompleted, "", outcome)
	return nil
}

// Cancel cancels a session. Sessions are cancellable from CREATED through
// EXECUTING; after dispatch the execution role receives a best-effort
// cancellation signal (dispatch context cancellation plus CancelProposal for
// executors implementing core.CancelNotifier), but the side effect is not
// guaranteed undone. The session transitions to FAILED with reason Cancelled
// regardless of whether the signal was honored. Cancelling an already
// terminal session is a no-op.
func (p *Protocol) Cancel(ctx context.Context, proposalID string) error {
	sess, ok := p.Session(proposalID)
	if !ok {
		return &SessionNotFoundError{ProposalID: proposalID}
	}

	if err := sess.beginAdvance(); err != nil {
		return err
	}
	defer sess.endAdvance()

	if sess.State().Terminal() {
		return nil
	}

	sess.signalCancel()
	if notifier, ok := sess.executor.(core.CancelNotifier); ok {
		notifier.CancelProposal(proposalID)
	}

	outcome := core.NewFailureOutcome(proposalID, fmt.Errorf("session cancelled"))
	p.conclude(ctx, sess, StateFailed, core.ReasonCancelled, outcome)
	return nil
}

// Run drives one full session lifecycle: it asks the reasoning role for a
// proposal derived from the snapshot, validates it, dispatches it to the
// execution role under the deadline/retry policy, and finalizes the session.
// The returned outcome mirrors what the reasoning role received through
// OnOutcome. Run blocks for at most the protocol's deadline and retry
// budget.
func (p *Protocol) Run(ctx context.Context, reasoner core.Reasoner, executor core.Executor, snapshot core.Snapshot) (*Session, core.Outcome, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, core.Outcome{}, err
	}
	defer p.sem.Release(1)

	proposal, err := reasoner.Propose(ctx, snapshot)
	if err != nil {
		return nil, core.Outcome{}, fmt.Errorf("reasoning role failed to propose: %w", err)
	}

	sess, existing, err := p.Submit(proposal, reasoner, executor)
	if err != nil {
		return sess, core.Outcome{}, err
	}
	if existing {
		// Idempotent resubmit: report the existing session's current state
		// instead of creating a duplicate.
		if outcome, ok := sess.Outcome(); ok {
			return sess, outcome, nil
		}
		return sess, core.Outcome{}, nil
	}

	if err := p.Validate(ctx, sess); err != nil {
		outcome, _ := sess.Outcome()
		return sess, outcome, nil
	}

	outcome := p.dispatch(ctx, sess)
	return sess, outcome, nil
}

// dispatch hands the proposal to the execution role under the deadline and
// retry policy and returns the terminal outcome.
func (p *Protocol) dispatch(ctx context.Context, sess *Session) core.Outcome {
	proposal := sess.proposal

	for attempt := 0; ; attempt++ {
		if err := p.transition(sess, StateDispatched, ""); err != nil {
			// A concurrent cancel (or similar) already finalized the
			// session.
			if outcome, ok := sess.Outcome(); ok {
				return outcome
			}
			outcome := core.NewFailureOutcome(sess.id, err)
			p.concludeGuarded(ctx, sess, StateFailed, core.ReasonExecutionFailed, outcome)
			final, _ := sess.Outcome()
			return final
		}

		dispatchCtx, cancel := context.WithTimeout(ctx, p.config.Deadline)
		sess.setCancel(cancel)

		outcome, timedOut := p.attempt(dispatchCtx, sess, proposal)
		cancel()
		sess.setCancel(nil)

		if !timedOut {
			return outcome
		}

		// Parent cancellation is not a timeout; treat it as a cancelled
		// session rather than burning the retry budget.
		if ctx.Err() != nil {
			failure := core.NewFailureOutcome(sess.id, ctx.Err())
			p.concludeGuarded(ctx, sess, StateFailed, core.ReasonCancelled, failure)
			final, _ := sess.Outcome()
			return final
		}

		if err := p.transition(sess, StateTimedOut, ""); err != nil {
			if final, ok := sess.Outcome(); ok {
				return final
			}
		}

		if attempt >= p.config.MaxRetries {
			p.logger.Warn("session %s exhausted %d dispatch attempts", sess.id, attempt+1)
			failure := core.NewFailureOutcome(sess.id, fmt.Errorf("no outcome after %d attempts", attempt+1))
			p.concludeGuarded(ctx, sess, StateFailed, core.ReasonDeadlineExceeded, failure)
			final, _ := sess.Outcome()
			return final
		}

		if err := sleep(ctx, backoffDelay(p.config.BackoffBase, p.config.BackoffMax, attempt)); err != nil {
			failure := core.NewFailureOutcome(sess.id, err)
			p.concludeGuarded(ctx, sess, StateFailed, core.ReasonCancelled, failure)
			final, _ := sess.Outcome()
			return final
		}
	}
}

// attempt performs a single dispatch attempt: acknowledgment, execution and
// outcome collection, all bounded by the dispatch context deadline. It
// returns timedOut=true when the deadline elapsed without a usable outcome;
// in every other case the session has been concluded and the terminal
// outcome is returned.
func (p *Protocol) attempt(dispatchCtx context.Context, sess *Session, proposal *core.Proposal) (core.Outcome, bool) {
	ack, err := sess.executor.Accept(dispatchCtx, proposal)
	if err != nil {
		if dispatchCtx.Err() != nil {
			return core.Outcome{}, true
		}
		failure := core.NewFailureOutcome(sess.id, fmt.Errorf("execution role refused proposal: %w", err))
		p.concludeGuarded(dispatchCtx, sess, StateFailed, core.ReasonExecutionFailed, failure)
		final, _ := sess.Outcome()
		return final, false
	}
	p.logger.Debug("proposal %s acknowledged by %s", proposal.ID, ack.Executor)

	if ackErr := p.Ack(proposal.ID); ackErr != nil {
		if final, ok := sess.Outcome(); ok {
			return final, false
		}
		failure := core.NewFailureOutcome(sess.id, ackErr)
		p.concludeGuarded(dispatchCtx, sess, StateFailed, core.ReasonExecutionFailed, failure)
		final, _ := sess.Outcome()
		return final, false
	}

	outCh, errCh := sess.executor.Execute(dispatchCtx, proposal)
	for {
		select {
		case outcome, ok := <-outCh:
			if !ok {
				outCh = nil
				if errCh == nil {
					return p.malformed(dispatchCtx, sess, fmt.Errorf("execution finished without reporting an outcome")), false
				}
				continue
			}
			if outcome.ProposalID != proposal.ID {
				return p.malformed(dispatchCtx, sess, fmt.Errorf("outcome for proposal %s delivered to session %s", outcome.ProposalID, proposal.ID)), false
			}
			if err := p.HandleOutcome(dispatchCtx, outcome); err != nil {
				p.logger.Warn("outcome for proposal %s not applied: %v", proposal.ID, err)
			}
			final, _ := sess.Outcome()
			return final, false

		case execErr, ok := <-errCh:
			if !ok {
				errCh = nil
				if outCh == nil {
					return p.malformed(dispatchCtx, sess, fmt.Errorf("execution finished without reporting an outcome")), false
				}
				continue
			}
			if execErr == nil {
				continue
			}
			failure := core.NewFailureOutcome(sess.id, execErr)
			p.concludeGuarded(dispatchCtx, sess, StateFailed, core.ReasonExecutionFailed, failure)
			final, _ := sess.Outcome()
			return final, false

		case <-dispatchCtx.Done():
			return core.Outcome{}, true
		}
	}
}

// malformed concludes a session with a MalformedOutcome failure.
func (p *Protocol) malformed(ctx context.Context, sess *Session, err error) core.Outcome {
	failure := core.NewFailureOutcome(sess.id, err)
	p.concludeGuarded(ctx, sess, StateFailed, core.ReasonMalformedOutcome, failure)
	final, _ := sess.Outcome()
	return final
}

// transition advances a session to a non-terminal state under the
// advancement guard.
func (p *Protocol) transition(sess *Session, to State, reason core.FailureReason) error {
	if err := sess.beginAdvance(); err != nil {
		return err
	}
	defer sess.endAdvance()

	if err := sess.advance(to); err != nil {
		return err
	}
	p.observe(sess, to, reason)
	return nil
}

// concludeGuarded is conclude behind the advancement guard, for paths that
// do not already hold it. When the guard is contested the other party is
// finalizing the session itself, so losing it is not an error.
func (p *Protocol) concludeGuarded(ctx context.Context, sess *Session, to State, reason core.FailureReason, outcome core.Outcome) {
	if err := sess.beginAdvance(); err != nil {
		return
	}
	defer sess.endAdvance()
	p.conclude(ctx, sess, to, reason, outcome)
}

// conclude finalizes a session and, when it wins the terminal transition,
// performs the exactly-once side effects: the outcome fact is written to the
// knowledge graph and the reasoning role is notified. Callers must hold the
// advancement guard.
func (p *Protocol) conclude(ctx context.Context, sess *Session, to State, reason core.FailureReason, outcome core.Outcome) {
	if !sess.finalize(to, reason, outcome) {
		return
	}
	p.observe(sess, to, reason)
	p.collector.SessionFinished()
	p.writeFact(sess, outcome, reason)
	if sess.reasoner != nil {
		sess.reasoner.OnOutcome(ctx, outcome)
	}
}

// writeFact records the terminal outcome as a proposal → outcome fact pair
// in the knowledge graph. Graph errors are logged, never fatal: the session
// is already terminal and the reasoning role still gets its notification.
func (p *Protocol) writeFact(sess *Session, outcome core.Outcome, reason core.FailureReason) {
	if p.graph == nil {
		return
	}
	dim := p.config.OutcomeDimension
	proposalNode := "proposal:" + sess.id
	outcomeNode := "outcome:" + sess.id

	if err := p.graph.UpsertNode(dim, proposalNode, "proposal", map[string]any{
		"action":      sess.proposal.Action,
		"snapshot_id": sess.proposal.SnapshotID,
	}); err != nil {
		p.logger.Error("failed to record proposal fact for %s: %v", sess.id, err)
		return
	}
	if err := p.graph.UpsertNode(dim, outcomeNode, "outcome", map[string]any{
		"status":   string(outcome.Status),
		"error":    outcome.Error,
		"reason":   string(reason),
		"attempts": sess.Attempts(),
	}); err != nil {
		p.logger.Error("failed to record outcome fact for %s: %v", sess.id, err)
		return
	}
	if err := p.graph.UpsertEdge(dim, proposalNode, outcomeNode, "yields", nil); err != nil {
		p.logger.Error("failed to link outcome fact for %s: %v", sess.id, err)
	}
}

// observe logs and counts a transition.
func (p *Protocol) observe(sess *Session, to State, reason core.FailureReason) {
	p.collector.ObserveTransition(to.String())
	if reason != "" {
		p.logger.Info("session %s -> %s (%s)", sess.id, to, reason)
		return
	}
	p.logger.Debug("session %s -> %s", sess.id, to)
}

// missingCapabilities returns the required capabilities the execution role
// does not advertise.
func missingCapabilities(proposal *core.Proposal, executor core.Executor) []string {
	advertised := make(map[core.CapabilityTag]bool)
	for _, tag := range executor.Capabilities() {
		advertised[tag] = true
	}
	var missing []string
	for _, tag := range proposal.Requires {
		if !advertised[tag] {
			missing = append(missing, string(tag))
		}
	}
	return missing
}
