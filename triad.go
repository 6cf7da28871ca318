package muteagent

import (
	"context"

	"github.com/imran-siddique/mute-agent/core"
	"github.com/imran-siddique/mute-agent/handshake"
	"github.com/imran-siddique/mute-agent/logging"
	"github.com/imran-siddique/mute-agent/metrics"
	"github.com/imran-siddique/mute-agent/router"
)

// TriadOptions configures a Triad.
type TriadOptions struct {
	// Graph is the knowledge store the triad reads context from and the
	// protocol writes outcome facts to. May be nil for stateless triads.
	Graph core.KnowledgeGraph

	// Policy is the handshake timing and retry policy.
	Policy handshake.Config

	// SnapshotDimensions are the graph dimensions captured into the
	// context snapshot handed to the reasoning role. Empty means all.
	SnapshotDimensions []core.Dimension

	// RequestDimension is the dimension incoming request payloads are
	// recorded in before the snapshot is taken, so the reasoning role sees
	// the request through the graph. Defaults to core.DimensionSemantic.
	RequestDimension core.Dimension

	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger

	// Collector receives Prometheus metrics. May be nil.
	Collector *metrics.Collector
}

// WithTriadGraph sets the triad's knowledge graph.
func WithTriadGraph(g core.KnowledgeGraph) func(o *TriadOptions) {
	return func(o *TriadOptions) { o.Graph = g }
}

// WithTriadPolicy sets the handshake policy.
func WithTriadPolicy(cfg handshake.Config) func(o *TriadOptions) {
	return func(o *TriadOptions) { o.Policy = cfg }
}

// WithTriadSnapshotDimensions restricts the context snapshot to the given
// dimensions.
func WithTriadSnapshotDimensions(dims ...core.Dimension) func(o *TriadOptions) {
	return func(o *TriadOptions) { o.SnapshotDimensions = dims }
}

// WithTriadLogger sets the structured logger.
func WithTriadLogger(l logging.Logger) func(o *TriadOptions) {
	return func(o *TriadOptions) { o.Logger = l }
}

// WithTriadCollector sets the metrics collector.
func WithTriadCollector(c *metrics.Collector) func(o *TriadOptions) {
	return func(o *TriadOptions) { o.Collector = c }
}

// Triad binds a Reasoning/Execution role pair to a handshake protocol and
// implements router.Target, so a triad can be registered directly in a
// routing table (including under nested routers for hierarchical
// delegation).
//
// Handling a request follows the canonical control flow: the request is
// recorded in the knowledge graph, a context snapshot is materialized, the
// protocol drives propose → validate → dispatch → execute → finalize, and
// the terminal outcome is mapped onto a router result.
type Triad struct {
	name     string
	reasoner core.Reasoner
	executor core.Executor
	protocol *handshake.Protocol
	opts     TriadOptions
}

var _ router.Target = (*Triad)(nil)

// NewTriad constructs a Triad for the given role pair.
func NewTriad(name string, reasoner core.Reasoner, executor core.Executor, optFns ...func(o *TriadOptions)) *Triad {
	opts := TriadOptions{
		Policy:           handshake.DefaultConfig,
		RequestDimension: core.DimensionSemantic,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	protocol := handshake.New(
		handshake.WithConfig(opts.Policy),
		handshake.WithGraph(opts.Graph),
		handshake.WithLogger(opts.Logger),
		handshake.WithCollector(opts.Collector),
	)

	return &Triad{
		name:     name,
		reasoner: reasoner,
		executor: executor,
		protocol: protocol,
		opts:     opts,
	}
}

// Name identifies the triad in routing tables and logs.
func (t *Triad) Name() string { return t.name }

// Protocol exposes the triad's handshake protocol, e.g. for cancelling or
// inspecting sessions.
func (t *Triad) Protocol() *handshake.Protocol { return t.protocol }

// Handle implements router.Target.
func (t *Triad) Handle(ctx context.Context, req core.Request) (core.Result, error) {
	snapshot, err := t.prepareContext(req)
	if err != nil {
		return core.Result{}, err
	}

	sess, outcome, err := t.protocol.Run(ctx, t.reasoner, t.executor, snapshot)
	if err != nil {
		return core.Result{}, err
	}

	result := core.Result{Payload: outcome.Result}
	if sess != nil {
		result.SessionID = sess.ID()
		result.Reason = sess.Reason()
	}
	if outcome.Failed() {
		result.Detail = outcome.Error
	}
	return result, nil
}

// prepareContext records the request in the graph and materializes the
// context snapshot the reasoning role proposes from.
func (t *Triad) prepareContext(req core.Request) (core.Snapshot, error) {
	if t.opts.Graph == nil {
		return nil, nil
	}
	if err := t.opts.Graph.UpsertNode(t.opts.RequestDimension, "request:"+req.ID, "request", req.Payload); err != nil {
		return nil, err
	}
	return t.opts.Graph.Snapshot(t.opts.SnapshotDimensions...)
}
