package router

import (
	"context"
	"sync"
	"time"

	"github.com/imran-siddique/mute-agent/core"
	"github.com/imran-siddique/mute-agent/logging"
	"github.com/imran-siddique/mute-agent/metrics"
)

// Target handles requests routed to it. A target is either a coordination
// triad (reasoning/execution pair behind a handshake protocol) or a nested
// *Router, which is what enables tree-structured hierarchical delegation.
type Target interface {
	// Name identifies the target in logs and cycle reports.
	Name() string
	// Handle processes the request and resolves to a success payload or a
	// structured failure reason. It must not block indefinitely; triad
	// targets are bounded by the handshake deadline and retry budget.
	Handle(ctx context.Context, req core.Request) (core.Result, error)
}

// Classifier derives the route key from a request. The default classifier
// reads the request's Classification field; callers with richer schemes can
// substitute their own.
type Classifier func(req core.Request) string

// Options configures a Router.
type Options struct {
	// Classifier derives route keys from requests. Defaults to reading
	// req.Classification.
	Classifier Classifier

	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger

	// Collector receives dispatch metrics. May be nil.
	Collector *metrics.Collector
}

// WithClassifier overrides the request classifier.
func WithClassifier(c Classifier) func(o *Options) {
	return func(o *Options) { o.Classifier = c }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithCollector sets the metrics collector.
func WithCollector(c *metrics.Collector) func(o *Options) {
	return func(o *Options) { o.Collector = c }
}

// Router directs requests to registered targets. The route table is mutated
// only by explicit Register calls and is read-only during dispatch; reads
// take a shared lock so concurrent dispatches never block each other, while
// registrations serialize against every other registration in the process
// (see registerMu).
type Router struct {
	name      string
	classify  Classifier
	logger    logging.Logger
	collector *metrics.Collector

	mu     sync.RWMutex
	routes map[string]Target
}

var _ Target = (*Router)(nil)

// registerMu serializes Register calls across every router in the process.
// The cycle walk reads other routers' tables, so per-router locking alone
// would let two concurrent mutual registrations acquire locks in opposite
// orders and deadlock. One forest-wide mutex keeps the walk race-free; the
// dispatch path is unaffected, it only ever takes per-router read locks.
var registerMu sync.Mutex

// New creates a named Router.
func New(name string, optFns ...func(o *Options)) *Router {
	opts := Options{
		Classifier: func(req core.Request) string { return req.Classification },
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Router{
		name:      name,
		classify:  opts.Classifier,
		logger:    opts.Logger,
		collector: opts.Collector,
		routes:    make(map[string]Target),
	}
}

// Name identifies the router; it implements Target so routers can nest.
func (r *Router) Name() string { return r.name }

// Register maps a classification to a target. The last registration wins:
// overwriting is allowed and the previous target (nil when the key was
// unbound) is returned so callers observe the replacement. Registrations
// that would create a cycle between nested routers, directly or through any
// chain of routers, are rejected with *RoutingCycleError before the table
// is touched, so cycles can never surface at dispatch time.
func (r *Router) Register(classification string, target Target) (Target, error) {
	registerMu.Lock()
	defer registerMu.Unlock()

	if path, cyclic := r.findCycle(target); cyclic {
		return nil, &RoutingCycleError{Classification: classification, Path: append([]string{r.name}, path...)}
	}

	// The walk holds no lock on r, so the table lock is only needed for the
	// insert itself.
	r.mu.Lock()
	prev := r.routes[classification]
	r.routes[classification] = target
	r.mu.Unlock()

	if prev != nil {
		r.logger.Info("route %q overwritten: %s -> %s", classification, prev.Name(), target.Name())
	} else {
		r.logger.Debug("route %q registered: %s", classification, target.Name())
	}
	return prev, nil
}

// Dispatch classifies the request, looks up the route and hands the request
// to the matched target. An unmatched classification fails with
// *NoRouteError: there is no silent default route.
func (r *Router) Dispatch(ctx context.Context, req core.Request) (core.Result, error) {
	classification := r.classify(req)

	r.mu.RLock()
	target, ok := r.routes[classification]
	r.mu.RUnlock()

	if !ok {
		r.collector.ObserveDispatch(classification, "no_route")
		return core.Result{}, &NoRouteError{Classification: classification}
	}

	start := time.Now()
	result, err := target.Handle(ctx, req)
	if err != nil {
		r.collector.ObserveDispatch(classification, "error")
		r.logger.Error("dispatch of request %s to %s failed after %s: %v", req.ID, target.Name(), time.Since(start), err)
		return result, err
	}

	if result.Failed() {
		r.collector.ObserveDispatch(classification, "failure")
	} else {
		r.collector.ObserveDispatch(classification, "ok")
	}
	r.logger.Debug("dispatched request %s to %s in %s", req.ID, target.Name(), time.Since(start))
	return result, nil
}

// Handle implements Target by delegating to Dispatch, so a Router can be
// registered as a target of another Router.
func (r *Router) Handle(ctx context.Context, req core.Request) (core.Result, error) {
	return r.Dispatch(ctx, req)
}

// findCycle reports whether routing through the candidate target can reach
// this router again. Only nested routers are walked; triad targets are
// leaves. The walk is depth-bounded as a second line of defense, though the
// registration-time check itself keeps the routing forest acyclic.
func (r *Router) findCycle(target Target) ([]string, bool) {
	const maxHops = 64
	return walk(target, r, nil, maxHops)
}

func walk(target Target, origin *Router, path []string, budget int) ([]string, bool) {
	nested, ok := target.(*Router)
	if !ok {
		return nil, false
	}
	path = append(path, nested.name)
	if nested == origin || budget <= 0 {
		return path, true
	}

	nested.mu.RLock()
	children := make([]Target, 0, len(nested.routes))
	for _, child := range nested.routes {
		children = append(children, child)
	}
	nested.mu.RUnlock()

	for _, child := range children {
		if cyclePath, cyclic := walk(child, origin, path, budget-1); cyclic {
			return cyclePath, true
		}
	}
	return nil, false
}
