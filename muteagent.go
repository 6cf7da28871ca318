// Package muteagent provides a high-level façade over the coordination
// triad: the multidimensional knowledge graph, the handshake protocol
// governing the reasoning ↔ execution handoff, and the super-system router.
// Most applications interact with this package by:
//  1. Creating a System via New() (optionally overriding the default
//     in-memory graph, logger, policy or metrics)
//  2. Registering one or more triads (a Reasoning/Execution role pair) or
//     nested routers under request classifications
//  3. Dispatching requests and consuming the resulting success payloads or
//     structured failure reasons
//
// The façade delegates storage to graph.InMemoryGraph, per-unit-of-work
// coordination to handshake.Protocol and dispatch to router.Router while
// keeping setup ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a durable
// graph implementation, a structured logger and a metrics registerer.
package muteagent

import (
	"context"

	"github.com/imran-siddique/mute-agent/core"
	"github.com/imran-siddique/mute-agent/graph"
	"github.com/imran-siddique/mute-agent/handshake"
	"github.com/imran-siddique/mute-agent/logging"
	"github.com/imran-siddique/mute-agent/metrics"
	"github.com/imran-siddique/mute-agent/router"
)

// Options configures the System instance.
type Options struct {
	// Graph is the shared knowledge store. Defaults to an in-memory graph.
	Graph core.KnowledgeGraph

	// Policy is the handshake timing and retry policy applied to every
	// triad registered through the System. Defaults to
	// handshake.DefaultConfig.
	Policy handshake.Config

	// Logger provides structured logging. Defaults to NoOp logger if nil.
	Logger logging.Logger

	// Collector receives Prometheus metrics. May be nil.
	Collector *metrics.Collector

	// RouterName names the root router in logs and cycle reports.
	RouterName string
}

// WithGraph overrides the shared knowledge graph.
func WithGraph(g core.KnowledgeGraph) func(o *Options) {
	return func(o *Options) { o.Graph = g }
}

// WithPolicy overrides the handshake policy.
func WithPolicy(cfg handshake.Config) func(o *Options) {
	return func(o *Options) { o.Policy = cfg }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithCollector sets the metrics collector.
func WithCollector(c *metrics.Collector) func(o *Options) {
	return func(o *Options) { o.Collector = c }
}

// System is the high-level façade aggregating the knowledge graph, the root
// router and the handshake policy shared by registered triads.
type System struct {
	opts   Options
	graph  core.KnowledgeGraph
	router *router.Router
}

// New creates a System with optional overrides. Any unset service falls back
// to a safe in-memory default.
func New(optFns ...func(o *Options)) *System {
	opts := Options{
		Policy:     handshake.DefaultConfig,
		Logger:     logging.NoOpLogger{},
		RouterName: "root",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Graph == nil {
		opts.Graph = graph.NewInMemoryGraph(
			graph.WithLogger(opts.Logger),
			graph.WithCollector(opts.Collector),
		)
	}

	return &System{
		opts:  opts,
		graph: opts.Graph,
		router: router.New(opts.RouterName,
			router.WithLogger(opts.Logger),
			router.WithCollector(opts.Collector),
		),
	}
}

// Graph returns the shared knowledge graph.
func (s *System) Graph() core.KnowledgeGraph { return s.graph }

// Router returns the root router, e.g. for nesting it under another system.
func (s *System) Router() *router.Router { return s.router }

// RegisterTriad builds a Triad for the role pair, backed by the system's
// graph and policy, and registers it under the classification. The previous
// target for the classification (nil when unbound) is returned alongside the
// new triad.
func (s *System) RegisterTriad(classification, name string, reasoner core.Reasoner, executor core.Executor) (*Triad, router.Target, error) {
	triad := NewTriad(name, reasoner, executor,
		WithTriadGraph(s.graph),
		WithTriadPolicy(s.opts.Policy),
		WithTriadLogger(s.opts.Logger),
		WithTriadCollector(s.opts.Collector),
	)
	prev, err := s.router.Register(classification, triad)
	if err != nil {
		return nil, nil, err
	}
	return triad, prev, nil
}

// RegisterRoute registers an arbitrary target (typically a nested router)
// under a classification, returning the previous target.
func (s *System) RegisterRoute(classification string, target router.Target) (router.Target, error) {
	return s.router.Register(classification, target)
}

// Dispatch routes a request through the root router and resolves to a
// success payload or a structured failure reason. It never blocks
// indefinitely: triad targets are bounded by the handshake deadline and
// retry budget.
func (s *System) Dispatch(ctx context.Context, req core.Request) (core.Result, error) {
	return s.router.Dispatch(ctx, req)
}
