package graph

import (
	"sync"

	"github.com/imran-siddique/mute-agent/core"
)

// observer buffers change log entries for one subscriber. Mutations never
// block on a slow consumer: publish appends to the pending queue and a drain
// goroutine feeds the channel in order. Delivery is at-least-once; consumers
// deduplicate by change id.
type observer struct {
	ch       chan core.Change
	mu       sync.Mutex
	pending  []core.Change
	draining bool
	done     chan struct{}
	closed   bool
}

// Subscribe registers a change observer and returns its channel plus a cancel
// function. The buffer sizes the delivery channel; pending changes beyond the
// buffer queue up internally rather than being dropped. After cancel the
// channel is closed and no further changes are delivered.
func (g *InMemoryGraph) Subscribe(buffer int) (<-chan core.Change, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	obs := &observer{
		ch:   make(chan core.Change, buffer),
		done: make(chan struct{}),
	}

	g.obsMu.Lock()
	id := g.nextObsID
	g.nextObsID++
	g.observers[id] = obs
	g.obsMu.Unlock()

	cancel := func() {
		g.obsMu.Lock()
		if _, ok := g.observers[id]; !ok {
			g.obsMu.Unlock()
			return
		}
		delete(g.observers, id)
		g.obsMu.Unlock()

		obs.mu.Lock()
		obs.closed = true
		close(obs.done)
		if !obs.draining {
			close(obs.ch)
		}
		obs.mu.Unlock()
	}

	return obs.ch, cancel
}

// publish fans a change out to every registered observer.
func (g *InMemoryGraph) publish(change core.Change) {
	g.obsMu.Lock()
	targets := make([]*observer, 0, len(g.observers))
	for _, obs := range g.observers {
		targets = append(targets, obs)
	}
	g.obsMu.Unlock()

	for _, obs := range targets {
		obs.enqueue(change)
	}
}

// enqueue appends a change to the pending queue and starts the drain
// goroutine if none is running.
func (o *observer) enqueue(change core.Change) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.pending = append(o.pending, change)
	if o.draining {
		o.mu.Unlock()
		return
	}
	o.draining = true
	o.mu.Unlock()

	go o.drain()
}

// drain delivers pending changes in order until the queue empties or the
// observer is cancelled.
func (o *observer) drain() {
	for {
		o.mu.Lock()
		if o.closed {
			o.draining = false
			close(o.ch)
			o.mu.Unlock()
			return
		}
		if len(o.pending) == 0 {
			o.draining = false
			o.mu.Unlock()
			return
		}
		next := o.pending[0]
		o.pending = o.pending[1:]
		o.mu.Unlock()

		select {
		case o.ch <- next:
		case <-o.done:
			o.mu.Lock()
			o.draining = false
			close(o.ch)
			o.mu.Unlock()
			return
		}
	}
}
