package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveTransition("COMPLETED")
	c.ObserveDispatch("infra", "ok")
	c.ObserveGraphMutation("node_upserted", "semantic")
	c.SessionStarted()
	c.SessionFinished()
}

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveTransition("COMPLETED")
	c.ObserveTransition("COMPLETED")
	c.ObserveDispatch("infra", "ok")
	c.ObserveGraphMutation("node_upserted", "semantic")
	c.SessionStarted()
	c.SessionStarted()
	c.SessionFinished()

	assert.Equal(t, float64(2), testutil.ToFloat64(c.transitions.WithLabelValues("COMPLETED")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.dispatches.WithLabelValues("infra", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.graphMutations.WithLabelValues("node_upserted", "semantic")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.activeSessions))
}
