package router

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/imran-siddique/mute-agent/core"
)

// MockTarget for asserting dispatch interactions
type MockTarget struct {
	mock.Mock
	name string
}

func NewMockTarget(name string) *MockTarget {
	return &MockTarget{name: name}
}

func (m *MockTarget) Name() string { return m.name }

func (m *MockTarget) Handle(ctx context.Context, req core.Request) (core.Result, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(core.Result), args.Error(1)
}

// echoTarget resolves every request with its own name, so tests can assert
// which leaf a dispatch reached.
type echoTarget struct {
	name string
	err  error
}

func (t *echoTarget) Name() string { return t.name }

func (t *echoTarget) Handle(_ context.Context, req core.Request) (core.Result, error) {
	if t.err != nil {
		return core.Result{}, t.err
	}
	return core.Result{Payload: map[string]any{"handled_by": t.name, "request": req.ID}}, nil
}

var _ Target = (*echoTarget)(nil)

func TestRouter_RegisterReturnsPrevious(t *testing.T) {
	r := New("root")

	first := &echoTarget{name: "first"}
	prev, err := r.Register("infra", first)
	require.NoError(t, err)
	assert.Nil(t, prev, "fresh classification has no previous target")

	second := &echoTarget{name: "second"}
	prev, err = r.Register("infra", second)
	require.NoError(t, err)
	assert.Same(t, first, prev, "overwrite returns the replaced target")

	result, err := r.Dispatch(context.Background(), core.NewRequest("infra", nil))
	require.NoError(t, err)
	assert.Equal(t, "second", result.Payload["handled_by"], "last registration wins")
}

func TestRouter_DispatchReachesTarget(t *testing.T) {
	r := New("root")
	target := NewMockTarget("leaf")
	_, err := r.Register("infra", target)
	require.NoError(t, err)

	req := core.NewRequest("infra", map[string]any{"task": "restart"})
	target.On("Handle", mock.Anything, req).Return(core.Result{SessionID: "s-1"}, nil)

	result, err := r.Dispatch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "s-1", result.SessionID)
	target.AssertExpectations(t)
}

func TestRouter_DispatchNoRoute(t *testing.T) {
	r := New("root")
	_, err := r.Register("known", &echoTarget{name: "leaf"})
	require.NoError(t, err)

	_, err = r.Dispatch(context.Background(), core.NewRequest("unknown", nil))
	var noRoute *NoRouteError
	require.ErrorAs(t, err, &noRoute)
	assert.Equal(t, "unknown", noRoute.Classification)
}

func TestRouter_DispatchPropagatesTargetError(t *testing.T) {
	r := New("root")
	boom := fmt.Errorf("target exploded")
	_, err := r.Register("infra", &echoTarget{name: "leaf", err: boom})
	require.NoError(t, err)

	_, err = r.Dispatch(context.Background(), core.NewRequest("infra", nil))
	assert.ErrorIs(t, err, boom)
}

func TestRouter_HierarchicalDispatch(t *testing.T) {
	root := New("root")
	infra := New("infra")
	leaf := &echoTarget{name: "deployer"}

	_, err := infra.Register("deploy", leaf)
	require.NoError(t, err)
	_, err = root.Register("infra", infra)
	require.NoError(t, err)

	// The nested router re-classifies with its own classifier, so a request
	// whose classification only matches the outer level dead-ends inside.
	_, err = root.Dispatch(context.Background(), core.NewRequest("infra", nil))
	var noRoute *NoRouteError
	require.ErrorAs(t, err, &noRoute, "inner router has no route for the outer classification")

	// A classifier that peels nested keys lets one request traverse levels.
	nested := New("nested", WithClassifier(func(req core.Request) string {
		sub, _ := req.Payload["sub"].(string)
		return sub
	}))
	_, err = nested.Register("deploy", leaf)
	require.NoError(t, err)
	_, err = root.Register("platform", nested)
	require.NoError(t, err)

	result, err := root.Dispatch(context.Background(), core.Request{
		ID:             core.NewID(),
		Classification: "platform",
		Payload:        map[string]any{"sub": "deploy"},
	})
	require.NoError(t, err)
	assert.Equal(t, "deployer", result.Payload["handled_by"])
}

func TestRouter_SelfRegistrationIsCyclic(t *testing.T) {
	r := New("root")
	_, err := r.Register("loop", r)
	var cycle *RoutingCycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"root", "root"}, cycle.Path)
}

func TestRouter_MutualRegistrationIsCyclic(t *testing.T) {
	a := New("a")
	b := New("b")

	_, err := a.Register("to-b", b)
	require.NoError(t, err)

	_, err = b.Register("to-a", a)
	var cycle *RoutingCycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, "to-a", cycle.Classification)
	assert.Contains(t, cycle.Path, "a")
	assert.Contains(t, cycle.Path, "b")

	// The rejected registration left b's table untouched.
	_, err = b.Dispatch(context.Background(), core.NewRequest("to-a", nil))
	var noRoute *NoRouteError
	assert.ErrorAs(t, err, &noRoute)
}

func TestRouter_TransitiveCycleDetected(t *testing.T) {
	a := New("a")
	b := New("b")
	c := New("c")

	_, err := a.Register("next", b)
	require.NoError(t, err)
	_, err = b.Register("next", c)
	require.NoError(t, err)

	// c -> a closes the loop a -> b -> c -> a.
	_, err = c.Register("next", a)
	var cycle *RoutingCycleError
	require.ErrorAs(t, err, &cycle)
}

func TestRouter_ConcurrentMutualRegistration(t *testing.T) {
	// Two routers registering each other from separate goroutines must always
	// terminate: one registration wins, the other closes the loop and is
	// rejected. A lock-ordering bug here wedges both routers forever, so the
	// iterations run under a watchdog.
	for i := 0; i < 500; i++ {
		a := New("a")
		b := New("b")

		errs := make(chan error, 2)
		go func() {
			_, err := a.Register("to-b", b)
			errs <- err
		}()
		go func() {
			_, err := b.Register("to-a", a)
			errs <- err
		}()

		cycles := 0
		for j := 0; j < 2; j++ {
			select {
			case err := <-errs:
				if err != nil {
					var cycle *RoutingCycleError
					require.ErrorAs(t, err, &cycle)
					cycles++
				}
			case <-time.After(3 * time.Second):
				t.Fatalf("iteration %d: concurrent mutual registration deadlocked", i)
			}
		}
		assert.Equal(t, 1, cycles, "iteration %d: exactly one registration closes the loop", i)

		// Both routers stay serviceable afterwards.
		_, err := a.Dispatch(context.Background(), core.NewRequest("nowhere", nil))
		var noRoute *NoRouteError
		assert.ErrorAs(t, err, &noRoute)
	}
}

func TestRouter_ConcurrentDispatch(t *testing.T) {
	r := New("root")
	_, err := r.Register("infra", &echoTarget{name: "leaf"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Dispatch(context.Background(), core.NewRequest("infra", nil))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
