package scheduler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/rendergraph/internal/condition"
	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/connection"
	"github.com/vk/rendergraph/internal/graph"
	"github.com/vk/rendergraph/internal/node"
	"github.com/vk/rendergraph/internal/nodeid"
	"github.com/vk/rendergraph/internal/scheduler"
	"github.com/vk/rendergraph/internal/statechange"
	"github.com/vk/rendergraph/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	graph *graph.Graph
	sched *scheduler.Scheduler
	store *config.Store
}

func newFixture(t *testing.T, opts ...scheduler.Option) *fixture {
	g := graph.New()
	return &fixture{
		t:     t,
		ctx:   testutil.Context(),
		graph: g,
		sched: scheduler.New(g, opts...),
		store: config.NewStore(),
	}
}

// chainNode adds a node with a buffer input on slot 0 (unless it is a
// source) and a buffer output on slot 0.
func (f *fixture) chainNode(id string, source bool) (*node.Node, *testutil.FakePass) {
	f.t.Helper()
	n, pass := testutil.NewNode(f.t, id)
	if !source {
		require.NoError(f.t, n.AddInputBufferConnection(0))
	}
	require.NoError(f.t, n.AddOutputBufferConnection(0, connection.Buffer{ID: "fbo." + n.Address().Name, Scale: 1}))
	require.NoError(f.t, f.graph.AddNode(f.ctx, n))
	return n, pass
}

func (f *fixture) connect(from string, outSlot int, to string, inSlot int) {
	f.t.Helper()
	require.NoError(f.t, f.graph.Connect(f.ctx, nodeid.MustParse(from), outSlot, nodeid.MustParse(to), inSlot))
}

// abc builds A -> B -> C with B gated on the "b.enabled" property.
func (f *fixture) abc() {
	f.t.Helper()
	f.store.Define("b.enabled", cty.True)
	f.chainNode("engine:a", true)
	b, _ := f.chainNode("engine:b", false)
	f.chainNode("engine:c", false)
	b.RequiresStoreCondition(f.store, condition.Property(f.store, "b.enabled"))
	f.connect("engine:a", 0, "engine:b", 0)
	f.connect("engine:b", 0, "engine:c", 0)
	require.NoError(f.t, f.graph.Finalize(f.ctx))
}

func TestTaskList_ChainOrder(t *testing.T) {
	f := newFixture(t)
	f.abc()

	list, err := f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"engine:a", "engine:b", "engine:c"}, list.NodeIDs())
	assert.False(t, f.sched.IsDirty())

	step, ok := list.Step("engine:c")
	require.True(t, ok)
	assert.Equal(t, "fbo.b", step.Inputs[0].String())
	assert.Equal(t, "fbo.c", step.Outputs[0].String())
}

func TestTaskList_DisabledProducerFailsByDefault(t *testing.T) {
	f := newFixture(t)
	f.abc()

	first, err := f.sched.TaskList(f.ctx)
	require.NoError(t, err)

	require.NoError(t, f.store.Set(f.ctx, "b.enabled", cty.False))
	assert.True(t, f.sched.IsDirty())

	list, err := f.sched.TaskList(f.ctx)
	require.ErrorIs(t, err, scheduler.ErrRebuildFailed)
	require.ErrorIs(t, err, graph.ErrUnresolvedInput)
	assert.Contains(t, err.Error(), "engine:c slot 0")
	assert.Same(t, first, list, "previous list stays installed")
	assert.Same(t, first, f.sched.Current())
	assert.Equal(t, err, f.sched.Err())

	// Not retried until something changes.
	rebuilds := f.sched.Rebuilds()
	_, err = f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, rebuilds, f.sched.Rebuilds())
}

func TestTaskList_DisabledProducerSkipsDependents(t *testing.T) {
	f := newFixture(t, scheduler.WithPolicy(scheduler.PolicySkipDependents))
	f.abc()
	f.chainNode("engine:d", false)
	f.connect("engine:c", 0, "engine:d", 0)

	require.NoError(t, f.store.Set(f.ctx, "b.enabled", cty.False))
	list, err := f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"engine:a"}, list.NodeIDs(), "C and, transitively, D are dropped")
}

func TestTaskList_ConditionTogglePreservesOrder(t *testing.T) {
	f := newFixture(t)
	f.store.Define("fx.enabled", cty.True)
	f.chainNode("engine:a", true)
	fx, _ := f.chainNode("engine:fx", true)
	f.chainNode("engine:b", true)
	f.chainNode("engine:c", true)
	fx.RequiresStoreCondition(f.store, condition.Property(f.store, "fx.enabled"))
	require.NoError(t, f.graph.Finalize(f.ctx))

	list, err := f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	full := list.NodeIDs()
	assert.Equal(t, []string{"engine:a", "engine:fx", "engine:b", "engine:c"}, full)

	require.NoError(t, f.store.Set(f.ctx, "fx.enabled", cty.False))
	list, err = f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"engine:a", "engine:b", "engine:c"}, list.NodeIDs())

	require.NoError(t, f.store.Set(f.ctx, "fx.enabled", cty.True))
	list, err = f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, full, list.NodeIDs())
}

func TestTaskList_CycleKeepsPreviousList(t *testing.T) {
	f := newFixture(t)
	f.abc()
	f.chainNode("engine:src", true)
	first, err := f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"engine:a", "engine:b", "engine:c", "engine:src"}, first.NodeIDs())

	// Rewire A to consume C: A -> B -> C -> A.
	a := nodeid.MustParse("engine:a")
	n, _ := f.graph.Node(a)
	require.NoError(t, n.AddInputBufferConnection(1))
	f.connect("engine:c", 0, "engine:a", 1)

	list, err := f.sched.TaskList(f.ctx)
	require.ErrorIs(t, err, scheduler.ErrRebuildFailed)
	require.ErrorIs(t, err, graph.ErrCyclicDependency)
	assert.Contains(t, err.Error(), "engine:a -> engine:b -> engine:c -> engine:a")
	assert.Same(t, first, list)

	require.NoError(t, f.graph.Disconnect(f.ctx, a, 1))
	f.connect("engine:src", 0, "engine:a", 1)
	list, err = f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"engine:src", "engine:a", "engine:b", "engine:c"}, list.NodeIDs())
}

func TestTaskList_CycleAmongInactiveNodesFailsRebuild(t *testing.T) {
	f := newFixture(t)
	f.store.Define("loop.enabled", cty.False)
	f.chainNode("engine:a", true)
	x, _ := f.chainNode("engine:x", false)
	y, _ := f.chainNode("engine:y", false)
	for _, n := range []*node.Node{x, y} {
		n.RequiresStoreCondition(f.store, condition.Property(f.store, "loop.enabled"))
	}
	f.connect("engine:x", 0, "engine:y", 0)
	require.NoError(t, f.graph.Finalize(f.ctx))

	first, err := f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"engine:a"}, first.NodeIDs())

	f.connect("engine:y", 0, "engine:x", 0)
	list, err := f.sched.TaskList(f.ctx)
	require.ErrorIs(t, err, graph.ErrCyclicDependency)
	assert.Contains(t, err.Error(), "engine:x -> engine:y -> engine:x")
	assert.Same(t, first, list)

	require.NoError(t, f.graph.Disconnect(f.ctx, nodeid.MustParse("engine:x"), 0))
	list, err = f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"engine:a"}, list.NodeIDs())
}

func TestTaskList_ConditionErrorFailsRebuild(t *testing.T) {
	f := newFixture(t)
	n, _ := f.chainNode("engine:a", true)
	n.RequiresCondition(condition.Property(f.store, "undefined"))

	list, err := f.sched.TaskList(f.ctx)
	require.ErrorIs(t, err, scheduler.ErrRebuildFailed)
	assert.Nil(t, list)
}

func TestTaskList_UnconnectedInput(t *testing.T) {
	f := newFixture(t)
	f.chainNode("engine:lonely", false)

	_, err := f.sched.TaskList(f.ctx)
	require.ErrorIs(t, err, graph.ErrUnresolvedInput)
	assert.Contains(t, err.Error(), "not connected")
}

func TestTaskList_Coalesces(t *testing.T) {
	f := newFixture(t)
	a, _ := f.chainNode("engine:a", true)

	_, err := f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.sched.Rebuilds())

	_, err = f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.sched.Rebuilds(), "clean scheduler does not rebuild")

	a.AddDesiredStateChange(statechange.EnableFaceCulling{})
	a.AddDesiredStateChange(statechange.SetWireframe{Enabled: true})
	f.sched.MarkDirty()
	f.chainNode("engine:b", true)

	list, err := f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.sched.Rebuilds())
	assert.Equal(t, 2, list.Len())
}

func TestTaskList_Transitions(t *testing.T) {
	f := newFixture(t)
	a, _ := f.chainNode("engine:a", true)
	b, _ := f.chainNode("engine:b", false)
	f.connect("engine:a", 0, "engine:b", 0)

	look := statechange.LookThrough{Camera: "player"}
	cull := statechange.EnableFaceCulling{}
	bind := statechange.BindBuffer{Buffer: "fbo.b"}
	a.AddDesiredStateChange(look)
	a.AddDesiredStateChange(cull)
	b.AddDesiredStateChange(look)
	b.AddDesiredStateChange(bind)

	list, err := f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 2, list.Len())

	assert.Empty(t, list.Steps[0].Transition.Revert)
	assert.Equal(t, []statechange.StateChange{look, cull}, list.Steps[0].Transition.Apply)
	assert.Equal(t, []statechange.StateChange{cull}, list.Steps[1].Transition.Revert)
	assert.Equal(t, []statechange.StateChange{bind}, list.Steps[1].Transition.Apply)
	assert.Equal(t, []statechange.StateChange{bind, look}, list.Tail.Revert)

	state := statechange.NewSet()
	for _, s := range list.Steps {
		s.Transition.ApplyTo(state)
		assert.True(t, state.Equal(s.Desired))
	}
	list.Tail.ApplyTo(state)
	assert.Zero(t, state.Len())
}

func TestTaskList_BufferPairSwapAcrossRebuilds(t *testing.T) {
	f := newFixture(t)
	pair := connection.BufferPair{
		Primary:   connection.Buffer{ID: "fbo.gbuffer1", Scale: 1},
		Secondary: connection.Buffer{ID: "fbo.gbuffer2", Scale: 1},
	}

	opaque, _ := testutil.NewNode(t, "engine:opaque")
	require.NoError(t, opaque.AddOutputBufferPairConnection(0, pair))
	require.NoError(t, f.graph.AddNode(f.ctx, opaque))

	lighting, _ := testutil.NewNode(t, "engine:lighting")
	require.NoError(t, lighting.AddInputBufferPairConnection(0))
	require.NoError(t, lighting.AddOutputBufferPairPassthrough(0, 0))
	require.NoError(t, lighting.SwapBufferPair(0))
	require.NoError(t, f.graph.AddNode(f.ctx, lighting))

	final, _ := testutil.NewNode(t, "engine:final")
	require.NoError(t, final.AddInputBufferPairConnection(0))
	require.NoError(t, final.AddOutputBufferPairPassthrough(0, 0))
	require.NoError(t, f.graph.AddNode(f.ctx, final))

	f.connect("engine:opaque", 0, "engine:lighting", 0)
	f.connect("engine:lighting", 0, "engine:final", 0)

	for i := 0; i < 2; i++ {
		f.sched.MarkDirty()
		list, err := f.sched.TaskList(f.ctx)
		require.NoError(t, err)

		step, _ := list.Step("engine:final")
		assert.Equal(t, pair.Swapped(), step.Inputs[0], "rebuild %d", i)
		step, _ = list.Step("engine:lighting")
		assert.Equal(t, pair, step.Inputs[0], "rebuild %d", i)
	}

	// Un-swapping restores the original orientation downstream.
	require.NoError(t, lighting.SwapBufferPair(0))
	list, err := f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	step, _ := list.Step("engine:final")
	assert.Equal(t, pair, step.Inputs[0])
}

func TestTaskList_ResourceResolverRefreshesAreAbsorbed(t *testing.T) {
	f := newFixture(t)
	f.chainNode("engine:a", true)
	_, pass := f.chainNode("engine:b", false)
	f.connect("engine:a", 0, "engine:b", 0)

	pass.OnResolve = func(_ context.Context, n *node.Node, inputs, _ map[int]connection.Resource) error {
		n.AddDesiredStateChange(statechange.BindBuffer{Buffer: inputs[0].String()})
		return nil
	}

	list, err := f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	step, _ := list.Step("engine:b")
	assert.True(t, step.Desired.Contains(statechange.BindBuffer{Buffer: "fbo.a"}))
	assert.False(t, f.sched.IsDirty())

	pass.OnResolve = func(context.Context, *node.Node, map[int]connection.Resource, map[int]connection.Resource) error {
		return errors.New("no such buffer")
	}
	f.sched.MarkDirty()
	_, err = f.sched.TaskList(f.ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such buffer")
}

func TestTaskList_DigestTracksChanges(t *testing.T) {
	f := newFixture(t)
	a, _ := f.chainNode("engine:a", true)

	first, err := f.sched.TaskList(f.ctx)
	require.NoError(t, err)

	f.sched.MarkDirty()
	same, err := f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Digest(), same.Digest())

	a.AddDesiredStateChange(statechange.SetWireframe{Enabled: true})
	changed, err := f.sched.TaskList(f.ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Digest(), changed.Digest())
}
