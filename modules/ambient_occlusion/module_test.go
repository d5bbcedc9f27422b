package ambient_occlusion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/device"
	"github.com/vk/rendergraph/internal/graph"
	"github.com/vk/rendergraph/internal/node"
	"github.com/vk/rendergraph/internal/nodeid"
	"github.com/vk/rendergraph/internal/registry"
	"github.com/vk/rendergraph/internal/scheduler"
	"github.com/vk/rendergraph/internal/statechange"
	"github.com/vk/rendergraph/internal/testutil"
	"github.com/vk/rendergraph/modules/ambient_occlusion"
	"github.com/vk/rendergraph/modules/opaque_blocks"
	"github.com/zclconf/go-cty/cty"
)

type fixture struct {
	store *config.Store
	graph *graph.Graph
	sched *scheduler.Scheduler
}

// newFixture wires opaqueBlocks -> ssao -> ssaoBlurred.
func newFixture(t *testing.T, opts ...scheduler.Option) *fixture {
	t.Helper()
	ctx := testutil.Context()
	store := config.NewStore()
	store.Define(ambient_occlusion.SSAOProperty, cty.True)
	store.Define(device.ResolutionProperty, cty.StringVal("800x600"))

	r := registry.New()
	(&opaque_blocks.Module{}).Register(r)
	(&ambient_occlusion.Module{}).Register(r)

	g := graph.New()
	for _, nd := range []struct{ id, passType string }{
		{"engine:opaqueBlocks", opaque_blocks.PassType},
		{"engine:ssao", ambient_occlusion.PassType},
		{"engine:ssaoBlurred", ambient_occlusion.BlurredPassType},
	} {
		n, err := r.Create(ctx, nd.passType, registry.Build{Addr: nodeid.MustParse(nd.id), Store: store})
		require.NoError(t, err)
		require.NoError(t, g.AddNode(ctx, n))
	}
	require.NoError(t, g.Connect(ctx, nodeid.MustParse("engine:opaqueBlocks"), 1, nodeid.MustParse("engine:ssao"), 1))
	require.NoError(t, g.Connect(ctx, nodeid.MustParse("engine:ssao"), 1, nodeid.MustParse("engine:ssaoBlurred"), 1))
	require.NoError(t, g.Finalize(ctx))
	return &fixture{store: store, graph: g, sched: scheduler.New(g, opts...)}
}

func TestAmbientOcclusion_BindsInputs(t *testing.T) {
	ctx := testutil.Context()
	f := newFixture(t)

	list, err := f.sched.TaskList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"engine:opaqueBlocks", "engine:ssao", "engine:ssaoBlurred"}, list.NodeIDs())

	ssao, _ := list.Step("engine:ssao")
	assert.True(t, ssao.Desired.Contains(statechange.BindTexture{
		Unit: 1, Texture: "engine:fbo.gBuffer1.depth", Material: "engine:prog.ssao", Uniform: "texDepth",
	}))
	assert.True(t, ssao.Desired.Contains(statechange.BindBuffer{Buffer: "engine:fbo.ssao"}))

	blurred, _ := list.Step("engine:ssaoBlurred")
	assert.True(t, blurred.Desired.Contains(statechange.BindTexture{
		Unit: 0, Texture: "engine:fbo.ssao", Material: "engine:prog.ssaoBlur", Uniform: "tex",
	}))
	assert.True(t, blurred.Desired.Contains(statechange.SetViewport{Width: 800, Height: 600}))
}

func TestAmbientOcclusion_DisabledBySetting(t *testing.T) {
	ctx := testutil.Context()
	f := newFixture(t)
	_, err := f.sched.TaskList(ctx)
	require.NoError(t, err)

	require.NoError(t, f.store.Set(ctx, ambient_occlusion.SSAOProperty, cty.False))
	assert.True(t, f.sched.IsDirty())

	list, err := f.sched.TaskList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"engine:opaqueBlocks"}, list.NodeIDs())

	require.NoError(t, f.store.Set(ctx, ambient_occlusion.SSAOProperty, cty.True))
	list, err = f.sched.TaskList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"engine:opaqueBlocks", "engine:ssao", "engine:ssaoBlurred"}, list.NodeIDs())
}

func TestAmbientOcclusion_ResolutionChange(t *testing.T) {
	ctx := testutil.Context()
	f := newFixture(t)
	_, err := f.sched.TaskList(ctx)
	require.NoError(t, err)

	require.NoError(t, f.store.Set(ctx, device.ResolutionProperty, cty.StringVal("1920x1080")))
	assert.True(t, f.sched.IsDirty(), "resizing changes desired state")

	list, err := f.sched.TaskList(ctx)
	require.NoError(t, err)
	blurred, _ := list.Step("engine:ssaoBlurred")
	assert.True(t, blurred.Desired.Contains(statechange.SetViewport{Width: 1920, Height: 1080}))
	assert.False(t, blurred.Desired.Contains(statechange.SetViewport{Width: 800, Height: 600}))

	rec := device.NewRecorder(testutil.Logger())
	n, _ := f.graph.Node(nodeid.MustParse("engine:ssaoBlurred"))
	require.NoError(t, n.Pass().Process(ctx, &node.Frame{Node: n, Device: rec}))
	require.Len(t, rec.Draws(), 1)
	assert.InDelta(t, 1.0/1920, rec.Draws()[0].Params["texelWidth"], 1e-12)
}
