package deferred_lighting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/connection"
	"github.com/vk/rendergraph/internal/device"
	"github.com/vk/rendergraph/internal/executor"
	"github.com/vk/rendergraph/internal/graph"
	"github.com/vk/rendergraph/internal/nodeid"
	"github.com/vk/rendergraph/internal/registry"
	"github.com/vk/rendergraph/internal/scheduler"
	"github.com/vk/rendergraph/internal/statechange"
	"github.com/vk/rendergraph/internal/testutil"
	"github.com/vk/rendergraph/modules/deferred_lighting"
	"github.com/vk/rendergraph/modules/opaque_blocks"
	"github.com/zclconf/go-cty/cty"
)

func TestDeferredLighting_WritesSecondaryAndSwaps(t *testing.T) {
	ctx := testutil.Context()
	store := config.NewStore()
	r := registry.New()
	(&opaque_blocks.Module{}).Register(r)
	(&deferred_lighting.Module{}).Register(r)

	g := graph.New()
	sched := scheduler.New(g)
	for _, nd := range []struct{ id, passType string }{
		{"engine:opaqueBlocks", opaque_blocks.PassType},
		{"engine:applyDeferredLighting", deferred_lighting.PassType},
	} {
		n, err := r.Create(ctx, nd.passType, registry.Build{Addr: nodeid.MustParse(nd.id), Store: store})
		require.NoError(t, err)
		require.NoError(t, g.AddNode(ctx, n))
	}
	require.NoError(t, g.Connect(ctx,
		nodeid.MustParse("engine:opaqueBlocks"), 1,
		nodeid.MustParse("engine:applyDeferredLighting"), 1))
	require.NoError(t, g.Finalize(ctx))

	list, err := sched.TaskList(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"engine:opaqueBlocks", "engine:applyDeferredLighting"}, list.NodeIDs())

	step, ok := list.Step("engine:applyDeferredLighting")
	require.True(t, ok)
	out, ok := step.Outputs[1].(connection.BufferPair)
	require.True(t, ok)
	assert.Equal(t, "engine:fbo.gBuffer2", out.Primary.ID, "lit buffer becomes the primary downstream")
	assert.Equal(t, "engine:fbo.gBuffer1", out.Secondary.ID)

	assert.Contains(t, step.Transition.Apply, statechange.StateChange(statechange.BindBuffer{Buffer: "engine:fbo.gBuffer2"}))
	assert.Contains(t, step.Transition.Revert, statechange.StateChange(statechange.BindBuffer{Buffer: "engine:fbo.gBuffer1"}))
	assert.True(t, step.Desired.Contains(statechange.BindTexture{
		Unit: 1, Texture: "engine:fbo.gBuffer1.depth", Material: "engine:prog.lightBufferPass", Uniform: "texSceneOpaqueDepth",
	}))

	rec := device.NewRecorder(testutil.Logger())
	require.NoError(t, executor.New(rec).RunFrame(ctx, list))
	draws := rec.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, "engine:fbo.gBuffer2", draws[1].Target)
	assert.Equal(t, []string{"engine:fbo.gBuffer1"}, draws[1].Sources)
	assert.Equal(t, 0, rec.State().Len(), "frame ends in the default state")

	// A second rebuild must not flip the pair again.
	sched.MarkDirty()
	again, err := sched.TaskList(ctx)
	require.NoError(t, err)
	step, _ = again.Step("engine:applyDeferredLighting")
	assert.Equal(t, out, step.Outputs[1])
	assert.Equal(t, list.Digest(), again.Digest())
}

func TestDeferredLighting_RejectsParams(t *testing.T) {
	r := registry.New()
	(&deferred_lighting.Module{}).Register(r)
	_, err := r.Create(testutil.Context(), deferred_lighting.PassType, registry.Build{
		Addr:   nodeid.MustParse("engine:applyDeferredLighting"),
		Params: map[string]cty.Value{"intensity": cty.NumberIntVal(2)},
	})
	assert.ErrorContains(t, err, "unsupported parameter 'intensity'")
}
