package output_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/rendergraph/internal/config"
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
	"github.com/vk/rendergraph/modules/output"
	"github.com/zclconf/go-cty/cty"
)

func TestOutput_BlitsLitBuffer(t *testing.T) {
	ctx := testutil.Context()
	store := config.NewStore()
	store.Define(device.ResolutionProperty, cty.StringVal("640x480"))

	r := registry.New()
	(&opaque_blocks.Module{}).Register(r)
	(&deferred_lighting.Module{}).Register(r)
	(&output.Module{}).Register(r)

	g := graph.New()
	ids := []struct{ id, passType string }{
		{"engine:opaqueBlocks", opaque_blocks.PassType},
		{"engine:applyDeferredLighting", deferred_lighting.PassType},
		{"engine:outputToScreen", output.PassType},
	}
	for _, nd := range ids {
		n, err := r.Create(ctx, nd.passType, registry.Build{Addr: nodeid.MustParse(nd.id), Store: store})
		require.NoError(t, err)
		require.NoError(t, g.AddNode(ctx, n))
	}
	require.NoError(t, g.Connect(ctx, nodeid.MustParse(ids[0].id), 1, nodeid.MustParse(ids[1].id), 1))
	require.NoError(t, g.Connect(ctx, nodeid.MustParse(ids[1].id), 1, nodeid.MustParse(ids[2].id), 1))
	require.NoError(t, g.Finalize(ctx))

	sched := scheduler.New(g)
	list, err := sched.TaskList(ctx)
	require.NoError(t, err)

	rec := device.NewRecorder(testutil.Logger())
	require.NoError(t, executor.New(rec).RunFrame(ctx, list))
	draws := rec.Draws()
	require.Len(t, draws, 3)
	assert.Equal(t, "blit", draws[2].Op)
	assert.Equal(t, output.Display, draws[2].Target)
	assert.Equal(t, []string{"engine:fbo.gBuffer2"}, draws[2].Sources, "the lit buffer is shown")

	step, _ := list.Step("engine:outputToScreen")
	assert.True(t, step.Desired.Contains(statechange.SetViewport{Width: 640, Height: 480}))

	require.NoError(t, store.Set(ctx, device.ResolutionProperty, cty.StringVal("320x240")))
	list, err = sched.TaskList(ctx)
	require.NoError(t, err)
	step, _ = list.Step("engine:outputToScreen")
	assert.True(t, step.Desired.Contains(statechange.SetViewport{Width: 320, Height: 240}))
	assert.False(t, step.Desired.Contains(statechange.SetViewport{Width: 640, Height: 480}))
}
