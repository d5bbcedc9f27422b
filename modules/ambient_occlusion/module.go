// Package ambient_occlusion provides the two halves of the screen-space
// ambient occlusion effect: a pass computing occlusion from the G-buffer and
// a pass blurring the result. Both only run while rendering.ssao is on.
package ambient_occlusion

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/vk/rendergraph/internal/condition"
	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/connection"
	"github.com/vk/rendergraph/internal/device"
	"github.com/vk/rendergraph/internal/node"
	"github.com/vk/rendergraph/internal/registry"
	"github.com/vk/rendergraph/internal/statechange"
)

const (
	PassType        = "ambient_occlusion"
	BlurredPassType = "blurred_ambient_occlusion"

	SSAOProperty = "rendering.ssao"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params are shared by both pass types.
type Params struct {
	Output string  `cty:"output"`
	Scale  float64 `cty:"scale"`
}

type variant struct {
	material  string
	output    string
	inputKind connection.Kind
	op        string
}

var variants = map[string]variant{
	PassType: {
		material:  "engine:prog.ssao",
		output:    "engine:fbo.ssao",
		inputKind: connection.KindBufferPair,
		op:        "ssao",
	},
	BlurredPassType: {
		material:  "engine:prog.ssaoBlur",
		output:    "engine:fbo.ssaoBlurred",
		inputKind: connection.KindSingleBuffer,
		op:        "ssao-blur",
	},
}

// Pass renders one half of the effect into a display-sized buffer.
type Pass struct {
	variant
	store    *config.Store
	params   Params
	viewport statechange.SetViewport
	size     gputypes.Extent3D
	bound    []statechange.StateChange
}

func factory(passType string) registry.Factory {
	v := variants[passType]
	return func(ctx context.Context, b registry.Build) (*node.Node, error) {
		params := Params{Output: v.output, Scale: 1}
		if err := registry.DecodeParams(b.Params, &params); err != nil {
			return nil, err
		}
		if params.Scale <= 0 {
			return nil, fmt.Errorf("scale must be positive, got %v", params.Scale)
		}

		p := &Pass{variant: v, store: b.Store, params: params}
		n := node.New(b.Addr, p)

		var err error
		switch v.inputKind {
		case connection.KindBufferPair:
			err = n.AddInputBufferPairConnection(1)
		default:
			err = n.AddInputBufferConnection(1)
		}
		if err != nil {
			return nil, err
		}
		out := connection.Buffer{ID: params.Output, Scale: float32(params.Scale), Format: gputypes.TextureFormatR8Unorm}
		if err := n.AddOutputBufferConnection(1, out); err != nil {
			return nil, err
		}

		n.RequiresStoreCondition(b.Store, condition.Property(b.Store, SSAOProperty))
		n.Subscribe(b.Store, device.ResolutionProperty)
		return n, nil
	}
}

func (p *Pass) SetDependencies(ctx context.Context, n *node.Node) error {
	n.AddDesiredStateChange(statechange.EnableMaterial{Material: p.material})
	n.AddDesiredStateChange(statechange.BindBuffer{Buffer: p.params.Output})
	p.regenerate(n)
	return nil
}

// OnConfigChange resizes the output when the display resolution changes.
// Toggling rendering.ssao needs no work here; the node's condition takes
// care of it.
func (p *Pass) OnConfigChange(ctx context.Context, n *node.Node, ev config.Event) {
	if ev.Property == device.ResolutionProperty {
		p.regenerate(n)
	}
}

func (p *Pass) regenerate(n *node.Node) {
	p.size = device.Scaled(device.Resolution(p.store), p.params.Scale)
	next := statechange.ViewportOf(p.size)
	if p.viewport == (statechange.SetViewport{}) {
		n.AddDesiredStateChange(next)
	} else {
		n.ReplaceDesiredStateChange(p.viewport, next)
	}
	p.viewport = next
}

// ResourcesResolved binds the input textures of the buffer that arrived on
// slot 1.
func (p *Pass) ResourcesResolved(ctx context.Context, n *node.Node, inputs, outputs map[int]connection.Resource) error {
	var next []statechange.StateChange
	switch in := inputs[1].(type) {
	case connection.BufferPair:
		next = []statechange.StateChange{
			statechange.BindTexture{Unit: 0, Texture: in.Primary.ID + ".normals", Material: p.material, Uniform: "texNormals"},
			statechange.BindTexture{Unit: 1, Texture: in.Primary.ID + ".depth", Material: p.material, Uniform: "texDepth"},
		}
	case connection.Buffer:
		next = []statechange.StateChange{
			statechange.BindTexture{Unit: 0, Texture: in.ID, Material: p.material, Uniform: "tex"},
		}
	default:
		return fmt.Errorf("input 1: unexpected resource %v", inputs[1])
	}

	n.ReplaceDesiredStateChanges(p.bound, next)
	p.bound = next
	return nil
}

func (p *Pass) Process(ctx context.Context, f *node.Frame) error {
	return f.Device.Draw(device.DrawCommand{
		Node:   f.Node.ID(),
		Op:     p.op,
		Target: p.params.Output,
		Params: map[string]float64{
			"texelWidth":  1 / float64(p.size.Width),
			"texelHeight": 1 / float64(p.size.Height),
		},
	})
}

// Register registers both pass types with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPass(PassType, factory(PassType))
	r.RegisterPass(BlurredPassType, factory(BlurredPassType))
}
