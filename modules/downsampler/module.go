// Package downsampler shrinks a buffer into a small square texture, e.g. to
// feed exposure computation.
package downsampler

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/vk/rendergraph/internal/connection"
	"github.com/vk/rendergraph/internal/device"
	"github.com/vk/rendergraph/internal/node"
	"github.com/vk/rendergraph/internal/registry"
	"github.com/vk/rendergraph/internal/statechange"
)

const (
	PassType = "downsampler"

	material = "CoreRendering:downSampler"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params are the HCL params of a downsampler node.
type Params struct {
	Output string `cty:"output"`
	Size   int    `cty:"size"`
}

// Pass renders its input into a Size x Size texture.
type Pass struct {
	node.NopConfigChange

	output connection.Texture
	bound  []statechange.StateChange
}

// New creates a downsampler node reading a buffer on input slot 1 and
// producing a texture on output slot 1.
func New(ctx context.Context, b registry.Build) (*node.Node, error) {
	params := Params{Size: 16}
	if err := registry.DecodeParams(b.Params, &params); err != nil {
		return nil, err
	}
	if params.Output == "" {
		params.Output = fmt.Sprintf("engine:fbo.scene%d", params.Size)
	}
	if params.Size <= 0 {
		return nil, fmt.Errorf("size must be positive, got %d", params.Size)
	}

	p := &Pass{output: connection.Texture{
		ID:     params.Output,
		Format: gputypes.TextureFormatRGBA16Float,
		Size:   gputypes.Extent3D{Width: uint32(params.Size), Height: uint32(params.Size), DepthOrArrayLayers: 1},
	}}
	n := node.New(b.Addr, p)
	if err := n.AddInputBufferConnection(1); err != nil {
		return nil, err
	}
	if err := n.AddOutputTextureConnection(1, p.output); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Pass) SetDependencies(ctx context.Context, n *node.Node) error {
	n.AddDesiredStateChange(statechange.BindBuffer{Buffer: p.output.ID})
	n.AddDesiredStateChange(statechange.ViewportOf(p.output.Size))
	n.AddDesiredStateChange(statechange.EnableMaterial{Material: material})
	return nil
}

func (p *Pass) ResourcesResolved(ctx context.Context, n *node.Node, inputs, outputs map[int]connection.Resource) error {
	in, ok := inputs[1].(connection.Buffer)
	if !ok {
		return fmt.Errorf("input 1: expected a buffer, got %v", inputs[1])
	}
	next := []statechange.StateChange{
		statechange.BindTexture{Unit: 0, Texture: in.ID, Material: material, Uniform: "tex"},
	}
	n.ReplaceDesiredStateChanges(p.bound, next)
	p.bound = next
	return nil
}

func (p *Pass) Process(ctx context.Context, f *node.Frame) error {
	return f.Device.Draw(device.DrawCommand{
		Node:    f.Node.ID(),
		Op:      "downsample",
		Target:  p.output.ID,
		Sources: []string{fmt.Sprint(f.Inputs[1])},
		Params:  map[string]float64{"size": float64(p.output.Size.Width)},
	})
}

// Register registers the pass type with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPass(PassType, New)
}
