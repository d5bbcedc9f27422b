// Package deferred_lighting lights the G-buffer. It reads the last updated
// buffer of the pair, writes the other one and hands the pair on swapped so
// downstream passes read the lit image.
package deferred_lighting

import (
	"context"
	"fmt"

	"github.com/vk/rendergraph/internal/connection"
	"github.com/vk/rendergraph/internal/device"
	"github.com/vk/rendergraph/internal/node"
	"github.com/vk/rendergraph/internal/registry"
	"github.com/vk/rendergraph/internal/statechange"
)

const (
	PassType = "deferred_lighting"

	material = "engine:prog.lightBufferPass"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Pass applies deferred lighting.
type Pass struct {
	node.NopConfigChange

	// bound holds the state changes derived from the last resolved pair.
	bound []statechange.StateChange
}

// New creates a deferred_lighting node consuming a buffer pair on input
// slot 1 and passing it on, swapped, on output slot 1.
func New(ctx context.Context, b registry.Build) (*node.Node, error) {
	if err := registry.DecodeParams(b.Params, &struct{}{}); err != nil {
		return nil, err
	}
	n := node.New(b.Addr, &Pass{})
	if err := n.AddInputBufferPairConnection(1); err != nil {
		return nil, err
	}
	if err := n.AddOutputBufferPairPassthrough(1, 1); err != nil {
		return nil, err
	}
	if err := n.SwapBufferPair(1); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Pass) SetDependencies(ctx context.Context, n *node.Node) error {
	n.AddDesiredStateChange(statechange.EnableMaterial{Material: material})
	return nil
}

// ResourcesResolved binds the secondary buffer of whichever pair arrived
// and samples the primary one.
func (p *Pass) ResourcesResolved(ctx context.Context, n *node.Node, inputs, outputs map[int]connection.Resource) error {
	pair, ok := inputs[1].(connection.BufferPair)
	if !ok {
		return fmt.Errorf("input 1: expected a buffer pair, got %v", inputs[1])
	}

	last := pair.Primary.ID
	next := []statechange.StateChange{
		statechange.BindBuffer{Buffer: pair.Secondary.ID},
		statechange.BindTexture{Unit: 0, Texture: last + ".color", Material: material, Uniform: "texSceneOpaque"},
		statechange.BindTexture{Unit: 1, Texture: last + ".depth", Material: material, Uniform: "texSceneOpaqueDepth"},
		statechange.BindTexture{Unit: 2, Texture: last + ".normals", Material: material, Uniform: "texSceneOpaqueNormals"},
		statechange.BindTexture{Unit: 3, Texture: last + ".lightAccumulation", Material: material, Uniform: "texSceneOpaqueLightBuffer"},
	}

	n.ReplaceDesiredStateChanges(p.bound, next)
	p.bound = next
	return nil
}

func (p *Pass) Process(ctx context.Context, f *node.Frame) error {
	pair, ok := f.Inputs[1].(connection.BufferPair)
	if !ok {
		return fmt.Errorf("input 1: expected a buffer pair, got %v", f.Inputs[1])
	}
	return f.Device.Draw(device.DrawCommand{
		Node:    f.Node.ID(),
		Op:      "fullscreen-quad",
		Target:  pair.Secondary.ID,
		Sources: []string{pair.Primary.ID},
	})
}

// Register registers the pass type with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPass(PassType, New)
}
