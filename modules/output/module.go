// Package output copies the final image to the display.
package output

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/connection"
	"github.com/vk/rendergraph/internal/device"
	"github.com/vk/rendergraph/internal/node"
	"github.com/vk/rendergraph/internal/registry"
	"github.com/vk/rendergraph/internal/statechange"
)

const (
	PassType = "output"

	// Display is the buffer identifier of the default frame buffer.
	Display  = "display"
	material = "engine:prog.defaultTextured"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Pass blits the primary buffer of its input pair to the display.
type Pass struct {
	store    *config.Store
	viewport statechange.SetViewport
	bound    []statechange.StateChange
}

// New creates an output node consuming a buffer pair on input slot 1.
func New(ctx context.Context, b registry.Build) (*node.Node, error) {
	if err := registry.DecodeParams(b.Params, &struct{}{}); err != nil {
		return nil, err
	}
	p := &Pass{store: b.Store}
	n := node.New(b.Addr, p)
	if err := n.AddInputBufferPairConnection(1); err != nil {
		return nil, err
	}
	n.Subscribe(b.Store, device.ResolutionProperty)
	return n, nil
}

func (p *Pass) SetDependencies(ctx context.Context, n *node.Node) error {
	n.AddDesiredStateChange(statechange.BindBuffer{Buffer: Display})
	p.viewport = statechange.ViewportOf(device.Resolution(p.store))
	n.AddDesiredStateChange(p.viewport)
	n.AddDesiredStateChange(statechange.SetClearColor{Color: gputypes.Color{A: 1}})
	n.AddDesiredStateChange(statechange.EnableMaterial{Material: material})
	return nil
}

func (p *Pass) OnConfigChange(ctx context.Context, n *node.Node, ev config.Event) {
	if ev.Property != device.ResolutionProperty {
		return
	}
	next := statechange.ViewportOf(device.Resolution(p.store))
	n.ReplaceDesiredStateChange(p.viewport, next)
	p.viewport = next
}

func (p *Pass) ResourcesResolved(ctx context.Context, n *node.Node, inputs, outputs map[int]connection.Resource) error {
	pair, ok := inputs[1].(connection.BufferPair)
	if !ok {
		return fmt.Errorf("input 1: expected a buffer pair, got %v", inputs[1])
	}
	next := []statechange.StateChange{
		statechange.BindTexture{Unit: 0, Texture: pair.Primary.ID + ".color", Material: material, Uniform: "texture"},
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
		Op:      "blit",
		Target:  Display,
		Sources: []string{pair.Primary.ID},
	})
}

// Register registers the pass type with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPass(PassType, New)
}
