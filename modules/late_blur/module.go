// Package late_blur blurs the nearly finished image. The pass is only
// scheduled while rendering.blurIntensity is non-zero.
package late_blur

import (
	"context"
	"fmt"
	"math"

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
	PassType = "late_blur"

	IntensityProperty = "rendering.blurIntensity"

	material = "engine:prog.blur"
	// radiusFactor scales the configured intensity into a blur radius.
	radiusFactor = 0.8
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params are the HCL params of a late_blur node.
type Params struct {
	Output string  `cty:"output"`
	Scale  float64 `cty:"scale"`
}

// Pass blurs its input buffer into its output buffer.
type Pass struct {
	store  *config.Store
	params Params
	radius float64
	bound  []statechange.StateChange
}

// Radius returns the blur radius for a configured intensity.
func Radius(intensity float64) float64 {
	return radiusFactor * math.Max(1, intensity)
}

// New creates a late_blur node reading a buffer on input slot 1 and writing
// a buffer on output slot 1.
func New(ctx context.Context, b registry.Build) (*node.Node, error) {
	params := Params{Output: "engine:fbo.firstLateBlur", Scale: 0.5}
	if err := registry.DecodeParams(b.Params, &params); err != nil {
		return nil, err
	}
	if params.Scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", params.Scale)
	}
	gate, err := condition.Expression(b.Store, IntensityProperty+" != 0")
	if err != nil {
		return nil, err
	}

	p := &Pass{store: b.Store, params: params}
	p.radius = Radius(b.Store.Number(IntensityProperty))

	n := node.New(b.Addr, p)
	if err := n.AddInputBufferConnection(1); err != nil {
		return nil, err
	}
	out := connection.Buffer{ID: params.Output, Scale: float32(params.Scale), Format: gputypes.TextureFormatRGBA16Float}
	if err := n.AddOutputBufferConnection(1, out); err != nil {
		return nil, err
	}
	n.RequiresStoreCondition(b.Store, gate)
	return n, nil
}

func (p *Pass) SetDependencies(ctx context.Context, n *node.Node) error {
	n.AddDesiredStateChange(statechange.BindBuffer{Buffer: p.params.Output})
	n.AddDesiredStateChange(statechange.ViewportOf(device.Scaled(device.Resolution(p.store), p.params.Scale)))
	n.AddDesiredStateChange(statechange.EnableMaterial{Material: material})
	return nil
}

// OnConfigChange keeps the radius in step with the intensity. Whether the
// node runs at all is left to its condition.
func (p *Pass) OnConfigChange(ctx context.Context, n *node.Node, ev config.Event) {
	if ev.Property == IntensityProperty {
		p.radius = Radius(p.store.Number(IntensityProperty))
	}
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

// BlurRadius returns the radius the next frame will use.
func (p *Pass) BlurRadius() float64 { return p.radius }

func (p *Pass) Process(ctx context.Context, f *node.Frame) error {
	return f.Device.Draw(device.DrawCommand{
		Node:    f.Node.ID(),
		Op:      "blur",
		Target:  p.params.Output,
		Sources: []string{fmt.Sprint(f.Inputs[1])},
		Params:  map[string]float64{"radius": p.radius},
	})
}

// Register registers the pass type with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPass(PassType, New)
}
