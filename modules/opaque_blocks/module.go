// Package opaque_blocks renders the opaque world geometry into the G-buffer
// pair that the rest of the graph reads from.
package opaque_blocks

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/connection"
	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/vk/rendergraph/internal/device"
	"github.com/vk/rendergraph/internal/node"
	"github.com/vk/rendergraph/internal/registry"
	"github.com/vk/rendergraph/internal/statechange"
)

const (
	PassType = "opaque_blocks"

	WireframeProperty       = "rendering.debug.wireframe"
	NormalMappingProperty   = "rendering.normalMapping"
	ParallaxMappingProperty = "rendering.parallaxMapping"

	chunkMaterial = "engine:prog.chunk"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params are the HCL params of an opaque_blocks node.
type Params struct {
	Camera string  `cty:"camera"`
	Buffer string  `cty:"buffer"`
	Scale  float64 `cty:"scale"`
}

// Pass draws the opaque chunks.
type Pass struct {
	store  *config.Store
	params Params
	pair   connection.BufferPair

	faceCulling statechange.EnableFaceCulling
	wireframe   statechange.SetWireframe
	normals     statechange.BindTexture
	heights     statechange.BindTexture
	viewport    statechange.SetViewport
	parallax    bool
}

// New creates an opaque_blocks node. It originates the G-buffer pair on
// output slot 1.
func New(ctx context.Context, b registry.Build) (*node.Node, error) {
	params := Params{Camera: "activeCamera", Buffer: "engine:fbo.gBuffer", Scale: 1}
	if err := registry.DecodeParams(b.Params, &params); err != nil {
		return nil, err
	}
	if params.Scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", params.Scale)
	}

	buffer := func(suffix string) connection.Buffer {
		return connection.Buffer{ID: params.Buffer + suffix, Scale: float32(params.Scale), Format: gputypes.TextureFormatRGBA8Unorm}
	}
	p := &Pass{
		store:     b.Store,
		params:    params,
		pair:      connection.BufferPair{Primary: buffer("1"), Secondary: buffer("2")},
		wireframe: statechange.SetWireframe{Enabled: true},
		normals:   statechange.BindTexture{Unit: 2, Texture: "engine:terrainNormal", Material: chunkMaterial, Uniform: "textureAtlasNormal"},
		heights:   statechange.BindTexture{Unit: 3, Texture: "engine:terrainHeight", Material: chunkMaterial, Uniform: "textureAtlasHeight"},
	}

	n := node.New(b.Addr, p)
	if err := n.AddOutputBufferPairConnection(1, p.pair); err != nil {
		return nil, err
	}
	n.Subscribe(b.Store, WireframeProperty)
	n.Subscribe(b.Store, NormalMappingProperty)
	n.Subscribe(b.Store, ParallaxMappingProperty)
	n.Subscribe(b.Store, device.ResolutionProperty)
	return n, nil
}

func (p *Pass) SetDependencies(ctx context.Context, n *node.Node) error {
	n.AddDesiredStateChange(statechange.LookThrough{Camera: p.params.Camera})
	// Culling goes in first; wireframe mode replaces it.
	n.AddDesiredStateChange(p.faceCulling)
	p.setWireframe(ctx, n, p.store.Bool(WireframeProperty))

	n.AddDesiredStateChange(statechange.BindBuffer{Buffer: p.pair.Primary.ID})
	p.viewport = p.currentViewport()
	n.AddDesiredStateChange(p.viewport)
	n.AddDesiredStateChange(statechange.SetDepthTest{Compare: gputypes.CompareFunctionLessEqual})
	n.AddDesiredStateChange(statechange.EnableMaterial{Material: chunkMaterial})
	n.AddDesiredStateChange(statechange.BindTexture{Unit: 0, Texture: "engine:terrain", Material: chunkMaterial, Uniform: "textureAtlas"})
	n.AddDesiredStateChange(statechange.BindTexture{Unit: 1, Texture: "engine:effects", Material: chunkMaterial, Uniform: "textureEffects"})

	toggle(n, p.normals, p.store.Bool(NormalMappingProperty))
	p.parallax = p.store.Bool(ParallaxMappingProperty)
	toggle(n, p.heights, p.parallax)
	return nil
}

func (p *Pass) OnConfigChange(ctx context.Context, n *node.Node, ev config.Event) {
	switch ev.Property {
	case WireframeProperty:
		p.setWireframe(ctx, n, p.store.Bool(WireframeProperty))
	case NormalMappingProperty:
		toggle(n, p.normals, p.store.Bool(NormalMappingProperty))
	case ParallaxMappingProperty:
		p.parallax = p.store.Bool(ParallaxMappingProperty)
		toggle(n, p.heights, p.parallax)
	case device.ResolutionProperty:
		next := p.currentViewport()
		n.ReplaceDesiredStateChange(p.viewport, next)
		p.viewport = next
	}
}

func (p *Pass) currentViewport() statechange.SetViewport {
	return statechange.ViewportOf(device.Scaled(device.Resolution(p.store), p.params.Scale))
}

func (p *Pass) setWireframe(ctx context.Context, n *node.Node, enabled bool) {
	if enabled {
		if n.ReplaceDesiredStateChange(p.faceCulling, p.wireframe) {
			ctxlog.ForNode(ctx, n.ID()).Debug("Wireframe enabled.")
		}
		return
	}
	if n.ReplaceDesiredStateChange(p.wireframe, p.faceCulling) {
		ctxlog.ForNode(ctx, n.ID()).Debug("Wireframe disabled.")
	}
}

func (p *Pass) Process(ctx context.Context, f *node.Frame) error {
	params := map[string]float64{"clip": 0}
	if p.parallax {
		params["parallaxBias"] = 0.25
		params["parallaxScale"] = 0.5
	}
	return f.Device.Draw(device.DrawCommand{
		Node:   f.Node.ID(),
		Op:     "render-opaque-chunks",
		Target: p.pair.Primary.ID,
		Params: params,
	})
}

func toggle(n *node.Node, sc statechange.StateChange, on bool) {
	if on {
		n.AddDesiredStateChange(sc)
	} else {
		n.RemoveDesiredStateChange(sc)
	}
}

// Register registers the pass type with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPass(PassType, New)
}
