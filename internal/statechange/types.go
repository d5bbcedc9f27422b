package statechange

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Kind identifies the category of a state change.
type Kind int

const (
	KindBindBuffer Kind = iota
	KindEnableMaterial
	KindBindTexture
	KindSetViewport
	KindSetWireframe
	KindEnableFaceCulling
	KindLookThrough
	KindSetDepthTest
	KindSetClearColor
)

var kindNames = map[Kind]string{
	KindBindBuffer:        "bind-buffer",
	KindEnableMaterial:    "enable-material",
	KindBindTexture:       "bind-texture",
	KindSetViewport:       "set-viewport",
	KindSetWireframe:      "set-wireframe",
	KindEnableFaceCulling: "enable-face-culling",
	KindLookThrough:       "look-through",
	KindSetDepthTest:      "set-depth-test",
	KindSetClearColor:     "set-clear-color",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// StateChange is an atomic, comparable description of a render-state
// mutation. Implementations must be comparable value types; they are used as
// map keys.
type StateChange interface {
	Kind() Kind
	String() string
}

// BindBuffer makes an off-screen buffer the current render target.
type BindBuffer struct {
	Buffer string
}

func (BindBuffer) Kind() Kind { return KindBindBuffer }
func (s BindBuffer) String() string {
	return fmt.Sprintf("bind-buffer(%s)", s.Buffer)
}

// EnableMaterial activates a shader program/material.
type EnableMaterial struct {
	Material string
}

func (EnableMaterial) Kind() Kind { return KindEnableMaterial }
func (s EnableMaterial) String() string {
	return fmt.Sprintf("enable-material(%s)", s.Material)
}

// BindTexture binds a texture to a texture unit and exposes it to a
// material uniform.
type BindTexture struct {
	Unit     int
	Texture  string
	Material string
	Uniform  string
}

func (BindTexture) Kind() Kind { return KindBindTexture }
func (s BindTexture) String() string {
	return fmt.Sprintf("bind-texture(%d, %s -> %s.%s)", s.Unit, s.Texture, s.Material, s.Uniform)
}

// SetViewport sets the viewport size, usually to the size of the bound buffer.
type SetViewport struct {
	Width, Height uint32
}

func (SetViewport) Kind() Kind { return KindSetViewport }
func (s SetViewport) String() string {
	return fmt.Sprintf("set-viewport(%dx%d)", s.Width, s.Height)
}

// ViewportOf returns the SetViewport matching a texture extent.
func ViewportOf(size gputypes.Extent3D) SetViewport {
	return SetViewport{Width: size.Width, Height: size.Height}
}

// SetWireframe switches polygon rasterization to lines.
type SetWireframe struct {
	Enabled bool
}

func (SetWireframe) Kind() Kind { return KindSetWireframe }
func (s SetWireframe) String() string {
	return fmt.Sprintf("set-wireframe(%t)", s.Enabled)
}

// EnableFaceCulling enables back-face culling.
type EnableFaceCulling struct{}

func (EnableFaceCulling) Kind() Kind     { return KindEnableFaceCulling }
func (EnableFaceCulling) String() string { return "enable-face-culling" }

// LookThrough loads a camera's view and projection matrices.
type LookThrough struct {
	Camera string
}

func (LookThrough) Kind() Kind { return KindLookThrough }
func (s LookThrough) String() string {
	return fmt.Sprintf("look-through(%s)", s.Camera)
}

// SetDepthTest sets the depth comparison function.
type SetDepthTest struct {
	Compare gputypes.CompareFunction
}

func (SetDepthTest) Kind() Kind { return KindSetDepthTest }
func (s SetDepthTest) String() string {
	return fmt.Sprintf("set-depth-test(%v)", s.Compare)
}

// SetClearColor sets the color used when clearing the bound buffer.
type SetClearColor struct {
	Color gputypes.Color
}

func (SetClearColor) Kind() Kind { return KindSetClearColor }
func (s SetClearColor) String() string {
	return fmt.Sprintf("set-clear-color(%v, %v, %v, %v)", s.Color.R, s.Color.G, s.Color.B, s.Color.A)
}
