package device

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/vk/rendergraph/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// ResolutionProperty holds the display size as "WIDTHxHEIGHT". Passes with
// display-sized buffers subscribe to it.
const ResolutionProperty = "display.resolution"

// DefaultResolution is used while the resolution property is missing or
// malformed.
var DefaultResolution = gputypes.Extent3D{Width: 1280, Height: 720, DepthOrArrayLayers: 1}

// ParseResolution parses "1920x1080".
func ParseResolution(s string) (gputypes.Extent3D, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return gputypes.Extent3D{}, fmt.Errorf("invalid resolution %q: want WIDTHxHEIGHT", s)
	}
	width, err := strconv.ParseUint(w, 10, 32)
	if err != nil || width == 0 {
		return gputypes.Extent3D{}, fmt.Errorf("invalid resolution width in %q", s)
	}
	height, err := strconv.ParseUint(h, 10, 32)
	if err != nil || height == 0 {
		return gputypes.Extent3D{}, fmt.Errorf("invalid resolution height in %q", s)
	}
	return gputypes.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}, nil
}

// Resolution reads the display resolution from store.
func Resolution(store *config.Store) gputypes.Extent3D {
	if store == nil {
		return DefaultResolution
	}
	v, ok := store.Get(ResolutionProperty)
	if !ok || v.IsNull() || !v.IsKnown() || v.Type() != cty.String {
		return DefaultResolution
	}
	res, err := ParseResolution(v.AsString())
	if err != nil {
		return DefaultResolution
	}
	return res
}

// Scaled returns ext scaled by factor, never smaller than 1x1.
func Scaled(ext gputypes.Extent3D, factor float64) gputypes.Extent3D {
	scale := func(v uint32) uint32 {
		return uint32(math.Max(1, math.Round(float64(v)*factor)))
	}
	return gputypes.Extent3D{Width: scale(ext.Width), Height: scale(ext.Height), DepthOrArrayLayers: 1}
}
