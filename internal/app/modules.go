package app

import (
	"github.com/vk/rendergraph/internal/registry"
	"github.com/vk/rendergraph/modules/ambient_occlusion"
	"github.com/vk/rendergraph/modules/deferred_lighting"
	"github.com/vk/rendergraph/modules/downsampler"
	"github.com/vk/rendergraph/modules/late_blur"
	"github.com/vk/rendergraph/modules/opaque_blocks"
	"github.com/vk/rendergraph/modules/output"
)

// coreModules is the definitive list of all pass modules that are compiled
// into the rendergraph binary.
var coreModules = []registry.Module{
	&opaque_blocks.Module{},
	&deferred_lighting.Module{},
	&ambient_occlusion.Module{},
	&late_blur.Module{},
	&downsampler.Module{},
	&output.Module{},
}
