package node

import (
	"context"

	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/connection"
	"github.com/vk/rendergraph/internal/device"
)

// Pass is the rendering logic behind a node.
type Pass interface {
	// SetDependencies runs once, after the whole graph is wired, in
	// dependency order.
	SetDependencies(ctx context.Context, n *Node) error
	// Process issues the node's rendering work for one frame.
	Process(ctx context.Context, f *Frame) error
	// OnConfigChange is called for every event on a property the node
	// subscribed to, before conditions are re-evaluated.
	OnConfigChange(ctx context.Context, n *Node, ev config.Event)
}

// ResourceResolver is implemented by passes that derive state changes from
// the concrete resources flowing into them, e.g. binding whichever buffer of
// a pair is currently the secondary one. It runs during every task list
// rebuild, after resources are resolved and before transitions are
// computed.
type ResourceResolver interface {
	ResourcesResolved(ctx context.Context, n *Node, inputs, outputs map[int]connection.Resource) error
}

// Frame is what a pass gets to render with.
type Frame struct {
	Index   uint64
	Node    *Node
	Device  device.Device
	Inputs  map[int]connection.Resource
	Outputs map[int]connection.Resource
}

// Refresher receives task list refresh requests.
type Refresher interface {
	RequestTaskListRefresh()
}

// NopConfigChange can be embedded by passes that do not react to
// configuration changes.
type NopConfigChange struct{}

func (NopConfigChange) OnConfigChange(context.Context, *Node, config.Event) {}
