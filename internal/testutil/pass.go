package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/connection"
	"github.com/vk/rendergraph/internal/device"
	"github.com/vk/rendergraph/internal/node"
	"github.com/vk/rendergraph/internal/nodeid"
)

// FakePass records every call the framework makes into it.
type FakePass struct {
	// OnSetDependencies, OnConfig and OnResolve override the default
	// behavior when set.
	OnSetDependencies func(ctx context.Context, n *node.Node) error
	OnConfig          func(ctx context.Context, n *node.Node, ev config.Event)
	OnResolve         func(ctx context.Context, n *node.Node, inputs, outputs map[int]connection.Resource) error
	ProcessErr        error

	DependencyCalls int
	Events          []config.Event
	Frames          []*node.Frame
}

func (p *FakePass) SetDependencies(ctx context.Context, n *node.Node) error {
	p.DependencyCalls++
	if p.OnSetDependencies != nil {
		return p.OnSetDependencies(ctx, n)
	}
	return nil
}

func (p *FakePass) Process(_ context.Context, f *node.Frame) error {
	p.Frames = append(p.Frames, f)
	if p.ProcessErr != nil {
		return p.ProcessErr
	}
	return f.Device.Draw(device.DrawCommand{Node: f.Node.ID(), Op: "fake"})
}

func (p *FakePass) OnConfigChange(ctx context.Context, n *node.Node, ev config.Event) {
	p.Events = append(p.Events, ev)
	if p.OnConfig != nil {
		p.OnConfig(ctx, n, ev)
	}
}

func (p *FakePass) ResourcesResolved(ctx context.Context, n *node.Node, inputs, outputs map[int]connection.Resource) error {
	if p.OnResolve != nil {
		return p.OnResolve(ctx, n, inputs, outputs)
	}
	return nil
}

// NewNode creates a node with a FakePass from a "module:name" identifier.
func NewNode(t *testing.T, id string) (*node.Node, *FakePass) {
	t.Helper()
	addr, err := nodeid.Parse(id)
	require.NoError(t, err)
	pass := &FakePass{}
	return node.New(addr, pass), pass
}

// CountingRefresher counts refresh requests.
type CountingRefresher struct {
	Requests int
}

func (r *CountingRefresher) RequestTaskListRefresh() { r.Requests++ }
