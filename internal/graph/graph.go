package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/rendergraph/internal/connection"
	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/vk/rendergraph/internal/node"
	"github.com/vk/rendergraph/internal/nodeid"
)

// Graph is the render graph.
type Graph struct {
	nodes []*node.Node
	index map[string]int

	generation uint64
	refresher  node.Refresher
	finalized  bool

	// cycle is the result of the last cycle check after Finalize.
	cycle error
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{index: make(map[string]int)}
}

// SetRefresher sets where refresh requests from the graph and its nodes go,
// normally the scheduler.
func (g *Graph) SetRefresher(r node.Refresher) { g.refresher = r }

// RequestTaskListRefresh forwards a node's refresh request.
func (g *Graph) RequestTaskListRefresh() {
	if g.refresher != nil {
		g.refresher.RequestTaskListRefresh()
	}
}

// Generation counts topology mutations.
func (g *Graph) Generation() uint64 { return g.generation }

// Finalized reports whether Finalize succeeded.
func (g *Graph) Finalized() bool { return g.finalized }

// Cycle returns the dependency cycle found by the last rewiring of a
// finalized graph, or nil. It covers inactive nodes too.
func (g *Graph) Cycle() error { return g.cycle }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// AddNode registers n. Registration order is the scheduler's tie-break.
func (g *Graph) AddNode(ctx context.Context, n *node.Node) error {
	id := n.ID()
	if _, exists := g.index[id]; exists {
		return nodeError(ErrDuplicateIdentifier, n.Address(), "")
	}
	g.index[id] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	n.Attach(g)
	g.mutated()
	ctxlog.FromContext(ctx).Debug("Node added to render graph.", "node", id, "index", g.index[id])
	return nil
}

// Node looks a node up by identifier.
func (g *Graph) Node(addr nodeid.Address) (*node.Node, bool) {
	i, ok := g.index[addr.String()]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// Nodes returns all nodes in registration order.
func (g *Graph) Nodes() []*node.Node {
	out := make([]*node.Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// IndexOf returns a node's registration index, or -1.
func (g *Graph) IndexOf(addr nodeid.Address) int {
	if i, ok := g.index[addr.String()]; ok {
		return i
	}
	return -1
}

// Connect wires output slot outSlot of from into input slot inSlot of to.
// Outputs may feed any number of inputs; an input has exactly one producer.
func (g *Graph) Connect(ctx context.Context, from nodeid.Address, outSlot int, to nodeid.Address, inSlot int) error {
	producer, ok := g.Node(from)
	if !ok {
		return nodeError(ErrUnknownNode, from, "producer")
	}
	consumer, ok := g.Node(to)
	if !ok {
		return nodeError(ErrUnknownNode, to, "consumer")
	}
	out, ok := producer.Output(outSlot)
	if !ok {
		return slotError(ErrUnknownSlot, from, outSlot, "no such output")
	}
	in, ok := consumer.Input(inSlot)
	if !ok {
		return slotError(ErrUnknownSlot, to, inSlot, "no such input")
	}
	if out.Kind != in.Kind {
		return slotError(ErrTypeMismatch, to, inSlot, fmt.Sprintf("%s output %s cannot feed %s input", out.Kind, out.Owner, in.Kind))
	}
	if in.IsConnected() {
		return slotError(ErrAlreadyConnected, to, inSlot, "fed by "+in.Source.String())
	}

	in.Source = &connection.Endpoint{Node: from, Slot: outSlot}
	ctxlog.FromContext(ctx).Debug("Connected.", "from", out.Owner.String(), "to", in.Owner.String(), "kind", in.Kind.String())
	g.rewired(ctx)
	return nil
}

// Disconnect unwires input slot inSlot of to. Disconnecting an unwired input
// is a no-op.
func (g *Graph) Disconnect(ctx context.Context, to nodeid.Address, inSlot int) error {
	consumer, ok := g.Node(to)
	if !ok {
		return nodeError(ErrUnknownNode, to, "")
	}
	in, ok := consumer.Input(inSlot)
	if !ok {
		return slotError(ErrUnknownSlot, to, inSlot, "no such input")
	}
	if !in.IsConnected() {
		return nil
	}
	ctxlog.FromContext(ctx).Debug("Disconnected.", "from", in.Source.String(), "to", in.Owner.String())
	in.Source = nil
	g.rewired(ctx)
	return nil
}

// DependenciesOf returns the producers feeding the node's inputs, in
// registration order and without duplicates.
func (g *Graph) DependenciesOf(addr nodeid.Address) ([]*node.Node, error) {
	n, ok := g.Node(addr)
	if !ok {
		return nil, nodeError(ErrUnknownNode, addr, "")
	}
	seen := make(map[int]bool)
	for _, in := range n.Inputs() {
		if !in.IsConnected() {
			continue
		}
		if i, ok := g.index[in.Source.Node.String()]; ok {
			seen[i] = true
		}
	}
	return g.pick(seen), nil
}

// DependentsOf returns the nodes consuming any of the node's outputs, in
// registration order.
func (g *Graph) DependentsOf(addr nodeid.Address) ([]*node.Node, error) {
	if _, ok := g.Node(addr); !ok {
		return nil, nodeError(ErrUnknownNode, addr, "")
	}
	seen := make(map[int]bool)
	for i, n := range g.nodes {
		for _, in := range n.Inputs() {
			if in.IsConnected() && in.Source.Node.Equal(addr) {
				seen[i] = true
			}
		}
	}
	return g.pick(seen), nil
}

func (g *Graph) pick(indexes map[int]bool) []*node.Node {
	out := make([]*node.Node, 0, len(indexes))
	for i, n := range g.nodes {
		if indexes[i] {
			out = append(out, n)
		}
	}
	return out
}

// Finalize checks the graph for cycles and then lets every node resolve its
// dependencies, producers first. It runs once; later calls only re-check
// cycles.
func (g *Graph) Finalize(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	order, err := g.Sort(nil)
	if err != nil {
		return fmt.Errorf("failed to finalize render graph: %w", err)
	}
	if g.finalized {
		return nil
	}

	var errs []error
	for _, n := range order {
		if err := n.Pass().SetDependencies(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("node %s: %w", n.ID(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to set node dependencies: %w", errors.Join(errs...))
	}

	g.finalized = true
	logger.Info("Render graph finalized.", "nodes", len(g.nodes))
	return nil
}

// Teardown disposes every node and empties the graph.
func (g *Graph) Teardown(ctx context.Context) {
	for _, n := range g.nodes {
		n.Dispose()
	}
	ctxlog.FromContext(ctx).Debug("Render graph torn down.", "nodes", len(g.nodes))
	g.nodes = nil
	g.index = make(map[string]int)
	g.finalized = false
	g.cycle = nil
	g.mutated()
}

// rewired re-checks a finalized graph for cycles after its wiring changed.
// Before Finalize wiring may pass through cycles freely.
func (g *Graph) rewired(ctx context.Context) {
	if g.finalized {
		prev := g.cycle
		g.cycle = g.DetectCycles()
		if g.cycle != nil {
			ctxlog.FromContext(ctx).Warn("Rewiring introduced a dependency cycle.", "error", g.cycle)
		} else if prev != nil {
			ctxlog.FromContext(ctx).Info("Dependency cycle resolved.")
		}
	}
	g.mutated()
}

func (g *Graph) mutated() {
	g.generation++
	g.RequestTaskListRefresh()
}
