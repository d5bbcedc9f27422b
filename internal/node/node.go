package node

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/rendergraph/internal/condition"
	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/connection"
	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/vk/rendergraph/internal/nodeid"
	"github.com/vk/rendergraph/internal/statechange"
)

// ErrSlotInUse is returned when a node declares the same slot twice.
var ErrSlotInUse = errors.New("slot already declared")

type subscription struct {
	store *config.Store
	sub   config.Subscription
}

// Node is a single vertex of the render graph.
type Node struct {
	addr nodeid.Address
	pass Pass

	desired *statechange.Set
	inputs  map[int]*connection.Connection
	outputs map[int]*connection.Connection

	conditions    []condition.Condition
	subscriptions []subscription
	// lastActive is the activation value of the most recent evaluation.
	lastActive *bool

	swapped   map[int]bool
	refresher Refresher
	disposed  bool
}

// New creates a node running pass.
func New(addr nodeid.Address, pass Pass) *Node {
	return &Node{
		addr:    addr,
		pass:    pass,
		desired: statechange.NewSet(),
		inputs:  make(map[int]*connection.Connection),
		outputs: make(map[int]*connection.Connection),
		swapped: make(map[int]bool),
	}
}

// Address returns the node's identifier.
func (n *Node) Address() nodeid.Address { return n.addr }

// ID returns the canonical string form of the node's identifier.
func (n *Node) ID() string { return n.addr.String() }

// Pass returns the rendering logic behind the node.
func (n *Node) Pass() Pass { return n.pass }

// Attach sets the receiver of the node's refresh requests. The graph calls it
// when the node is added.
func (n *Node) Attach(r Refresher) { n.refresher = r }

// RequestTaskListRefresh marks the task list as needing a rebuild.
func (n *Node) RequestTaskListRefresh() {
	if n.refresher != nil {
		n.refresher.RequestTaskListRefresh()
	}
}

// DesiredStateChanges returns a copy of the state changes the node wants in
// effect while it renders, in declaration order.
func (n *Node) DesiredStateChanges() *statechange.Set {
	return n.desired.Clone()
}

// AddDesiredStateChange adds sc. Adding an equal change twice is a no-op.
func (n *Node) AddDesiredStateChange(sc statechange.StateChange) bool {
	if !n.desired.Add(sc) {
		return false
	}
	n.RequestTaskListRefresh()
	return true
}

// RemoveDesiredStateChange removes sc if present.
func (n *Node) RemoveDesiredStateChange(sc statechange.StateChange) bool {
	if !n.desired.Remove(sc) {
		return false
	}
	n.RequestTaskListRefresh()
	return true
}

// ReplaceDesiredStateChange swaps old for replacement, keeping every other
// change in place. It requests at most one refresh.
func (n *Node) ReplaceDesiredStateChange(old, replacement statechange.StateChange) bool {
	if old == replacement {
		return n.AddDesiredStateChange(replacement)
	}
	removed := n.desired.Remove(old)
	added := n.desired.Add(replacement)
	if removed || added {
		n.RequestTaskListRefresh()
	}
	return removed || added
}

// ReplaceDesiredStateChanges removes every change of old that is not in next,
// then adds next. Passes use it to rebind resources after resolution.
func (n *Node) ReplaceDesiredStateChanges(old, next []statechange.StateChange) {
	keep := statechange.NewSet(next...)
	for _, sc := range old {
		if !keep.Contains(sc) {
			n.RemoveDesiredStateChange(sc)
		}
	}
	for _, sc := range next {
		n.AddDesiredStateChange(sc)
	}
}

// AddInputBufferConnection declares a single-buffer input.
func (n *Node) AddInputBufferConnection(slot int) error {
	return n.addInput(slot, connection.KindSingleBuffer)
}

// AddInputBufferPairConnection declares a buffer-pair input.
func (n *Node) AddInputBufferPairConnection(slot int) error {
	return n.addInput(slot, connection.KindBufferPair)
}

// AddInputTextureConnection declares a 2D texture input.
func (n *Node) AddInputTextureConnection(slot int) error {
	return n.addInput(slot, connection.KindTexture2D)
}

// AddOutputBufferConnection declares an output originating buf.
func (n *Node) AddOutputBufferConnection(slot int, buf connection.Buffer) error {
	return n.addOutput(connection.NewOutput(n.addr, slot, buf))
}

// AddOutputBufferPairConnection declares an output originating pair.
func (n *Node) AddOutputBufferPairConnection(slot int, pair connection.BufferPair) error {
	return n.addOutput(connection.NewOutput(n.addr, slot, pair))
}

// AddOutputBufferPairPassthrough declares an output that forwards the pair
// received on input slot from.
func (n *Node) AddOutputBufferPairPassthrough(slot, from int) error {
	in, ok := n.inputs[from]
	if !ok || in.Kind != connection.KindBufferPair {
		return fmt.Errorf("node %s: pass-through output %d needs buffer-pair input slot %d", n.addr, slot, from)
	}
	return n.addOutput(connection.NewPassthrough(n.addr, slot, from))
}

// AddOutputTextureConnection declares an output originating tex.
func (n *Node) AddOutputTextureConnection(slot int, tex connection.Texture) error {
	return n.addOutput(connection.NewOutput(n.addr, slot, tex))
}

func (n *Node) addInput(slot int, kind connection.Kind) error {
	if _, exists := n.inputs[slot]; exists {
		return fmt.Errorf("node %s: input %d: %w", n.addr, slot, ErrSlotInUse)
	}
	n.inputs[slot] = connection.NewInput(n.addr, slot, kind)
	return nil
}

func (n *Node) addOutput(c *connection.Connection) error {
	slot := c.Owner.Slot
	if _, exists := n.outputs[slot]; exists {
		return fmt.Errorf("node %s: output %d: %w", n.addr, slot, ErrSlotInUse)
	}
	n.outputs[slot] = c
	return nil
}

// Input returns the input declared on slot.
func (n *Node) Input(slot int) (*connection.Connection, bool) {
	c, ok := n.inputs[slot]
	return c, ok
}

// Output returns the output declared on slot.
func (n *Node) Output(slot int) (*connection.Connection, bool) {
	c, ok := n.outputs[slot]
	return c, ok
}

// Inputs returns the declared inputs ordered by slot.
func (n *Node) Inputs() []*connection.Connection { return bySlot(n.inputs) }

// Outputs returns the declared outputs ordered by slot.
func (n *Node) Outputs() []*connection.Connection { return bySlot(n.outputs) }

func bySlot(m map[int]*connection.Connection) []*connection.Connection {
	out := make([]*connection.Connection, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Owner.Slot < out[j].Owner.Slot })
	return out
}

// SwapBufferPair toggles whether the buffer pair published on output slot is
// handed on swapped.
func (n *Node) SwapBufferPair(slot int) error {
	out, ok := n.outputs[slot]
	if !ok || out.Kind != connection.KindBufferPair {
		return fmt.Errorf("node %s: output %d is not a buffer pair", n.addr, slot)
	}
	n.swapped[slot] = !n.swapped[slot]
	n.RequestTaskListRefresh()
	return nil
}

// Swapped reports whether output slot is currently swapped.
func (n *Node) Swapped(slot int) bool { return n.swapped[slot] }

// RequiresCondition adds a condition gating the node.
func (n *Node) RequiresCondition(c condition.Condition) {
	n.conditions = append(n.conditions, c)
	n.RequestTaskListRefresh()
}

// Conditions returns the node's conditions.
func (n *Node) Conditions() []condition.Condition {
	out := make([]condition.Condition, len(n.conditions))
	copy(out, n.conditions)
	return out
}

// RequiresStoreCondition adds c and subscribes to every property it reads so
// that the node re-evaluates its activation when one of them changes.
func (n *Node) RequiresStoreCondition(store *config.Store, c condition.Condition) {
	n.RequiresCondition(c)
	props, ok := c.(condition.Properties)
	if !ok {
		return
	}
	for _, p := range props.Properties() {
		n.Subscribe(store, p)
	}
}

// Evaluate reports whether every condition holds. A node without conditions
// is always active.
func (n *Node) Evaluate() (bool, error) {
	active, err := condition.All(n.conditions...).Holds()
	if err != nil {
		return false, fmt.Errorf("node %s: %w", n.addr, err)
	}
	n.lastActive = &active
	return active, nil
}

// Subscribe routes changes of property to the pass and re-evaluates the
// node's activation afterwards. Subscribing twice to the same property
// in the same store is a no-op.
func (n *Node) Subscribe(store *config.Store, property string) {
	for _, s := range n.subscriptions {
		if s.store == store && s.sub.Property() == property {
			return
		}
	}
	sub := store.Subscribe(property, n.onConfigChange)
	n.subscriptions = append(n.subscriptions, subscription{store: store, sub: sub})
}

func (n *Node) onConfigChange(ctx context.Context, ev config.Event) {
	logger := ctxlog.ForNode(ctx, n.ID())
	logger.Debug("Configuration changed.", "property", ev.Property)

	n.pass.OnConfigChange(ctx, n, ev)

	previous := n.lastActive
	active, err := n.Evaluate()
	if err != nil {
		logger.Warn("Condition evaluation failed, requesting rebuild.", "error", err)
		n.RequestTaskListRefresh()
		return
	}
	if previous == nil || *previous != active {
		logger.Debug("Activation changed.", "active", active)
		n.RequestTaskListRefresh()
	}
}

// Dispose drops every configuration subscription. The node must not be used
// afterwards.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	for _, s := range n.subscriptions {
		s.store.Unsubscribe(s.sub)
	}
	n.subscriptions = nil
	n.refresher = nil
	n.disposed = true
}

// Disposed reports whether Dispose was called.
func (n *Node) Disposed() bool { return n.disposed }

func (n *Node) String() string { return n.addr.String() }
