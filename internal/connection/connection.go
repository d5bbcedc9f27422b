package connection

import (
	"fmt"

	"github.com/vk/rendergraph/internal/nodeid"
)

// Kind is the type of resource a connection carries.
type Kind int

const (
	KindSingleBuffer Kind = iota
	KindBufferPair
	KindTexture2D
)

func (k Kind) String() string {
	switch k {
	case KindSingleBuffer:
		return "single-buffer"
	case KindBufferPair:
		return "buffer-pair"
	case KindTexture2D:
		return "texture-2d"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Direction tells producer slots from consumer slots.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Endpoint is a (node, slot) pair.
type Endpoint struct {
	Node nodeid.Address
	Slot int
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s#%d", e.Node.String(), e.Slot)
}

// Connection is one declared slot on a node.
type Connection struct {
	Kind      Kind
	Direction Direction
	Owner     Endpoint

	// Resource is set on outputs that originate their resource.
	Resource Resource

	// Passthrough marks a buffer-pair output that forwards the pair received
	// on input slot PassthroughSlot.
	Passthrough     bool
	PassthroughSlot int

	// Source is the producer wired into an input. Nil until connected.
	Source *Endpoint
}

// NewInput declares an input slot.
func NewInput(owner nodeid.Address, slot int, kind Kind) *Connection {
	return &Connection{
		Kind:      kind,
		Direction: Input,
		Owner:     Endpoint{Node: owner, Slot: slot},
	}
}

// NewOutput declares an output slot that originates res.
func NewOutput(owner nodeid.Address, slot int, res Resource) *Connection {
	return &Connection{
		Kind:      res.Kind(),
		Direction: Output,
		Owner:     Endpoint{Node: owner, Slot: slot},
		Resource:  res,
	}
}

// NewPassthrough declares a buffer-pair output forwarding input slot from.
func NewPassthrough(owner nodeid.Address, slot, from int) *Connection {
	return &Connection{
		Kind:            KindBufferPair,
		Direction:       Output,
		Owner:           Endpoint{Node: owner, Slot: slot},
		Passthrough:     true,
		PassthroughSlot: from,
	}
}

// IsConnected reports whether an input has a producer.
func (c *Connection) IsConnected() bool {
	return c.Source != nil
}

// Resolve computes the resource an output publishes, given the resource
// received on its pass-through input (if any) and the node-local swap flag.
func (c *Connection) Resolve(forwarded Resource, swap bool) (Resource, error) {
	if c.Direction != Output {
		return nil, fmt.Errorf("connection %s is not an output", c)
	}
	if !c.Passthrough {
		if c.Resource == nil {
			return nil, fmt.Errorf("output %s declares no resource", c)
		}
		if swap {
			if pair, ok := c.Resource.(BufferPair); ok {
				return pair.Swapped(), nil
			}
		}
		return c.Resource, nil
	}

	pair, ok := forwarded.(BufferPair)
	if !ok {
		return nil, fmt.Errorf("output %s forwards input slot %d which carries %v, not a buffer pair", c, c.PassthroughSlot, forwarded)
	}
	if swap {
		return pair.Swapped(), nil
	}
	return pair, nil
}

func (c *Connection) String() string {
	return fmt.Sprintf("%s %s(%s)", c.Owner, c.Direction, c.Kind)
}
