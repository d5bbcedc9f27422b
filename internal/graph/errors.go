package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/rendergraph/internal/nodeid"
)

var (
	ErrDuplicateIdentifier = errors.New("duplicate node identifier")
	ErrUnknownNode         = errors.New("unknown node")
	ErrUnknownSlot         = errors.New("unknown slot")
	ErrTypeMismatch        = errors.New("connection type mismatch")
	ErrAlreadyConnected    = errors.New("input already connected")
	ErrCyclicDependency    = errors.New("cyclic dependency")
	ErrUnresolvedInput     = errors.New("unresolved input")
)

// Error carries the node and slot a graph error is about.
type Error struct {
	Err  error
	Node nodeid.Address
	Slot int
	// Path lists the nodes of a dependency cycle, first node repeated last.
	Path []nodeid.Address
	Msg  string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if len(e.Path) > 0 {
		parts := make([]string, len(e.Path))
		for i, a := range e.Path {
			parts[i] = a.String()
		}
		fmt.Fprintf(&b, ": %s", strings.Join(parts, " -> "))
	} else if !e.Node.IsZero() {
		fmt.Fprintf(&b, ": %s", e.Node)
		if e.Slot >= 0 {
			fmt.Fprintf(&b, " slot %d", e.Slot)
		}
	}
	if e.Msg != "" {
		fmt.Fprintf(&b, " (%s)", e.Msg)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func nodeError(err error, addr nodeid.Address, msg string) *Error {
	return &Error{Err: err, Node: addr, Slot: -1, Msg: msg}
}

func slotError(err error, addr nodeid.Address, slot int, msg string) *Error {
	return &Error{Err: err, Node: addr, Slot: slot, Msg: msg}
}

// NewUnresolvedInput reports an active consumer whose producer is missing or
// inactive.
func NewUnresolvedInput(addr nodeid.Address, slot int, msg string) *Error {
	return slotError(ErrUnresolvedInput, addr, slot, msg)
}
