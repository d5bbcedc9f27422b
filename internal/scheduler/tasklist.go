package scheduler

import (
	"encoding/binary"
	"sort"

	"github.com/twmb/murmur3"
	"github.com/vk/rendergraph/internal/connection"
	"github.com/vk/rendergraph/internal/node"
	"github.com/vk/rendergraph/internal/statechange"
)

// Step is one node's entry in the task list.
type Step struct {
	Node    *node.Node
	Inputs  map[int]connection.Resource
	Outputs map[int]connection.Resource
	// Desired is the node's desired state at rebuild time.
	Desired *statechange.Set
	// Transition moves the render state from the previous step's desired
	// state to this step's.
	Transition statechange.Transition
}

// TaskList is the ordered, immutable result of a rebuild.
type TaskList struct {
	// Generation is the graph generation the list was built from.
	Generation uint64
	Steps      []Step
	// Tail returns the render state to the default after the last step.
	Tail statechange.Transition
}

// Len returns the number of steps.
func (l *TaskList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Steps)
}

// NodeIDs returns the identifiers of the scheduled nodes, in order.
func (l *TaskList) NodeIDs() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.Steps))
	for i, s := range l.Steps {
		out[i] = s.Node.ID()
	}
	return out
}

// Contains reports whether the node with the given identifier is scheduled.
func (l *TaskList) Contains(id string) bool {
	for _, s := range l.stepsOrNil() {
		if s.Node.ID() == id {
			return true
		}
	}
	return false
}

// Step returns the step for a node identifier.
func (l *TaskList) Step(id string) (Step, bool) {
	for _, s := range l.stepsOrNil() {
		if s.Node.ID() == id {
			return s, true
		}
	}
	return Step{}, false
}

func (l *TaskList) stepsOrNil() []Step {
	if l == nil {
		return nil
	}
	return l.Steps
}

// Digest hashes the node order, resolved resources and transitions. Two
// lists with the same digest render the same way.
func (l *TaskList) Digest() uint64 {
	h := murmur3.New64()
	var buf [8]byte
	writeString := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		_, _ = h.Write(buf[:])
		_, _ = h.Write([]byte(s))
	}
	writeResources := func(m map[int]connection.Resource) {
		slots := make([]int, 0, len(m))
		for slot := range m {
			slots = append(slots, slot)
		}
		sort.Ints(slots)
		for _, slot := range slots {
			binary.LittleEndian.PutUint64(buf[:], uint64(slot))
			_, _ = h.Write(buf[:])
			writeString(m[slot].String())
		}
	}

	for _, s := range l.stepsOrNil() {
		writeString(s.Node.ID())
		writeResources(s.Inputs)
		writeResources(s.Outputs)
		writeString(s.Transition.String())
	}
	if l != nil {
		writeString(l.Tail.String())
	}
	return h.Sum64()
}
