package statechange

import "strings"

// Transition is the work needed to move the render state from one node's
// desired set to the next one's.
type Transition struct {
	// Revert holds changes to undo, already in reverse declared order.
	Revert []StateChange
	// Apply holds changes to make, in declared order.
	Apply []StateChange
}

// Diff computes the transition from prev to next. Either set may be nil,
// which stands for the default (empty) render state.
func Diff(prev, next *Set) Transition {
	var t Transition

	prevChanges := prev.Slice()
	for i := len(prevChanges) - 1; i >= 0; i-- {
		if !next.Contains(prevChanges[i]) {
			t.Revert = append(t.Revert, prevChanges[i])
		}
	}

	for _, sc := range next.Slice() {
		if !prev.Contains(sc) {
			t.Apply = append(t.Apply, sc)
		}
	}
	return t
}

// Full returns the naive transition that reverts everything in prev and
// applies everything in next. It produces the same visible state as Diff.
func Full(prev, next *Set) Transition {
	var t Transition
	prevChanges := prev.Slice()
	for i := len(prevChanges) - 1; i >= 0; i-- {
		t.Revert = append(t.Revert, prevChanges[i])
	}
	t.Apply = next.Slice()
	return t
}

// Empty reports whether the transition has nothing to do.
func (t Transition) Empty() bool {
	return len(t.Revert) == 0 && len(t.Apply) == 0
}

// Len is the number of individual state changes the transition plays.
func (t Transition) Len() int {
	return len(t.Revert) + len(t.Apply)
}

// ApplyTo plays the transition on a set standing for the current render
// state.
func (t Transition) ApplyTo(state *Set) {
	for _, sc := range t.Revert {
		state.Remove(sc)
	}
	for _, sc := range t.Apply {
		state.Add(sc)
	}
}

func (t Transition) String() string {
	var sb strings.Builder
	sb.WriteString("revert[")
	for i, sc := range t.Revert {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(sc.String())
	}
	sb.WriteString("] apply[")
	for i, sc := range t.Apply {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(sc.String())
	}
	sb.WriteString("]")
	return sb.String()
}
