package statechange

import (
	"strings"

	"cogentcore.org/core/base/ordmap"
)

// Set is an ordered set of state changes. Declaration order is kept because
// it matters on the GPU (bind before enable-material). A nil *Set behaves as
// the empty set for all read operations.
type Set struct {
	items *ordmap.Map[StateChange, struct{}]
}

// NewSet returns a set holding the given changes in order. Duplicates are
// dropped.
func NewSet(changes ...StateChange) *Set {
	s := &Set{items: ordmap.New[StateChange, struct{}]()}
	for _, sc := range changes {
		s.Add(sc)
	}
	return s
}

// Add appends sc unless an equal change is already present. It reports
// whether the set changed.
func (s *Set) Add(sc StateChange) bool {
	if s.items == nil {
		s.items = ordmap.New[StateChange, struct{}]()
	}
	if _, has := s.items.IndexByKeyTry(sc); has {
		return false
	}
	s.items.Add(sc, struct{}{})
	return true
}

// Remove deletes sc. Removing an absent change is a no-op; it reports whether
// the set changed.
func (s *Set) Remove(sc StateChange) bool {
	if s == nil || s.items == nil {
		return false
	}
	return s.items.DeleteKey(sc)
}

// Contains reports whether an equal change is present.
func (s *Set) Contains(sc StateChange) bool {
	if s == nil || s.items == nil {
		return false
	}
	_, has := s.items.IndexByKeyTry(sc)
	return has
}

// Len returns the number of changes.
func (s *Set) Len() int {
	if s == nil || s.items == nil {
		return 0
	}
	return s.items.Len()
}

// Slice returns the changes in declared order.
func (s *Set) Slice() []StateChange {
	if s == nil || s.items == nil {
		return nil
	}
	return s.items.Keys()
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	return NewSet(s.Slice()...)
}

// Equal reports whether both sets hold the same changes, ignoring order.
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, sc := range s.Slice() {
		if !other.Contains(sc) {
			return false
		}
	}
	return true
}

func (s *Set) String() string {
	parts := make([]string, 0, s.Len())
	for _, sc := range s.Slice() {
		parts = append(parts, sc.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
