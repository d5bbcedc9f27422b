package config

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Event describes a property change.
type Event struct {
	Property string
	Old      cty.Value
	New      cty.Value
}

// Listener receives property change events.
type Listener func(ctx context.Context, ev Event)

// Subscription identifies one registered listener.
type Subscription struct {
	id       uint64
	property string
}

// Property returns the property the subscription listens to.
func (s Subscription) Property() string { return s.property }

type listenerEntry struct {
	id uint64
	fn Listener
}

// Store is a typed property store with synchronous change notification.
type Store struct {
	values    map[string]cty.Value
	names     []string
	listeners map[string][]listenerEntry
	nextID    uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		values:    make(map[string]cty.Value),
		listeners: make(map[string][]listenerEntry),
	}
}

// Define sets a property's initial value without notifying anyone. The value
// fixes the property's type for later Set calls.
func (s *Store) Define(name string, v cty.Value) {
	if _, exists := s.values[name]; !exists {
		s.names = append(s.names, name)
	}
	s.values[name] = v
}

// Get returns a property value.
func (s *Store) Get(name string) (cty.Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Bool returns a boolean property, false if missing, null or not a bool.
func (s *Store) Bool(name string) bool {
	v, ok := s.values[name]
	if !ok || v.IsNull() || !v.IsKnown() || v.Type() != cty.Bool {
		return false
	}
	return v.True()
}

// Number returns a numeric property, 0 if missing, null or not a number.
func (s *Store) Number(name string) float64 {
	v, ok := s.values[name]
	if !ok || v.IsNull() || !v.IsKnown() || v.Type() != cty.Number {
		return 0
	}
	f, _ := v.AsBigFloat().Float64()
	return f
}

// Names returns the property names in definition order.
func (s *Store) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Set changes a property and notifies its subscribers if the value changed.
// The value is converted to the property's existing type; a value that
// cannot be converted is rejected and nothing is notified.
func (s *Store) Set(ctx context.Context, name string, v cty.Value) error {
	logger := ctxlog.FromContext(ctx)

	old, exists := s.values[name]
	if exists && !old.Type().Equals(v.Type()) {
		converted, err := convert.Convert(v, old.Type())
		if err != nil {
			return fmt.Errorf("property %q: cannot use %s value as %s: %w", name, v.Type().FriendlyName(), old.Type().FriendlyName(), err)
		}
		v = converted
	}
	if !exists {
		old = cty.NullVal(v.Type())
		s.names = append(s.names, name)
	}
	if exists && old.RawEquals(v) {
		logger.Debug("Property unchanged, no notification.", "property", name)
		return nil
	}

	s.values[name] = v
	logger.Debug("Property changed.", "property", name, "subscribers", len(s.listeners[name]))

	// Listeners may subscribe or unsubscribe while we dispatch.
	entries := append([]listenerEntry(nil), s.listeners[name]...)
	ev := Event{Property: name, Old: old, New: v}
	for _, e := range entries {
		e.fn(ctx, ev)
	}
	return nil
}

// Apply sets every property in values, in name order, and joins the errors.
func (s *Store) Apply(ctx context.Context, values map[string]cty.Value) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := s.Set(ctx, name, values[name]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers l for changes of property.
func (s *Store) Subscribe(property string, l Listener) Subscription {
	s.nextID++
	s.listeners[property] = append(s.listeners[property], listenerEntry{id: s.nextID, fn: l})
	return Subscription{id: s.nextID, property: property}
}

// Unsubscribe removes a listener. It reports whether the subscription was
// still active.
func (s *Store) Unsubscribe(sub Subscription) bool {
	entries := s.listeners[sub.property]
	for i, e := range entries {
		if e.id == sub.id {
			s.listeners[sub.property] = append(entries[:i:i], entries[i+1:]...)
			if len(s.listeners[sub.property]) == 0 {
				delete(s.listeners, sub.property)
			}
			return true
		}
	}
	return false
}

// SubscriberCount returns the number of listeners on a property.
func (s *Store) SubscriberCount(property string) int {
	return len(s.listeners[property])
}
