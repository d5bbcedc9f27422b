package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/vk/rendergraph/internal/node"
	"github.com/vk/rendergraph/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// Module is the interface that every pass module implements to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Build carries everything a factory needs to create a node.
type Build struct {
	Addr   nodeid.Address
	Params map[string]cty.Value
	Store  *config.Store
}

// Factory creates a node, declares its connections and desired state and
// subscribes it to the properties it reacts to.
type Factory func(ctx context.Context, b Build) (*node.Node, error)

// Registry holds the registered pass factories for one application
// instance.
type Registry struct {
	factories map[string]Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// RegisterPass registers the factory for a pass type. Registering a type
// twice is a programming error and panics.
func (r *Registry) RegisterPass(passType string, f Factory) {
	if _, exists := r.factories[passType]; exists {
		panic(fmt.Sprintf("pass type '%s' already registered", passType))
	}
	slog.Debug("Registering pass type.", "type", passType)
	r.factories[passType] = f
}

// Types returns the registered pass types, sorted.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.factories))
	for t := range r.factories {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Has reports whether passType is registered.
func (r *Registry) Has(passType string) bool {
	_, ok := r.factories[passType]
	return ok
}

// Create builds a node of the given pass type.
func (r *Registry) Create(ctx context.Context, passType string, b Build) (*node.Node, error) {
	f, ok := r.factories[passType]
	if !ok {
		return nil, fmt.Errorf("unknown pass type '%s' for node %s", passType, b.Addr)
	}
	if b.Params == nil {
		b.Params = map[string]cty.Value{}
	}
	if b.Store == nil {
		b.Store = config.NewStore()
	}
	n, err := f(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to create node %s of type '%s': %w", b.Addr, passType, err)
	}
	ctxlog.FromContext(ctx).Debug("Node created.", "node", b.Addr.String(), "type", passType)
	return n, nil
}
