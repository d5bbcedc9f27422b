package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/rendergraph/internal/connection"
	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/vk/rendergraph/internal/graph"
	"github.com/vk/rendergraph/internal/node"
	"github.com/vk/rendergraph/internal/statechange"
)

// ErrRebuildFailed wraps every rebuild failure.
var ErrRebuildFailed = errors.New("task list rebuild failed")

// Policy decides what happens to active consumers of inactive producers.
type Policy int

const (
	PolicyFail Policy = iota
	PolicySkipDependents
)

func (p Policy) String() string {
	if p == PolicySkipDependents {
		return "skip-dependents"
	}
	return "fail"
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPolicy sets the inactive producer policy.
func WithPolicy(p Policy) Option {
	return func(s *Scheduler) { s.policy = p }
}

// Scheduler builds and caches the task list of one graph.
type Scheduler struct {
	graph  *graph.Graph
	policy Policy

	current *TaskList
	lastErr error

	dirty      bool
	builtGen   uint64
	rebuilding bool
	rebuilds   int
}

// New creates a scheduler for g and registers itself as the graph's
// refresher.
func New(g *graph.Graph, opts ...Option) *Scheduler {
	s := &Scheduler{graph: g, dirty: true}
	for _, opt := range opts {
		opt(s)
	}
	g.SetRefresher(s)
	return s
}

// Policy returns the inactive producer policy.
func (s *Scheduler) Policy() Policy { return s.policy }

// RequestTaskListRefresh marks the task list stale. Requests made by
// resource resolvers during a rebuild are absorbed by that rebuild.
func (s *Scheduler) RequestTaskListRefresh() {
	if s.rebuilding {
		return
	}
	s.dirty = true
}

// MarkDirty is RequestTaskListRefresh.
func (s *Scheduler) MarkDirty() { s.RequestTaskListRefresh() }

// IsDirty reports whether the next TaskList call rebuilds.
func (s *Scheduler) IsDirty() bool {
	return s.dirty || s.builtGen != s.graph.Generation()
}

// Current returns the installed task list without rebuilding. It is nil
// until the first successful rebuild.
func (s *Scheduler) Current() *TaskList { return s.current }

// Err returns the error of the most recent rebuild, nil if it succeeded.
func (s *Scheduler) Err() error { return s.lastErr }

// Rebuilds counts rebuild attempts.
func (s *Scheduler) Rebuilds() int { return s.rebuilds }

// TaskList returns the task list, rebuilding it first if anything changed
// since the last rebuild. Any number of changes between two calls cost one
// rebuild. When the rebuild fails the previous list is returned together
// with the error.
func (s *Scheduler) TaskList(ctx context.Context) (*TaskList, error) {
	if !s.IsDirty() {
		return s.current, nil
	}
	return s.Rebuild(ctx)
}

// Rebuild recomputes the task list unconditionally.
func (s *Scheduler) Rebuild(ctx context.Context) (*TaskList, error) {
	logger := ctxlog.FromContext(ctx)
	s.rebuilds++
	gen := s.graph.Generation()

	// Whatever happens, this attempt accounts for every change seen so far.
	// A failed rebuild is not retried until something changes again.
	s.dirty = false
	s.builtGen = gen

	s.rebuilding = true
	list, err := s.build(ctx, gen)
	s.rebuilding = false

	if err != nil {
		s.lastErr = fmt.Errorf("%w: %w", ErrRebuildFailed, err)
		logger.Error("Task list rebuild failed, keeping previous task list.", "error", err, "previous_steps", s.current.Len())
		return s.current, s.lastErr
	}

	changed := s.current == nil || s.current.Digest() != list.Digest()
	s.current = list
	s.lastErr = nil
	logger.Debug("Task list rebuilt.", "generation", gen, "steps", list.Len(), "changed", changed, "rebuild", s.rebuilds)
	return list, nil
}

func (s *Scheduler) build(ctx context.Context, gen uint64) (*TaskList, error) {
	if err := s.graph.Cycle(); err != nil {
		return nil, err
	}

	active, err := s.evaluate()
	if err != nil {
		return nil, err
	}

	order, err := s.graph.Sort(func(n *node.Node) bool { return active[n.ID()] })
	if err != nil {
		return nil, err
	}

	order, err = s.applyPolicy(ctx, order, active)
	if err != nil {
		return nil, err
	}

	steps, err := s.resolve(ctx, order)
	if err != nil {
		return nil, err
	}

	prev := statechange.NewSet()
	for i := range steps {
		desired := steps[i].Node.DesiredStateChanges()
		steps[i].Desired = desired
		steps[i].Transition = statechange.Diff(prev, desired)
		prev = desired
	}

	return &TaskList{
		Generation: gen,
		Steps:      steps,
		Tail:       statechange.Diff(prev, statechange.NewSet()),
	}, nil
}

func (s *Scheduler) evaluate() (map[string]bool, error) {
	active := make(map[string]bool)
	var errs []error
	for _, n := range s.graph.Nodes() {
		ok, err := n.Evaluate()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		active[n.ID()] = ok
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return active, nil
}

// applyPolicy walks the sorted active nodes and checks that every input is
// fed by a node that will run before it.
func (s *Scheduler) applyPolicy(ctx context.Context, order []*node.Node, active map[string]bool) ([]*node.Node, error) {
	logger := ctxlog.FromContext(ctx)
	scheduled := make(map[string]bool, len(order))
	kept := make([]*node.Node, 0, len(order))

	for _, n := range order {
		var unresolved *graph.Error
		for _, in := range n.Inputs() {
			switch {
			case !in.IsConnected():
				unresolved = graph.NewUnresolvedInput(n.Address(), in.Owner.Slot, "input is not connected")
			case !scheduled[in.Source.Node.String()]:
				reason := "producer " + in.Source.Node.String() + " is inactive"
				if active[in.Source.Node.String()] {
					reason = "producer " + in.Source.Node.String() + " was skipped"
				}
				unresolved = graph.NewUnresolvedInput(n.Address(), in.Owner.Slot, reason)
			}
			if unresolved != nil {
				break
			}
		}

		if unresolved == nil {
			scheduled[n.ID()] = true
			kept = append(kept, n)
			continue
		}
		if s.policy == PolicyFail {
			return nil, unresolved
		}
		logger.Warn("Skipping node with unresolved input.", "node", n.ID(), "reason", unresolved.Error())
	}
	return kept, nil
}

// resolve computes every connection's resource along order. Buffer-pair
// orientation is recomputed from the originating node on every rebuild, so
// swaps never accumulate across rebuilds.
func (s *Scheduler) resolve(ctx context.Context, order []*node.Node) ([]Step, error) {
	published := make(map[connection.Endpoint]connection.Resource)
	steps := make([]Step, 0, len(order))

	for _, n := range order {
		inputs := make(map[int]connection.Resource)
		for _, in := range n.Inputs() {
			res, ok := published[*in.Source]
			if !ok {
				return nil, graph.NewUnresolvedInput(n.Address(), in.Owner.Slot, "producer "+in.Source.String()+" published nothing")
			}
			inputs[in.Owner.Slot] = res
		}

		outputs := make(map[int]connection.Resource)
		for _, out := range n.Outputs() {
			var forwarded connection.Resource
			if out.Passthrough {
				forwarded = inputs[out.PassthroughSlot]
			}
			res, err := out.Resolve(forwarded, n.Swapped(out.Owner.Slot))
			if err != nil {
				return nil, fmt.Errorf("node %s: %w", n.ID(), err)
			}
			outputs[out.Owner.Slot] = res
			published[out.Owner] = res
		}

		if r, ok := n.Pass().(node.ResourceResolver); ok {
			if err := r.ResourcesResolved(ctx, n, inputs, outputs); err != nil {
				return nil, fmt.Errorf("node %s: failed to apply resolved resources: %w", n.ID(), err)
			}
		}

		steps = append(steps, Step{Node: n, Inputs: inputs, Outputs: outputs})
	}
	return steps, nil
}
