package graph

import (
	"container/heap"

	"github.com/vk/rendergraph/internal/node"
	"github.com/vk/rendergraph/internal/nodeid"
)

// Sort returns the nodes selected by include in dependency order, ties
// broken by registration order. A nil include selects every node. Edges
// from unselected producers are ignored.
func (g *Graph) Sort(include func(*node.Node) bool) ([]*node.Node, error) {
	selected := make([]bool, len(g.nodes))
	for i, n := range g.nodes {
		selected[i] = include == nil || include(n)
	}
	adj := g.adjacency(selected)

	indegree := make([]int, len(g.nodes))
	for _, consumers := range adj {
		for _, c := range consumers {
			indegree[c]++
		}
	}

	ready := &indexHeap{}
	want := 0
	for i := range g.nodes {
		if !selected[i] {
			continue
		}
		want++
		if indegree[i] == 0 {
			heap.Push(ready, i)
		}
	}

	order := make([]*node.Node, 0, want)
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		order = append(order, g.nodes[i])
		for _, c := range adj[i] {
			indegree[c]--
			if indegree[c] == 0 {
				heap.Push(ready, c)
			}
		}
	}

	if len(order) < want {
		if path := g.findCycle(selected, adj); path != nil {
			return nil, &Error{Err: ErrCyclicDependency, Slot: -1, Path: path}
		}
		return nil, &Error{Err: ErrCyclicDependency, Slot: -1}
	}
	return order, nil
}

// DetectCycles reports the first dependency cycle found, walking nodes in
// registration order.
func (g *Graph) DetectCycles() error {
	selected := make([]bool, len(g.nodes))
	for i := range selected {
		selected[i] = true
	}
	if path := g.findCycle(selected, g.adjacency(selected)); path != nil {
		return &Error{Err: ErrCyclicDependency, Slot: -1, Path: path}
	}
	return nil
}

// adjacency maps each selected producer index to its selected consumers, in
// registration order, one entry per distinct consumer.
func (g *Graph) adjacency(selected []bool) map[int][]int {
	adj := make(map[int][]int)
	for ci, n := range g.nodes {
		if !selected[ci] {
			continue
		}
		seen := make(map[int]bool)
		for _, in := range n.Inputs() {
			if !in.IsConnected() {
				continue
			}
			pi, ok := g.index[in.Source.Node.String()]
			if !ok || !selected[pi] || seen[pi] {
				continue
			}
			seen[pi] = true
			adj[pi] = append(adj[pi], ci)
		}
	}
	return adj
}

// findCycle runs a three-colour depth-first search and returns the first
// cycle as a path whose first node is repeated at the end.
func (g *Graph) findCycle(selected []bool, adj map[int][]int) []nodeid.Address {
	const (
		white = iota
		grey
		black
	)
	colour := make([]int, len(g.nodes))
	var stack []int

	var visit func(i int) []nodeid.Address
	visit = func(i int) []nodeid.Address {
		colour[i] = grey
		stack = append(stack, i)
		for _, c := range adj[i] {
			switch colour[c] {
			case grey:
				start := 0
				for k, s := range stack {
					if s == c {
						start = k
						break
					}
				}
				path := make([]nodeid.Address, 0, len(stack)-start+1)
				for _, s := range stack[start:] {
					path = append(path, g.nodes[s].Address())
				}
				return append(path, g.nodes[c].Address())
			case white:
				if p := visit(c); p != nil {
					return p
				}
			}
		}
		stack = stack[:len(stack)-1]
		colour[i] = black
		return nil
	}

	for i := range g.nodes {
		if selected[i] && colour[i] == white {
			if p := visit(i); p != nil {
				return p
			}
		}
	}
	return nil
}

type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}
