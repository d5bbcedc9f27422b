// Package graph holds the render graph: the set of render nodes in
// registration order and the connections wired between their slots.
//
// Edges are never stored on their own. A consumer's input connection
// records its producer endpoint, and the dependency relation is derived
// from those records whenever it is needed. Every topology mutation bumps
// the graph's generation so the scheduler can tell its task list is stale.
//
// Cycles are legal while wiring (a reconnection may pass through a cyclic
// intermediate state). Finalize rejects them. After Finalize every rewiring
// re-runs cycle detection over all nodes, active or not, and task list
// rebuilds fail for as long as the reported cycle stays wired.
//
// The graph is not safe for concurrent use. It belongs to the render loop.
package graph
