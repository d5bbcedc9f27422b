// Package scheduler turns the render graph into the task list the renderer
// walks every frame.
//
// # Why Scheduler Exists
//
// Nodes, their connections and their conditions change while the renderer
// runs: a configuration event may switch ambient occlusion off, a pass may
// swap the buffers it hands on, a module may rewire part of the graph. The
// scheduler collects all of those into one dirty flag and rebuilds the task
// list lazily, at most once per frame, no matter how many changes arrived.
//
// # How It Works
//
// A rebuild runs in phases and installs its result only if every phase
// succeeds:
//
//  1. Evaluate every node's conditions.
//  2. Sort the active nodes topologically, breaking ties by registration
//     order so that rebuilds are deterministic.
//  3. Resolve the resource behind every connection along that order,
//     recomputing buffer-pair orientation and applying swaps.
//  4. Let nodes implementing node.ResourceResolver react to the resolved
//     resources.
//  5. Diff each node's desired state changes against its predecessor's.
//
// A failed rebuild keeps the previously installed task list, so the frame
// keeps rendering with the last good configuration.
//
// # Inactive Producers
//
// An active node whose input is fed by an inactive (or unwired) producer
// cannot run. PolicyFail, the default, fails the rebuild with
// graph.ErrUnresolvedInput. PolicySkipDependents drops such consumers, and
// transitively their own consumers, from the task list instead.
package scheduler
