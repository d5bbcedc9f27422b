// Package node defines the render node: the unit of rendering work in a
// render graph. A node is created by a pass factory, declares its input and
// output connections, carries the ordered set of state changes it wants
// active while it renders, and may be gated by conditions that are
// re-evaluated whenever a subscribed configuration property changes.
//
// The Pass interface is what concrete rendering code implements. The Node
// wraps a Pass with the bookkeeping the graph and the scheduler rely on.
// Every mutation that can change the task list (desired state changes,
// buffer-pair swaps, activation flips) asks the attached Refresher for a
// task list rebuild.
package node
