// Package statechange describes render-state mutations as comparable values
// and computes the minimal transition between the desired states of two
// consecutive render nodes.
//
// A StateChange is an immutable value: two state changes are equal when they
// have the same concrete type and the same parameters. This makes
// de-duplication in a node's desired set and set difference in the diff
// engine plain Go equality.
//
// Between nodes N1 and N2 of a task list the executor plays:
//
//	revert: N1 - N2, in reverse declared order
//	apply:  N2 - N1, in declared order
//
// Reverse order on revert means a texture bound after a buffer is unbound
// before that buffer.
package statechange
