// Package app wires the render graph together: it loads the graph
// definition and settings, builds nodes through the pass registry, connects
// and finalizes the graph, and drives frames through the scheduler and
// executor on the render loop. It is decoupled from any specific entrypoint
// like a CLI.
package app
