// Package registry maps the pass type names used in graph definition files
// (e.g. "opaque_blocks") to the Go factories that build the corresponding
// render nodes.
//
// Modules register their factories once at startup. The application then
// creates one node per `node` block of the graph definition, handing the
// factory the node's identifier, its decoded parameters and the
// configuration store it may subscribe to.
package registry
