// internal/nodeid/doc.go

/*
Package nodeid provides a structured, type-safe representation for render
node identifiers, based on the canonical format `module:name`.

The module part names the module that provides the node (e.g. `engine`),
the name part is a dot-separated path within that module, e.g.
`engine:fbo.ssaoBlurred` or `engine:opaqueBlocks`.

This package enforces the identifier schema and centralizes all
formatting and parsing logic.
*/
package nodeid
