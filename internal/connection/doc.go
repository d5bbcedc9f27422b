// Package connection defines the typed, numbered slots through which render
// nodes declare the resources they produce (outputs) and consume (inputs),
// and the resources themselves: single off-screen buffers, ping-pong buffer
// pairs and 2D textures.
//
// Inputs are single-source: an input slot records the one producer endpoint
// wired to it. Outputs fan out to any number of consumers; the consumer side
// holds the wiring, so the dependency relation is always derived from inputs.
package connection
