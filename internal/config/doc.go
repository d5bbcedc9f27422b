// Package config holds the render graph's configuration collaborators: the
// property store that delivers change notifications to render nodes, the
// loaders for persisted settings files, the file watcher that hot-reloads
// them, and the format-agnostic model of a graph definition.
//
// # Property store
//
// Properties are dotted names ("rendering.ssao") with cty values. Setting a
// property to a different value notifies every subscriber of that property
// synchronously, in subscription order, before Set returns. No locking is
// done: the store belongs to the render loop goroutine like the graph it
// drives.
//
// # Settings files
//
// LoadSettings reads .properties, .toml and .yaml files into flat
// property maps. Watcher re-reads a settings file whenever it changes on
// disk and hands the new values to a callback, which is expected to post
// them to the render loop.
package config
