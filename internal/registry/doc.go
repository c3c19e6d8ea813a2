// Package registry holds the built-in catalog of synchronized collections.
//
// The catalog has three parts:
//
//   - Descriptors: how each collection is paged, sorted, partitioned and merged
//   - Models: the column schema of every persisted table
//   - Labels: the export file label of each reporting method
//
// A Registry is built once at start up and never changes afterwards. Every
// accessor returns a deep copy, so callers are free to mutate what they get
// back without affecting sync configuration shared by other goroutines.
//
// Overrides for the label table are accepted as a loosely typed value (it
// usually comes straight from decoded JSON or YAML). Only a sequence of
// (string, string) pairs is honored; anything else is ignored and the
// built-in labels stay in effect.
package registry
