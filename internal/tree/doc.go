// Package tree implements the filesystem primitives the installer is built
// on: a pre-order directory walker, an additive merge that copies a source
// tree into a destination without touching anything already there, and a
// best-effort recursive remover for staging directories.
//
// Everything goes through an afero.Fs so the same code runs against the real
// disk, an in-memory filesystem in tests, and a copy-on-write overlay for dry
// runs.
package tree
