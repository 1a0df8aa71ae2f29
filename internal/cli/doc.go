// Package cli defines the Cobra command tree for the beacon-installer CLI.
// Each file in this package builds one top-level command (install, packages,
// check, etc.). Commands delegate to internal packages for the work and only
// handle flag parsing, project discovery and output formatting.
package cli
