// Package scaffold writes the starter settings file for a project from an
// embedded template. It powers the "init" command. The generated file is
// validated against the settings schema before anything is written.
package scaffold
