// Package installer copies scaffold payloads shipped by installed packages
// into the project root.
//
// A package ships its payloads below a staging directory, one subdirectory
// per project type:
//
//	<install-path>/.install/<project-type>/...
//
// For every rule whose marker paths all exist in the project root, the
// matching payload of each package is merged additively into the root: files
// and directories that already exist are never touched. After all rules have
// run, the staging directory of every package visited by an eligible rule is
// deleted.
//
// A run is single-threaded. Two runs against the same project root at the
// same time race with each other; files are created exclusively, so neither
// run overwrites a file the other created, but which run copies a given file
// is undefined.
package installer
