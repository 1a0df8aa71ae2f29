// Package platform isolates the operating-system differences the installer
// cares about: Unix permission bits. On Windows, where those bits do not
// exist, every helper here is a no-op.
package platform
