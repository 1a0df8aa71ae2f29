// Package composer reads the state Composer leaves on disk: the root
// composer.json of the project and the installed-package index at
// <vendor-dir>/composer/installed.json.
package composer
