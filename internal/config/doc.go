// Package config loads the per-project installer settings from
// .beacon-installer.yaml in the project root, with BEACON_INSTALLER_*
// environment variables taking precedence over the file.
package config
