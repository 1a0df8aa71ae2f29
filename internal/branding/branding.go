// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed. Forks rename the tool by editing that file only.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	EnvPrefix   string `yaml:"env_prefix"`
	ConfigFile  string `yaml:"config_file"`
	StagingDir  string `yaml:"staging_dir"`
	LogDir      string `yaml:"log_dir"`
	GoModule    string `yaml:"go_module"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:     "beacon-installer",
			DisplayName: "Beacon Installer",
			Description: "Merges package scaffolds into a Composer project",
			EnvPrefix:   "BEACON_INSTALLER",
			ConfigFile:  ".beacon-installer.yaml",
			StagingDir:  ".install",
			LogDir:      "beacon-installer",
			GoModule:    "github.com/beacon-labs/beacon-installer",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "beacon-installer").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// EnvPrefix returns the environment variable prefix (e.g., "BEACON_INSTALLER").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// ConfigFile returns the project-level settings file name.
func ConfigFile() string { load(); return defaults.ConfigFile }

// StagingDir returns the directory name, relative to a package root, that
// holds scaffold payloads. It is part of the on-disk contract with package
// authors.
func StagingDir() string { load(); return defaults.StagingDir }

// LogDir returns the directory name used under the XDG state home.
func LogDir() string { load(); return defaults.LogDir }

// GoModule returns the Go module path.
func GoModule() string { load(); return defaults.GoModule }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("vendor-dir") → "BEACON_INSTALLER_VENDOR_DIR".
func EnvVar(suffix string) string {
	load()
	suffix = strings.ReplaceAll(suffix, "-", "_")
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
