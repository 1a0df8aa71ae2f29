package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/beacon-labs/beacon-installer/internal/branding"
	"github.com/beacon-labs/beacon-installer/internal/rules"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
)

const fileType = "yaml"

// Setting keys.
const (
	KeyVendorDir = "vendor-dir"
	KeyCleanup   = "cleanup"
	KeyDisable   = "disable"
	KeyRules     = "rules"
)

// Keys lists the settable scalar keys.
var Keys = []string{KeyVendorDir, KeyCleanup, KeyDisable}

// Settings is the decoded configuration.
type Settings struct {
	VendorDir string    `mapstructure:"vendor-dir"`
	Cleanup   bool      `mapstructure:"cleanup"`
	Disable   bool      `mapstructure:"disable"`
	Rules     rules.Set `mapstructure:"rules"`
}

// InvalidError reports a settings file that fails schema validation.
type InvalidError struct {
	Path   string
	Issues []rules.ValidationIssue
}

func (e *InvalidError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return fmt.Sprintf("invalid settings in %s: %s", e.Path, strings.Join(msgs, "; "))
}

// Config is a loaded settings file plus environment overrides.
type Config struct {
	v      *viper.Viper
	path   string
	exists bool
}

// FilePath returns the settings file path for projectDir.
func FilePath(projectDir string) string {
	return filepath.Join(projectDir, branding.ConfigFile())
}

// Load reads the settings for projectDir. file overrides the default
// location. A missing file yields the defaults; a file that fails schema
// validation yields an *InvalidError.
func Load(projectDir, file string) (*Config, error) {
	path := file
	if path == "" {
		path = FilePath(projectDir)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(KeyVendorDir, "vendor")
	v.SetDefault(KeyCleanup, true)
	v.SetDefault(KeyDisable, false)

	c := &Config{v: v, path: path}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}
	c.exists = true

	if err := validateFile(path); err != nil {
		return nil, err
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}
	return c, nil
}

// Path returns the settings file path.
func (c *Config) Path() string { return c.path }

// Exists reports whether the settings file was found.
func (c *Config) Exists() bool { return c.exists }

// HasVendorDir reports whether vendor-dir was set explicitly.
func (c *Config) HasVendorDir() bool {
	return c.v.InConfig(KeyVendorDir) || os.Getenv(branding.EnvVar(KeyVendorDir)) != ""
}

// Settings decodes the configuration. Without a rules section the built-in
// rules apply.
func (c *Config) Settings() (Settings, error) {
	var s Settings
	if err := c.v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	if !c.v.IsSet(KeyRules) {
		s.Rules = rules.Defaults()
	}
	if err := s.Rules.Validate(); err != nil {
		return Settings{}, fmt.Errorf("settings %s: %w", c.path, err)
	}
	return s, nil
}

// Get returns the effective value of key.
func (c *Config) Get(key string) any {
	if key == KeyRules && !c.v.IsSet(KeyRules) {
		return rules.Defaults()
	}
	return c.v.Get(key)
}

// Set writes key to the settings file, creating it when needed. Only the
// file's own content is written back; environment overrides are not.
func (c *Config) Set(key, value string) error {
	typed, err := parseValue(key, value)
	if err != nil {
		return err
	}

	fv := viper.New()
	fv.SetConfigFile(c.path)
	fv.SetConfigType(fileType)
	if c.exists {
		if err := fv.ReadInConfig(); err != nil {
			return fmt.Errorf("reading settings %s: %w", c.path, err)
		}
	}
	fv.Set(key, typed)

	data, err := yaml.Marshal(fv.AllSettings())
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := validate(c.path, data); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	if err := fv.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}

	c.v.Set(key, typed)
	c.exists = true
	return nil
}

func parseValue(key, value string) (any, error) {
	if !slices.Contains(Keys, key) {
		return nil, fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(Keys, ", "))
	}
	switch key {
	case KeyCleanup, KeyDisable:
		b, err := cast.ToBoolE(value)
		if err != nil {
			return nil, fmt.Errorf("%s: expected a boolean, got %q", key, value)
		}
		return b, nil
	default:
		if value == "" {
			return nil, fmt.Errorf("%s: value must not be empty", key)
		}
		return value, nil
	}
}

func validateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading settings %s: %w", path, err)
	}
	return validate(path, data)
}

func validate(path string, data []byte) error {
	result, err := rules.Validate(data)
	if err != nil {
		return fmt.Errorf("settings %s: %w", path, err)
	}
	if !result.Valid {
		return &InvalidError{Path: path, Issues: result.Issues}
	}
	return nil
}
