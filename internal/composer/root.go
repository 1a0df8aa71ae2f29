package composer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cast"
)

// ManifestFile is the name of the root package manifest.
const ManifestFile = "composer.json"

// DisableKey is the key below "extra" that switches the installer off.
const DisableKey = "installer-disable"

// RootPackage is the project's own composer.json.
type RootPackage struct {
	path string
	k    *koanf.Koanf
}

// LoadRoot reads composer.json from projectDir. A project without one is
// treated as an empty manifest.
func LoadRoot(projectDir string) (*RootPackage, error) {
	path := filepath.Join(projectDir, ManifestFile)
	k := koanf.New(".")

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &RootPackage{path: path, k: k}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return &RootPackage{path: path, k: k}, nil
}

// Path returns the manifest path.
func (p *RootPackage) Path() string { return p.path }

// Name returns the package name, if any.
func (p *RootPackage) Name() string { return p.k.String("name") }

// Disabled reports whether extra.installer-disable is set to a truthy value.
// Booleans, numbers and boolean strings such as "1" or "false" are read as
// such; any other value follows Composer's loose truthiness, so a non-empty
// string or a non-empty list or object disables the installer.
func (p *RootPackage) Disabled() (bool, error) {
	v := p.k.Get("extra." + DisableKey)
	if v == nil {
		return false, nil
	}
	if disabled, err := cast.ToBoolE(v); err == nil {
		return disabled, nil
	}
	return truthy(v), nil
}

func truthy(v any) bool {
	switch val := v.(type) {
	case string:
		return val != "" && val != "0"
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return v != nil
	}
}

// VendorDir returns config.vendor-dir as an absolute path, defaulting to
// <project>/vendor.
func (p *RootPackage) VendorDir() string {
	dir := p.k.String("config.vendor-dir")
	if dir == "" {
		dir = "vendor"
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(filepath.Dir(p.path), filepath.FromSlash(dir))
}

// HasVendorDir reports whether composer.json sets config.vendor-dir.
func (p *RootPackage) HasVendorDir() bool {
	return p.k.Exists("config.vendor-dir")
}
