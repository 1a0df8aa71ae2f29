package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/beacon-labs/beacon-installer/internal/composer"
	"github.com/beacon-labs/beacon-installer/internal/config"
	"github.com/beacon-labs/beacon-installer/internal/installer"
	"github.com/spf13/afero"
)

// composerVendorEnv is Composer's own vendor-dir override.
const composerVendorEnv = "COMPOSER_VENDOR_DIR"

// project is the resolved state of the project a command runs against.
type project struct {
	root     string
	cfg      *config.Config
	settings config.Settings
	manifest *composer.RootPackage
	repo     *composer.Repository
}

// resolveRoot returns the absolute project root.
func (o *rootOptions) resolveRoot() (string, error) {
	root := o.projectDir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving project root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project root %s is not a directory", root)
	}
	return root, nil
}

// loadProject reads the settings file and composer.json and locates the
// vendor directory.
func (o *rootOptions) loadProject() (*project, error) {
	root, err := o.resolveRoot()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root, o.configFile)
	if err != nil {
		return nil, err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	manifest, err := composer.LoadRoot(root)
	if err != nil {
		return nil, err
	}

	return &project{
		root:     root,
		cfg:      cfg,
		settings: settings,
		manifest: manifest,
		repo:     composer.NewRepository(afero.NewOsFs(), vendorDir(root, cfg, settings, manifest)),
	}, nil
}

// vendorDir picks the vendor directory: an explicit installer setting, then
// COMPOSER_VENDOR_DIR, then composer.json config.vendor-dir, then "vendor".
func vendorDir(root string, cfg *config.Config, settings config.Settings, manifest *composer.RootPackage) string {
	dir := settings.VendorDir
	if !cfg.HasVendorDir() {
		if env := os.Getenv(composerVendorEnv); env != "" {
			dir = env
		} else if manifest.HasVendorDir() {
			return manifest.VendorDir()
		}
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}

// disableSource combines the settings flag with composer.json's
// extra.installer-disable.
func (p *project) disableSource() installer.ConfigSource {
	return installer.AnyDisabled(
		installer.ConfigFunc(func() (bool, error) { return p.settings.Disable, nil }),
		p.manifest,
	)
}
