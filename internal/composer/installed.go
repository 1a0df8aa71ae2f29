package composer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/beacon-labs/beacon-installer/internal/installer"
	"github.com/spf13/afero"
)

// installedFile is the index Composer writes below the vendor directory.
const installedFile = "installed.json"

type installedPackage struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Version     string  `json:"version"`
	InstallPath *string `json:"install-path"`
}

// installedIndex is the Composer 2 layout. Composer 1 writes a bare array.
type installedIndex struct {
	Packages []installedPackage `json:"packages"`
}

// Repository lists the packages installed into a vendor directory and
// resolves where each one lives.
type Repository struct {
	fs        afero.Fs
	vendorDir string
}

// NewRepository returns a repository for vendorDir, which should be absolute.
func NewRepository(fsys afero.Fs, vendorDir string) *Repository {
	return &Repository{fs: fsys, vendorDir: filepath.Clean(vendorDir)}
}

// VendorDir returns the vendor directory the repository reads.
func (r *Repository) VendorDir() string { return r.vendorDir }

// IndexPath returns the path of installed.json.
func (r *Repository) IndexPath() string {
	return filepath.Join(r.vendorDir, "composer", installedFile)
}

// ListPackages returns the installed packages in index order. A vendor
// directory without an index has no packages.
func (r *Repository) ListPackages() ([]installer.Package, error) {
	data, err := afero.ReadFile(r.fs, r.IndexPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading package index: %w", err)
	}

	entries, err := decodeIndex(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", r.IndexPath(), err)
	}

	pkgs := make([]installer.Package, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		pkg := installer.Package{Name: e.Name, Type: e.Type, Version: e.Version}
		if pkg.Type == "" {
			pkg.Type = "library"
		}
		if e.InstallPath != nil && *e.InstallPath != "" {
			pkg.InstallPath = r.absolute(*e.InstallPath)
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

// InstallPath returns the directory pkg is installed in: the path recorded in
// the index, or <vendor-dir>/<name> when the index has none.
func (r *Repository) InstallPath(pkg installer.Package) (string, error) {
	if pkg.Name == "" {
		return "", errors.New("package has no name")
	}
	if pkg.InstallPath != "" {
		return r.absolute(pkg.InstallPath), nil
	}
	return filepath.Join(r.vendorDir, filepath.FromSlash(pkg.Name)), nil
}

// absolute resolves p against <vendor-dir>/composer, where Composer records
// install paths relative to.
func (r *Repository) absolute(p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(r.vendorDir, "composer", p)
}

func decodeIndex(data []byte) ([]installedPackage, error) {
	var list []installedPackage
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var idx installedIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	return idx.Packages, nil
}
