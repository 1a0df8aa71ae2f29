package installer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const projectRoot = "/project"

// fakeRepo is an in-memory package repository. Packages are installed below
// /vendor/<name> unless listed in paths or failing.
type fakeRepo struct {
	pkgs    []Package
	paths   map[string]string
	failing map[string]error
	listErr error
	listed  int
}

func (r *fakeRepo) ListPackages() ([]Package, error) {
	r.listed++
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.pkgs, nil
}

func (r *fakeRepo) InstallPath(pkg Package) (string, error) {
	if err, ok := r.failing[pkg.Name]; ok {
		return "", err
	}
	if p, ok := r.paths[pkg.Name]; ok {
		return p, nil
	}
	return filepath.Join("/vendor", pkg.Name), nil
}

// failRemoveFs refuses every Remove call.
type failRemoveFs struct {
	afero.Fs
}

func (f failRemoveFs) Remove(name string) error {
	return &os.PathError{Op: "remove", Path: name, Err: errors.New("device busy")}
}

// failCreateFs refuses to create the file at path.
type failCreateFs struct {
	afero.Fs
	path string
}

func (f failCreateFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if name == f.path && flag&os.O_CREATE != 0 {
		return nil, &os.PathError{Op: "open", Path: name, Err: errors.New("disk full")}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func writeTree(t *testing.T, fsys afero.Fs, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if rel[len(rel)-1] == '/' {
			require.NoError(t, fsys.MkdirAll(path, 0o755))
			continue
		}
		require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
	}
}

func exists(t *testing.T, fsys afero.Fs, path string) bool {
	t.Helper()
	ok, err := afero.Exists(fsys, path)
	require.NoError(t, err)
	return ok
}

func readFile(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	return string(data)
}

// newTestInstaller builds an installer over fsys with the default rules.
func newTestInstaller(t *testing.T, fsys afero.Fs, repo *fakeRepo, mutate func(*Options)) (*Installer, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts := Options{
		ProjectRoot: projectRoot,
		Packages:    repo,
		Paths:       repo,
		Fs:          fsys,
		Logger:      zerolog.Nop(),
		Out:         &out,
	}
	if mutate != nil {
		mutate(&opts)
	}
	inst, err := New(opts)
	require.NoError(t, err)
	return inst, &out
}
