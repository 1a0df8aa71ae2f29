package tree

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Remover deletes directory trees. It keeps going past individual failures
// and reports all of them together.
type Remover struct {
	fs  afero.Fs
	log zerolog.Logger
}

// NewRemover returns a Remover operating on fsys.
func NewRemover(fsys afero.Fs, logger zerolog.Logger) *Remover {
	return &Remover{fs: fsys, log: logger}
}

// Remove deletes path and everything below it. A missing path is not an
// error. Children are removed before their parent; symbolic links are removed
// without being followed. The returned error joins every failed deletion.
func (r *Remover) Remove(path string) error {
	exists, err := lexists(r.fs, path)
	if err != nil {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if !exists {
		return nil
	}
	return r.remove(path)
}

func (r *Remover) remove(path string) error {
	info, err := lstat(r.fs, path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return r.fs.Remove(path)
	}

	var errs []error
	children, err := afero.ReadDir(r.fs, path)
	if err != nil {
		errs = append(errs, err)
	}
	for _, child := range children {
		childPath := filepath.Join(path, child.Name())
		if child.IsDir() {
			errs = append(errs, r.remove(childPath))
			continue
		}
		if err := r.fs.Remove(childPath); err != nil {
			errs = append(errs, err)
		}
	}

	if err := r.fs.Remove(path); err != nil {
		errs = append(errs, err)
	}

	err = errors.Join(errs...)
	if err != nil {
		r.log.Debug().Err(err).Str("path", path).Msg("Incomplete removal")
	}
	return err
}
