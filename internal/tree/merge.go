package tree

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/beacon-labs/beacon-installer/internal/platform"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// filePerm is the mode new files are created with before execute bits are
// propagated from the source.
const filePerm os.FileMode = 0o644

// CreateFunc is called after the merger creates an entry. dir tells whether
// the entry is a directory; target is its destination path.
type CreateFunc func(dir bool, target string)

// Result describes what a single Merge changed.
type Result struct {
	Copied bool     // true iff at least one file was copied
	Files  []string // copied files, relative to the destination
	Dirs   []string // created directories, relative to the destination
}

// Merger copies a source tree into a destination tree additively: missing
// directories are created and missing files copied, while every entry that
// already exists at the destination is left exactly as it is.
type Merger struct {
	fs       afero.Fs
	walker   *Walker
	log      zerolog.Logger
	onCreate CreateFunc
}

// NewMerger returns a Merger operating on fsys.
func NewMerger(fsys afero.Fs, logger zerolog.Logger) *Merger {
	return &Merger{
		fs:     fsys,
		walker: NewWalker(fsys),
		log:    logger,
	}
}

// OnCreate registers a callback invoked for every created file and directory.
func (m *Merger) OnCreate(fn CreateFunc) {
	m.onCreate = fn
}

// Merge copies everything under src that does not yet exist under dst.
//
// The destination root itself is created when absent, but its parent must
// exist. Files are created exclusively, so a file appearing at the target
// between the existence check and the copy is skipped rather than
// overwritten. Execute bits are propagated from source files on a best-effort
// basis. The first I/O error stops the merge; entries created before it stay
// in place.
func (m *Merger) Merge(src, dst string) (Result, error) {
	var res Result
	blocked := make(map[string]bool)

	for e, err := range m.walker.Walk(src) {
		if err != nil {
			return res, fmt.Errorf("reading %s: %w", src, err)
		}

		if isBlocked(blocked, e.Rel) {
			m.log.Debug().Str("path", e.Rel).Msg("Skipping entry below an existing non-directory")
			continue
		}

		target := dst
		if e.Rel != "." {
			target = filepath.Join(dst, e.Rel)
		}

		if e.Dir {
			created, err := m.mergeDir(e, target, blocked)
			if err != nil {
				return res, err
			}
			if created {
				res.Dirs = append(res.Dirs, e.Rel)
				m.notify(true, target)
			}
			continue
		}

		copied, err := m.mergeFile(e, target)
		if err != nil {
			return res, err
		}
		if copied {
			res.Copied = true
			res.Files = append(res.Files, e.Rel)
			m.notify(false, target)
		}
	}

	return res, nil
}

// mergeDir creates target when nothing exists there. When a non-directory
// occupies target, the whole source subtree is skipped.
func (m *Merger) mergeDir(e Entry, target string, blocked map[string]bool) (bool, error) {
	info, err := lstat(m.fs, target)
	switch {
	case err == nil:
		if info.IsDir() {
			return false, nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			if resolved, err := m.fs.Stat(target); err == nil && resolved.IsDir() {
				return false, nil
			}
		}
		if e.Rel == "." {
			return false, fmt.Errorf("merging into %s: %w", target, ErrNotDir)
		}
		blocked[e.Rel] = true
		m.log.Debug().Str("target", target).Msg("Existing entry is not a directory, leaving it untouched")
		return false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("checking %s: %w", target, err)
	}

	// Owner bits are forced so the merge can populate the directory.
	if err := m.fs.Mkdir(target, e.Mode.Perm()|0o700); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("creating directory %s: %w", target, err)
	}
	return true, nil
}

// mergeFile copies e to target unless something already exists there.
func (m *Merger) mergeFile(e Entry, target string) (bool, error) {
	exists, err := lexists(m.fs, target)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", target, err)
	}
	if exists {
		m.log.Trace().Str("target", target).Msg("File exists, skipping")
		return false, nil
	}

	copied, err := m.copyFile(e.Path, target)
	if err != nil || !copied {
		return false, err
	}

	if err := platform.PropagateExec(m.fs, target, e.Mode); err != nil {
		m.log.Debug().Err(err).Str("target", target).Msg("Could not propagate execute bits")
	}
	return true, nil
}

// copyFile streams src into a newly created dst. It reports false without an
// error when dst appeared in the meantime.
func (m *Merger) copyFile(src, dst string) (bool, error) {
	in, err := m.fs.Open(src)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := m.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		// Only the file this call created is removed.
		_ = m.fs.Remove(dst)
		return false, fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		_ = m.fs.Remove(dst)
		return false, fmt.Errorf("closing %s: %w", dst, err)
	}
	return true, nil
}

func (m *Merger) notify(dir bool, target string) {
	if m.onCreate != nil {
		m.onCreate(dir, target)
	}
}

// isBlocked reports whether rel lies below a blocked directory.
func isBlocked(blocked map[string]bool, rel string) bool {
	if len(blocked) == 0 {
		return false
	}
	for dir := filepath.Dir(rel); dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		if blocked[dir] {
			return true
		}
	}
	return false
}
