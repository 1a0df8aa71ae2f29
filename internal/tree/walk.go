package tree

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrNotDir is returned when a walk root is not a directory.
var ErrNotDir = errors.New("not a directory")

// Entry is one node produced by Walker.Walk.
type Entry struct {
	Dir  bool        // true for directories (symlinks are resolved)
	Rel  string      // path relative to the walk root; "." for the root itself
	Path string      // absolute (or root-joined) path of the entry
	Mode fs.FileMode // mode of the entry, symlinks resolved
}

// Walker enumerates a directory tree in pre-order: a directory is produced
// before any of its contents, and siblings are produced in name order.
type Walker struct {
	fs afero.Fs
}

// NewWalker returns a Walker reading from fsys.
func NewWalker(fsys afero.Fs) *Walker {
	return &Walker{fs: fsys}
}

// Walk returns a lazy sequence over root and everything below it. The
// sequence stops after the first error, which is yielded with a zero Entry.
// Each call starts a fresh walk.
//
// Symbolic links are followed with Stat and reported as their target kind.
// Link cycles are not detected.
func (w *Walker) Walk(root string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		info, err := w.fs.Stat(root)
		if err != nil {
			yield(Entry{}, err)
			return
		}
		if !info.IsDir() {
			yield(Entry{}, &fs.PathError{Op: "walk", Path: root, Err: ErrNotDir})
			return
		}

		stack := []Entry{{Dir: true, Rel: ".", Path: root, Mode: info.Mode()}}
		for len(stack) > 0 {
			e := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if !yield(e, nil) {
				return
			}
			if !e.Dir {
				continue
			}

			children, err := w.children(e)
			if err != nil {
				yield(Entry{}, err)
				return
			}
			// Push in reverse so the smallest name is popped first.
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		}
	}
}

// children lists the direct children of a directory entry, sorted by name.
func (w *Walker) children(parent Entry) ([]Entry, error) {
	infos, err := afero.ReadDir(w.fs, parent.Path)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		path := filepath.Join(parent.Path, info.Name())
		rel := info.Name()
		if parent.Rel != "." {
			rel = filepath.Join(parent.Rel, info.Name())
		}

		if info.Mode()&os.ModeSymlink != 0 {
			resolved, err := w.fs.Stat(path)
			if err != nil {
				return nil, err
			}
			info = resolved
		}

		entries = append(entries, Entry{
			Dir:  info.IsDir(),
			Rel:  rel,
			Path: path,
			Mode: info.Mode(),
		})
	}
	return entries, nil
}

// lexists reports whether anything, including a dangling symlink, exists at
// path.
func lexists(fsys afero.Fs, path string) (bool, error) {
	_, err := lstat(fsys, path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// lstat uses Lstat when the filesystem supports it and Stat otherwise.
func lstat(fsys afero.Fs, path string) (fs.FileInfo, error) {
	if l, ok := fsys.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return fsys.Stat(path)
}
