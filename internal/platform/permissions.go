package platform

import (
	"os"
	"runtime"

	"github.com/spf13/afero"
)

// ExecBits is the mask of the user, group and other execute bits.
const ExecBits os.FileMode = 0o111

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(fsys afero.Fs, path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return fsys.Chmod(path, mode)
}

// PropagateExec ORs the execute bits of srcMode into the current permission
// bits of dst. Other bits of dst are left as they are, so a file created with
// the process umask keeps its read/write bits and only gains +x.
func PropagateExec(fsys afero.Fs, dst string, srcMode os.FileMode) error {
	exec := srcMode.Perm() & ExecBits
	if exec == 0 {
		return nil
	}
	info, err := fsys.Stat(dst)
	if err != nil {
		return err
	}
	perm := info.Mode().Perm()
	if perm&exec == exec {
		return nil
	}
	return Chmod(fsys, dst, perm|exec)
}
