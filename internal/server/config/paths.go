package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// CheckSnapshotPaths inspects the snapshot location and returns warnings
// for anything that would break a future save. It never fails: nothing is
// persisted yet, so a bad location only affects what CONFIG GET reports.
func CheckSnapshotPaths(fsys afero.Fs, s SnapshotSection) []string {
	dir, name, ok := s.Resolve()
	if !ok {
		return nil
	}

	var warnings []string
	if dir != "" {
		info, err := fsys.Stat(dir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return append(warnings, fmt.Sprintf("snapshot dir %q does not exist", dir))
		case err != nil:
			return append(warnings, fmt.Sprintf("snapshot dir %q is not accessible: %v", dir, err))
		case !info.IsDir():
			return append(warnings, fmt.Sprintf("snapshot dir %q is not a directory", dir))
		}
	}

	path := filepath.Join(dir, name)
	if isDir, err := afero.IsDir(fsys, path); err == nil && isDir {
		warnings = append(warnings, fmt.Sprintf("snapshot file %q is a directory", path))
	}
	return warnings
}
