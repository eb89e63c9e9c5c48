package fs

import (
	"os"
	"path/filepath"
)

// DirSize returns the recursive byte total of every regular file below dir.
// Other file kinds (symlinks, sockets, devices) are skipped, as are subtrees
// that cannot be read.
func DirSize(dir string) uint64 {
	var total uint64

	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return filepath.SkipDir
		}
		if d.Type().IsRegular() {
			if fi, err := d.Info(); err == nil {
				total += uint64(fi.Size())
			}
		}
		return nil
	})

	return total
}

// FileCount returns the number of regular files below dir, traversing only
// directories and regular files.
func FileCount(dir string) uint64 {
	var count uint64

	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return filepath.SkipDir
		}
		if d.Type().IsRegular() {
			count++
		}
		return nil
	})

	return count
}
