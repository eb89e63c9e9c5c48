package fs

import "os"

// Stat returns a FileInfo structure describing the named file.
// If there is an error, it will be of type *PathError.
func Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// Lstat returns the FileInfo structure describing the named file.
// If the file is a symbolic link, the returned FileInfo
// describes the symbolic link. Lstat makes no attempt to follow the link.
func Lstat(name string) (os.FileInfo, error) {
	return os.Lstat(name)
}

// Exists reports whether the named path exists.
func Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// IsDir reports whether the named path exists and is a directory.
func IsDir(name string) bool {
	fi, err := os.Stat(name)
	return err == nil && fi.IsDir()
}

// MkdirAll creates a directory named path, along with any necessary parents,
// and returns nil, or else returns an error. If path is already a directory,
// MkdirAll does nothing and returns nil.
func MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Open opens a file for reading.
func Open(name string) (*os.File, error) {
	return os.Open(name)
}

// OpenFile is the generalized open call; most users will use Open
// or Create instead.
func OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, flag, perm)
}

// Remove removes the named file or empty directory.
func Remove(name string) error {
	return os.Remove(name)
}

// RemoveAll removes path and any children it contains. If the path does not
// exist, RemoveAll returns nil (no error).
func RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// RemoveIfExists removes a file, returning no error if it does not exist.
func RemoveIfExists(filename string) error {
	err := os.Remove(filename)
	if err != nil && os.IsNotExist(err) {
		err = nil
	}
	return err
}

// Readlink returns the destination of the named symbolic link.
func Readlink(name string) (string, error) {
	return os.Readlink(name)
}

// Rename renames (moves) oldpath to newpath.
func Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}
