// The cache never touches the operating system directly; every call goes through FS so tests (and callers with
// unusual storage) can inject their own filesystem.

package fsys

import (
	"io/fs"
	"os"
)

// DirHandle is an open directory being listed. It must be closed by whoever opened it.
type DirHandle interface {
	// ReadDir reads up to n entries; see os.File.ReadDir for the io.EOF contract.
	ReadDir(n int) ([]fs.DirEntry, error)
	Close() error
}

// FS is the filesystem capability used by the cache.
type FS interface {
	Mkdir(name string, perm fs.FileMode) error
	Chmod(name string, mode fs.FileMode) error
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Rename(oldPath, newPath string) error
	// Remove deletes a file or an empty directory.
	Remove(name string) error
	OpenDir(name string) (DirHandle, error)
	// Writable reports whether the process may create entries inside directory `name`.
	Writable(name string) bool
}

// OS is the FS backed by the host filesystem.
type OS struct{}

var _ FS = OS{}

func (OS) Mkdir(name string, perm fs.FileMode) error { return os.Mkdir(name, perm) }

func (OS) Chmod(name string, mode fs.FileMode) error { return os.Chmod(name, mode) }

func (OS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

func (OS) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

func (OS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (OS) Rename(oldPath, newPath string) error { return os.Rename(oldPath, newPath) }

func (OS) Remove(name string) error { return os.Remove(name) }

func (OS) OpenDir(name string) (DirHandle, error) {
	dir, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return dir, nil
}

func (OS) Writable(name string) bool { return writable(name) }
