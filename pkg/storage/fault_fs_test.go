package storage

import (
	"io/fs"
	"sync"

	"github.com/nobletooth/filecache/pkg/fsys"
)

// faultFS wraps the host filesystem and lets tests fail or observe selected calls.
// A nil hook passes the call through.
type faultFS struct {
	fsys.OS
	mu sync.Mutex

	beforeRemove func(name string) error // A non-nil error fails the removal.
	beforeOpen   func(name string) error // A non-nil error fails opening the directory.
	writable     func(name string) bool
	mkdirCalls   []string
	writeCalls   []string
}

var _ fsys.FS = (*faultFS)(nil)

func (f *faultFS) Mkdir(name string, perm fs.FileMode) error {
	f.mu.Lock()
	f.mkdirCalls = append(f.mkdirCalls, name)
	f.mu.Unlock()
	return f.OS.Mkdir(name, perm)
}

func (f *faultFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	f.mu.Lock()
	f.writeCalls = append(f.writeCalls, name)
	f.mu.Unlock()
	return f.OS.WriteFile(name, data, perm)
}

func (f *faultFS) Remove(name string) error {
	if f.beforeRemove != nil {
		if err := f.beforeRemove(name); err != nil {
			return err
		}
	}
	return f.OS.Remove(name)
}

func (f *faultFS) OpenDir(name string) (fsys.DirHandle, error) {
	if f.beforeOpen != nil {
		if err := f.beforeOpen(name); err != nil {
			return nil, err
		}
	}
	return f.OS.OpenDir(name)
}

func (f *faultFS) Writable(name string) bool {
	if f.writable != nil {
		return f.writable(name)
	}
	return f.OS.Writable(name)
}
