package storage

import (
	"cmp"
	"io/fs"
	"iter"
	"log/slog"
	"path/filepath"
	"slices"
)

// Keys yields the key of every cache file under the root, in lexical order within each directory. Files without the
// filename prefix and in-flight temporary files are skipped. The tree is read lazily, so entries added or removed
// during the iteration may or may not be reported.
func (c *ShardedFileCache) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		c.walkKeys(c.layout.Root, yield)
	}
}

// walkKeys reports the keys under `dir` depth first. It returns false once `yield` asked to stop.
func (c *ShardedFileCache) walkKeys(dir string, yield func(string) bool) bool {
	entries, err := c.listDir(dir)
	if err != nil {
		slog.Debug("Skipping unreadable directory.", "dir", dir, "error", err)
		return true
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			if !c.walkKeys(filepath.Join(dir, name), yield) {
				return false
			}
			continue
		}
		if !entry.Type().IsRegular() || isTempFile(name) {
			continue
		}
		if key, isCacheFile := c.layout.KeyFromFileName(name); isCacheFile && !yield(key) {
			return false
		}
	}
	return true
}

// listDir reads all entries of `dir`, sorted by name.
func (c *ShardedFileCache) listDir(dir string) ([]fs.DirEntry, error) {
	handle, err := c.fs.OpenDir(dir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = handle.Close() }()
	entries, err := handle.ReadDir(-1)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int { return cmp.Compare(a.Name(), b.Name()) })
	return entries, nil
}
