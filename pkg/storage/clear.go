package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/nobletooth/filecache/pkg/utils"
)

// clearBatchSize is the number of directory entries listed per read.
const clearBatchSize = 256

// ClearReport summarizes a clear. Entries that vanished while clearing are in none of the counts.
type ClearReport struct {
	RemovedFiles int
	RemovedDirs  int
	Skipped      int // Entries that couldn't be removed; clear went on without them.
}

// Clear removes every file and directory under the cache root. The root itself is kept. Clear is best-effort: entries
// that can't be removed are skipped, and an unreadable root is treated as already empty.
func (c *ShardedFileCache) Clear() ClearReport {
	report := ClearReport{}
	c.clearDir(c.layout.Root, &report)
	c.recordClear(c.layout.Root, report)
	return report
}

// ClearDir clears `dir`, which must be the cache root or one of its descendants. Unlike the root, a descendant is
// removed too once emptied.
func (c *ShardedFileCache) ClearDir(dir string) (ClearReport, error) {
	dir = filepath.Clean(dir)
	rel, err := filepath.Rel(c.layout.Root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return ClearReport{}, fmt.Errorf("%w: %s", ErrOutsideRoot, dir)
	}
	report := ClearReport{}
	c.clearDir(dir, &report)
	c.recordClear(dir, report)
	return report, nil
}

func (c *ShardedFileCache) recordClear(dir string, report ClearReport) {
	clearedEntries.WithLabelValues("file").Add(float64(report.RemovedFiles))
	clearedEntries.WithLabelValues("dir").Add(float64(report.RemovedDirs))
	clearSkipped.Add(float64(report.Skipped))
	slog.Info("Cleared cache directory.", "dir", dir, "removedFiles", report.RemovedFiles,
		"removedDirs", report.RemovedDirs, "skipped", report.Skipped)
}

// clearDir empties `dir` depth first and then removes it, unless it is the cache root.
func (c *ShardedFileCache) clearDir(dir string, report *ClearReport) {
	if !c.sweep(dir, report) {
		return
	}
	if dir == c.layout.Root {
		return
	}
	// The directory handle is closed by now; removing an open directory fails on some platforms.
	if err := c.fs.Remove(dir); err == nil {
		report.RemovedDirs++
	} else if !errors.Is(err, fs.ErrNotExist) {
		report.Skipped++
		slog.Debug("Failed to remove directory after clearing it.", "dir", dir, "error", err)
	}
}

// sweep removes the entries of `dir`. It returns false when `dir` couldn't be opened.
func (c *ShardedFileCache) sweep(dir string, report *ClearReport) bool {
	handle, err := c.fs.OpenDir(dir)
	if err != nil {
		slog.Debug("Can't open directory, treating it as empty.", "dir", dir, "error", err)
		return false
	}
	defer func() {
		if err := handle.Close(); err != nil {
			slog.Debug("Failed to close directory.", "dir", dir, "error", err)
		}
	}()

	for {
		entries, err := handle.ReadDir(clearBatchSize)
		for _, entry := range entries {
			c.clearEntry(dir, entry, report)
		}
		if errors.Is(err, io.EOF) || (err == nil && len(entries) == 0) {
			return true
		}
		if err != nil {
			report.Skipped++
			slog.Warn("Failed to list directory, leaving the rest of it.", "dir", dir, "error", err)
			return true
		}
	}
}

// clearEntry removes a single entry of `dir`. Directories are removed directly when already empty, which is the
// common case, and only recursed into when that fails.
func (c *ShardedFileCache) clearEntry(dir string, entry fs.DirEntry, report *ClearReport) {
	name := entry.Name()
	if name == "." || name == ".." {
		utils.RaiseInvariant("storage", "dot_dir_entry", "Directory listing returned a self/parent entry.",
			"dir", dir, "name", name)
		return
	}
	path := filepath.Join(dir, name)
	if entry.IsDir() {
		if err := c.fs.Remove(path); err == nil {
			report.RemovedDirs++
			return
		}
		c.clearDir(path, report)
		return
	}

	// Symlinks are removed, never followed.
	if err := c.fs.Remove(path); err == nil {
		report.RemovedFiles++
	} else if !errors.Is(err, fs.ErrNotExist) {
		report.Skipped++
		slog.Debug("Failed to remove cache file.", "file", path, "error", err)
	}
}
