package storage

import (
	"log/slog"

	"github.com/nobletooth/filecache/pkg/shard"
)

// ensureDirStructure creates the shard directories of `path` from the shallowest to the leaf and applies DirPerm.
// Every step is best-effort: another process may be creating the same directories, so failures are logged and the
// loop goes on. The caller's writability check decides whether provisioning worked.
func (c *ShardedFileCache) ensureDirStructure(path shard.Path) {
	if c.layout.Depth == 0 {
		return
	}
	for _, segment := range path.Segments {
		if info, err := c.fs.Stat(segment); err == nil && info.IsDir() {
			continue
		}
		if err := c.fs.Mkdir(segment, c.opts.DirPerm); err != nil {
			slog.Debug("Failed to create shard directory.", "dir", segment, "error", err)
		} else {
			provisionedDirs.Inc()
		}
		// Mkdir honors the umask; chmod enforces the configured mode.
		if err := c.fs.Chmod(segment, c.opts.DirPerm); err != nil {
			slog.Debug("Failed to set shard directory permissions.", "dir", segment, "error", err)
		}
	}
}
