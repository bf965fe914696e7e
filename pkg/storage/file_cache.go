// The file cache stores one file per key under a root directory. The key's checksum picks a chain of nested shard
// directories (see the shard package), which are created lazily on the first write that needs them. Values are
// serialized, optionally compressed, and written without any header: the filesystem is the only source of truth and no
// index is kept in memory, every call derives the path again from the key.
//
// Because files don't record how they were encoded, the serialization method and compression settings must stay the
// same for the lifetime of a cache directory.

package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nobletooth/filecache/pkg/codec"
	"github.com/nobletooth/filecache/pkg/compress"
	"github.com/nobletooth/filecache/pkg/fsys"
	"github.com/nobletooth/filecache/pkg/shard"
)

var (
	ErrKeyNotFound = errors.New("key was not found")
	// ErrUnsafeKey is returned for keys that could escape their shard directory.
	ErrUnsafeKey = shard.ErrUnsafeKey
	// ErrNotWritable is returned by Save when the shard directory can't be created or written to.
	ErrNotWritable = errors.New("cache directory is not writable")
	// ErrCorrupt is returned by Load when a file can't be decompressed or decoded with the configured settings.
	ErrCorrupt     = errors.New("cache file is corrupt or was written with other settings")
	ErrOutsideRoot = errors.New("directory is outside the cache root")
)

const (
	DefaultShardDepth = 1
	DefaultDirPerm    = fs.FileMode(0o700)
	DefaultFilePerm   = fs.FileMode(0o666)
	// tempInfix marks in-flight files of atomic writes; they're never reported as keys.
	tempInfix = ".filecache-tmp-"
)

// Options configures a ShardedFileCache. It is copied at construction and can't be changed afterward.
type Options struct {
	ShardDepth     int         // Nested shard levels; 0 stores every file directly under the root.
	FilenamePrefix string      // Prepended to shard directory and file names.
	DirPerm        fs.FileMode // Applied to every shard directory created; 0 means DefaultDirPerm.
	FilePerm       fs.FileMode // Applied to every file written; 0 means DefaultFilePerm.
	// CompressionLevel between 1 and 9 compresses files with Compression; 0 disables compression.
	CompressionLevel int
	Compression      compress.Algorithm // Defaults to compress.Deflate.
	Serialization    codec.Method       // Defaults to codec.MethodJSON.
	Hash             shard.HashKind     // Defaults to shard.HashXXHash.
	// AtomicWrite writes to a sibling temporary file and renames it into place, so concurrent readers never observe a
	// partially written file. Off by default: files are written in place.
	AtomicWrite bool
	FS          fsys.FS // Defaults to the host filesystem.
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ShardDepth:    DefaultShardDepth,
		DirPerm:       DefaultDirPerm,
		FilePerm:      DefaultFilePerm,
		Compression:   compress.Deflate,
		Serialization: codec.MethodJSON,
		Hash:          shard.HashXXHash,
	}
}

// ShardedFileCache is a key/value cache persisted as one file per key in a sharded directory tree.
// It holds no mutable state; concurrent use is as safe as the underlying filesystem makes it.
type ShardedFileCache struct {
	opts       Options
	layout     shard.Layout
	fs         fsys.FS
	codec      codec.Codec
	compressor compress.Codec // nil when compression is disabled.
}

// NewShardedFileCache is the constructor for ShardedFileCache. The `root` directory is not created; with a shard
// depth of 0 it must exist before the first Save.
func NewShardedFileCache(root string, opts Options) (*ShardedFileCache, error) {
	if opts.DirPerm == 0 {
		opts.DirPerm = DefaultDirPerm
	}
	if opts.FilePerm == 0 {
		opts.FilePerm = DefaultFilePerm
	}
	if opts.Compression == "" {
		opts.Compression = compress.Deflate
	}
	if opts.Serialization == "" {
		opts.Serialization = codec.MethodJSON
	}
	if opts.Hash == "" {
		opts.Hash = shard.HashXXHash
	}
	if opts.FS == nil {
		opts.FS = fsys.OS{}
	}

	layout, err := shard.NewLayout(root, opts.ShardDepth, opts.FilenamePrefix, opts.Hash)
	if err != nil {
		return nil, fmt.Errorf("failed to build shard layout: %w", err)
	}
	valueCodec, err := codec.ByMethod(opts.Serialization)
	if err != nil {
		return nil, err
	}
	var compressor compress.Codec
	if opts.CompressionLevel != 0 {
		if compressor, err = compress.New(opts.Compression, opts.CompressionLevel); err != nil {
			return nil, err
		}
	}

	return &ShardedFileCache{opts: opts, layout: layout, fs: opts.FS, codec: valueCodec, compressor: compressor}, nil
}

// Root returns the cache root directory.
func (c *ShardedFileCache) Root() string { return c.layout.Root }

// Options returns a copy of the configuration.
func (c *ShardedFileCache) Options() Options { return c.opts }

// Path returns the location of the file holding `key`, whether or not it exists.
func (c *ShardedFileCache) Path(key string) (string, error) {
	if err := shard.ValidateKey(key); err != nil {
		return "", err
	}
	return c.layout.File(key), nil
}

// Save serializes `value` and stores it under `key`, replacing any previous value.
func (c *ShardedFileCache) Save(key string, value any) error {
	err := c.save(key, value)
	observe(opSave, err)
	return err
}

func (c *ShardedFileCache) save(key string, value any) error {
	if err := shard.ValidateKey(key); err != nil {
		return err
	}
	path := c.layout.Derive(key)
	// Probing first keeps warm saves at a single access(2); the structure is only provisioned when the probe fails.
	if c.layout.Depth > 0 && !c.fs.Writable(path.Dir) {
		c.ensureDirStructure(path)
		if !c.fs.Writable(path.Dir) {
			return fmt.Errorf("%w: %s", ErrNotWritable, path.Dir)
		}
	}

	payload, err := c.encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode value of %q: %w", key, err)
	}
	file := filepath.Join(path.Dir, c.layout.FileName(key))
	if err := c.write(path.Dir, file, payload); err != nil {
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	// The write honors the process umask; chmod enforces the configured mode.
	if err := c.fs.Chmod(file, c.opts.FilePerm); err != nil {
		slog.Debug("Failed to set cache file permissions.", "file", file, "perm", c.opts.FilePerm, "error", err)
	}
	bytesWritten.Add(float64(len(payload)))
	slog.Debug("Saved cache entry.", "key", key, "file", file, "bytes", len(payload))
	return nil
}

// encode serializes then compresses `value`.
func (c *ShardedFileCache) encode(value any) ([]byte, error) {
	payload, err := c.codec.Marshal(value)
	if err != nil {
		return nil, err
	}
	if c.compressor == nil {
		return payload, nil
	}
	return c.compressor.Compress(payload)
}

// write stores `payload` at `file`, through a temporary sibling when atomic writes are enabled.
func (c *ShardedFileCache) write(dir, file string, payload []byte) error {
	if !c.opts.AtomicWrite {
		return c.fs.WriteFile(file, payload, c.opts.FilePerm)
	}
	tempFile := filepath.Join(dir, "."+filepath.Base(file)+tempInfix+uuid.NewString())
	if err := c.fs.WriteFile(tempFile, payload, c.opts.FilePerm); err != nil {
		_ = c.fs.Remove(tempFile)
		return err
	}
	if err := c.fs.Rename(tempFile, file); err != nil {
		if removeErr := c.fs.Remove(tempFile); removeErr != nil {
			slog.Warn("Failed to remove temporary cache file.", "file", tempFile, "error", removeErr)
		}
		return err
	}
	return nil
}

// Load reads the value stored under `key`. A missing key yields ErrKeyNotFound.
func (c *ShardedFileCache) Load(key string) (any, error) {
	value, err := c.load(key)
	observe(opLoad, err)
	return value, err
}

func (c *ShardedFileCache) load(key string) (any, error) {
	if err := shard.ValidateKey(key); err != nil {
		return nil, err
	}
	file := c.layout.File(key)
	payload, err := c.fs.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	bytesRead.Add(float64(len(payload)))

	if c.compressor != nil {
		if payload, err = c.compressor.Decompress(payload); err != nil {
			return nil, fmt.Errorf("%w: failed to decompress %s: %w", ErrCorrupt, file, err)
		}
	}
	var value any
	if err := c.codec.Unmarshal(payload, &value); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s as %s: %w", ErrCorrupt, file, c.codec.Method(), err)
	}
	return value, nil
}

// Remove deletes the file of `key`. A missing key yields ErrKeyNotFound. Emptied shard directories are kept.
func (c *ShardedFileCache) Remove(key string) error {
	err := c.remove(key)
	observe(opRemove, err)
	return err
}

func (c *ShardedFileCache) remove(key string) error {
	if err := shard.ValidateKey(key); err != nil {
		return err
	}
	file := c.layout.File(key)
	if err := c.fs.Remove(file); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	} else if err != nil {
		return fmt.Errorf("failed to remove %s: %w", file, err)
	}
	slog.Debug("Removed cache entry.", "key", key, "file", file)
	return nil
}

// Has reports whether a file exists for `key`.
func (c *ShardedFileCache) Has(key string) (bool, error) {
	if err := shard.ValidateKey(key); err != nil {
		return false, err
	}
	info, err := c.fs.Stat(c.layout.File(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// isTempFile reports whether `name` is an in-flight atomic write.
func isTempFile(name string) bool {
	return strings.HasPrefix(name, ".") && strings.Contains(name, tempInfix)
}
