package storage

import (
	"flag"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/nobletooth/filecache/pkg/codec"
	"github.com/nobletooth/filecache/pkg/compress"
	"github.com/nobletooth/filecache/pkg/shard"
)

// permValue is a flag.Value holding a file mode written in octal, e.g. "0700".
type permValue fs.FileMode

var _ flag.Value = (*permValue)(nil)

func (p *permValue) String() string { return fmt.Sprintf("%#o", fs.FileMode(*p).Perm()) }

func (p *permValue) Set(value string) error {
	mode, err := strconv.ParseUint(value, 8 /*base*/, 32 /*bitSize*/)
	if err != nil {
		return fmt.Errorf("permission %q is not an octal number: %w", value, err)
	}
	if mode&^uint64(fs.ModePerm) != 0 {
		return fmt.Errorf("permission %q has bits outside %#o", value, fs.ModePerm)
	}
	*p = permValue(mode)
	return nil
}

var (
	cacheDir         = flag.String("cache_dir", "./cache", "Root directory of the file cache.")
	shardDepth       = flag.Int("shard_depth", DefaultShardDepth, "Number of nested shard directories per key.")
	filenamePrefix   = flag.String("filename_prefix", "", "Prefix of every shard directory and cache file name.")
	compressionLevel = flag.Int("compression_level", 0, "Compression level between 1 and 9; 0 disables compression.")
	compression      = flag.String("compression", string(compress.Deflate), "Compression: deflate/gzip/zstd/lz4")
	serialization    = flag.String("serialization", string(codec.MethodJSON), "Serialization: json/gob/proto")
	shardHash        = flag.String("shard_hash", string(shard.HashXXHash), "Checksum naming shard directories: xxhash/adler32")
	atomicWrite      = flag.Bool("atomic_write", false, "Write through a temporary file and rename it into place.")

	dirPerm  = permValue(DefaultDirPerm)
	filePerm = permValue(DefaultFilePerm)
)

func init() {
	flag.Var(&dirPerm, "dir_perm", "Octal permissions of created shard directories.")
	flag.Var(&filePerm, "file_perm", "Octal permissions of written cache files.")
}

// OptionsFromFlags builds the cache options from the command line flags.
func OptionsFromFlags() Options {
	return Options{
		ShardDepth:       *shardDepth,
		FilenamePrefix:   *filenamePrefix,
		DirPerm:          fs.FileMode(dirPerm),
		FilePerm:         fs.FileMode(filePerm),
		CompressionLevel: *compressionLevel,
		Compression:      compress.Algorithm(*compression),
		Serialization:    codec.Method(*serialization),
		Hash:             shard.HashKind(*shardHash),
		AtomicWrite:      *atomicWrite,
	}
}

// CacheDirFromFlags returns the cache root set by --cache_dir.
func CacheDirFromFlags() string { return *cacheDir }

// NewFromFlags builds a cache rooted at --cache_dir, configured from the command line flags.
func NewFromFlags() (*ShardedFileCache, error) {
	return NewShardedFileCache(*cacheDir, OptionsFromFlags())
}
