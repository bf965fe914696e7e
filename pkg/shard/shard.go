// This module maps a cache key to the directory holding its file. The key's checksum is rendered as a fixed-width hex
// string and each directory level is named after a longer prefix of it, e.g. depth 3 and checksum "3f2a9c10" gives
// {root}/3/3f/3f2/{key}. Shallow levels fan out coarsely and deeper levels subdivide their parent, which keeps the
// number of entries per directory bounded as the cache grows.
//
// The path of a key is a pure function of the key and the layout; nothing is remembered between calls.

package shard

import (
	"errors"
	"fmt"
	"hash/adler32"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

var (
	ErrUnsafeKey     = errors.New("unsafe cache key")
	ErrInvalidLayout = errors.New("invalid shard layout")
)

// HashKind selects the checksum used to name shard directories.
type HashKind string

const (
	// HashXXHash renders xxhash64 as 16 hex characters. It is the default.
	HashXXHash HashKind = "xxhash"
	// HashAdler32 renders adler32 as 8 hex characters. Trees written by older adler32-sharded caches use these
	// directory names, so such a tree can be read in place.
	HashAdler32 HashKind = "adler32"
)

// HashWidth returns the number of hex characters produced by the given hash, i.e. the maximum shard depth.
func HashWidth(kind HashKind) (int, error) {
	switch kind {
	case HashXXHash:
		return 16, nil
	case HashAdler32:
		return 8, nil
	default:
		return 0, fmt.Errorf("%w: unknown hash %q", ErrInvalidLayout, kind)
	}
}

// Checksum returns the fixed-width, lowercase hex checksum of `key`.
func Checksum(kind HashKind, key string) string {
	switch kind {
	case HashAdler32:
		return fmt.Sprintf("%08x", adler32.Checksum([]byte(key)))
	default:
		return fmt.Sprintf("%016x", xxhash.Sum64String(key))
	}
}

// ValidateKey makes sure `key` is a single path component that can't escape its shard directory.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: empty key", ErrUnsafeKey)
	case key == "." || key == "..":
		return fmt.Errorf("%w: %q", ErrUnsafeKey, key)
	case strings.ContainsAny(key, `/\`+"\x00"):
		return fmt.Errorf("%w: %s contains a path separator or NUL", ErrUnsafeKey, strconv.Quote(key))
	}
	return nil
}

// Layout describes how keys are spread under a root directory.
type Layout struct {
	Root   string   // Cache root; never created nor removed by the layout.
	Depth  int      // Number of nested shard levels; 0 puts every file directly under Root.
	Prefix string   // Prepended to every shard directory and file name.
	Hash   HashKind // Checksum naming the shard levels.
}

// Path is the derived location of a key.
type Path struct {
	Dir string // The leaf shard directory (Root when Depth is 0).
	// Segments lists every shard directory from the shallowest to the leaf, so they can be created in order.
	Segments []string
}

// NewLayout validates the layout. A depth wider than the checksum is a configuration error.
func NewLayout(root string, depth int, prefix string, kind HashKind) (Layout, error) {
	if root == "" {
		return Layout{}, fmt.Errorf("%w: empty root", ErrInvalidLayout)
	}
	if kind == "" {
		kind = HashXXHash
	}
	width, err := HashWidth(kind)
	if err != nil {
		return Layout{}, err
	}
	if depth < 0 || depth > width {
		return Layout{}, fmt.Errorf("%w: depth %d is outside [0, %d] for %s", ErrInvalidLayout, depth, width, kind)
	}
	if strings.ContainsAny(prefix, `/\`+"\x00") {
		return Layout{}, fmt.Errorf("%w: prefix %q contains a path separator", ErrInvalidLayout, prefix)
	}
	return Layout{Root: filepath.Clean(root), Depth: depth, Prefix: prefix, Hash: kind}, nil
}

// Derive computes the shard directory of `key`. The key is assumed to be validated.
func (l Layout) Derive(key string) Path {
	if l.Depth == 0 {
		return Path{Dir: l.Root}
	}
	checksum := Checksum(l.Hash, key)
	segments := make([]string, l.Depth)
	dir := l.Root
	for level := 1; level <= l.Depth; level++ {
		dir = filepath.Join(dir, l.Prefix+checksum[:level])
		segments[level-1] = dir
	}
	return Path{Dir: dir, Segments: segments}
}

// FileName is the on-disk name of the file holding `key`.
func (l Layout) FileName(key string) string {
	return l.Prefix + key
}

// File returns the full path of the file holding `key`.
func (l Layout) File(key string) string {
	return filepath.Join(l.Derive(key).Dir, l.FileName(key))
}

// KeyFromFileName reverses FileName. It returns false for names that don't carry the layout's prefix.
func (l Layout) KeyFromFileName(name string) (string, bool) {
	key, hasPrefix := strings.CutPrefix(name, l.Prefix)
	if !hasPrefix || ValidateKey(key) != nil {
		return "", false
	}
	return key, true
}
