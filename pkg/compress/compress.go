// Cache files are optionally compressed after serialization. The level (1-9, 0 disables compression) and the
// algorithm are configuration, not stored in the file: the reader must be configured like the writer.
// The default algorithm is raw deflate (RFC 1951, no zlib/gzip header), the stream produced by gzdeflate.

package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
)

const (
	MinLevel = 1
	MaxLevel = 9
)

var (
	ErrUnknownAlgorithm = errors.New("unknown compression algorithm")
	ErrInvalidLevel     = errors.New("invalid compression level")
)

// Algorithm is the stable name of a compression algorithm, as used in flags.
type Algorithm string

const (
	Deflate Algorithm = "deflate"
	Gzip    Algorithm = "gzip"
	Zstd    Algorithm = "zstd"
	LZ4     Algorithm = "lz4"
)

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{Deflate, Gzip, Zstd, LZ4}

// Codec compresses and decompresses whole payloads at a fixed level. Implementations are safe for concurrent use.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Algorithm() Algorithm
	Level() int
}

// New returns the codec for `algorithm` at `level`, which must be within [MinLevel, MaxLevel].
func New(algorithm Algorithm, level int) (Codec, error) {
	if level < MinLevel || level > MaxLevel {
		return nil, fmt.Errorf("%w: %d is outside [%d, %d]", ErrInvalidLevel, level, MinLevel, MaxLevel)
	}
	switch algorithm {
	case Deflate:
		return deflateCodec{level: level}, nil
	case Gzip:
		return gzipCodec{level: level}, nil
	case Zstd:
		return newZstdCodec(level), nil
	case LZ4:
		return newLZ4Codec(level), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
}

const defaultBufferSize = 4096

var bufferPool = sync.Pool{New: func() any { return bytes.NewBuffer(make([]byte, 0, defaultBufferSize)) }}

// streamCompress runs `data` through the writer built by `newWriter` and returns a copy of the output.
func streamCompress(data []byte, newWriter func(io.Writer) (io.WriteCloser, error)) ([]byte, error) {
	buffer := bufferPool.Get().(*bytes.Buffer)
	defer func() { // Give back the buffer to the pool.
		buffer.Reset()
		bufferPool.Put(buffer)
	}()

	writer, err := newWriter(buffer)
	if err != nil {
		return nil, err
	}
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return bytes.Clone(buffer.Bytes()), nil
}

// streamDecompress reads the whole stream produced by `reader` and closes it.
func streamDecompress(reader io.ReadCloser) ([]byte, error) {
	decompressed, readErr := io.ReadAll(reader)
	if err := errors.Join(readErr, reader.Close()); err != nil {
		return nil, err
	}
	return decompressed, nil
}
