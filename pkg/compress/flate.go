package compress

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

type deflateCodec struct{ level int }

func (c deflateCodec) Compress(data []byte) ([]byte, error) {
	return streamCompress(data, func(w io.Writer) (io.WriteCloser, error) { return flate.NewWriter(w, c.level) })
}

func (c deflateCodec) Decompress(data []byte) ([]byte, error) {
	return streamDecompress(flate.NewReader(bytes.NewReader(data)))
}

func (deflateCodec) Algorithm() Algorithm { return Deflate }
func (c deflateCodec) Level() int         { return c.level }

// gzipCodec wraps deflate with the gzip header and CRC, for files other tools (zcat) should be able to read.
type gzipCodec struct{ level int }

func (c gzipCodec) Compress(data []byte) ([]byte, error) {
	return streamCompress(data, func(w io.Writer) (io.WriteCloser, error) { return gzip.NewWriterLevel(w, c.level) })
}

func (c gzipCodec) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return streamDecompress(reader)
}

func (gzipCodec) Algorithm() Algorithm { return Gzip }
func (c gzipCodec) Level() int         { return c.level }
