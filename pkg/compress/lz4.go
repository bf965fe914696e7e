package compress

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

// lz4Levels maps the 1-9 level onto lz4's compression levels; level 1 is the fast (non-HC) mode.
var lz4Levels = [MaxLevel + 1]lz4.CompressionLevel{
	1: lz4.Fast, 2: lz4.Level2, 3: lz4.Level3, 4: lz4.Level4, 5: lz4.Level5,
	6: lz4.Level6, 7: lz4.Level7, 8: lz4.Level8, 9: lz4.Level9,
}

// lz4Codec uses the lz4 frame format, which records the content size and a checksum.
type lz4Codec struct {
	level int
}

func newLZ4Codec(level int) lz4Codec {
	return lz4Codec{level: level}
}

func (c lz4Codec) Compress(data []byte) ([]byte, error) {
	return streamCompress(data, func(w io.Writer) (io.WriteCloser, error) {
		writer := lz4.NewWriter(w)
		if err := writer.Apply(lz4.CompressionLevelOption(lz4Levels[c.level])); err != nil {
			return nil, err
		}
		return writer, nil
	})
}

func (lz4Codec) Decompress(data []byte) ([]byte, error) {
	return streamDecompress(io.NopCloser(lz4.NewReader(bytes.NewReader(data))))
}

func (lz4Codec) Algorithm() Algorithm { return LZ4 }
func (c lz4Codec) Level() int         { return c.level }
