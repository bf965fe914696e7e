package compress

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstd encoders/decoders are expensive to build and safe to reuse; keep them pooled per level.
var (
	zstdEncoderPools [MaxLevel + 1]sync.Pool
	zstdDecoderPool  sync.Pool
)

type zstdCodec struct {
	level        int
	encoderLevel zstd.EncoderLevel
}

// newZstdCodec maps the 1-9 level onto zstd's native levels.
func newZstdCodec(level int) zstdCodec {
	return zstdCodec{level: level, encoderLevel: zstd.EncoderLevelFromZstd(level)}
}

func (c zstdCodec) getEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPools[c.level].Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(c.encoderLevel))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

func (c zstdCodec) Compress(data []byte) ([]byte, error) {
	encoder, err := c.getEncoder()
	if err != nil {
		return nil, err
	}
	defer zstdEncoderPools[c.level].Put(encoder)
	return encoder.EncodeAll(data, nil), nil
}

func (zstdCodec) Decompress(data []byte) ([]byte, error) {
	decoder, err := getZstdDecoder()
	if err != nil {
		return nil, err
	}
	defer zstdDecoderPool.Put(decoder)
	return decoder.DecodeAll(data, nil)
}

func (zstdCodec) Algorithm() Algorithm { return Zstd }
func (c zstdCodec) Level() int         { return c.level }
