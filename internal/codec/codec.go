// Package codec compresses document bodies for the storage engines.
//
// Zstd is the default. Snappy is offered for stores that favour encode
// speed over ratio. The codec is chosen when a store is created and
// recorded by the engine, so every compressed body in one store uses the
// same codec.
package codec

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
)

// Codec identifies a compression algorithm.
type Codec int

const (
	Zstd   Codec = 1 // default
	Snappy Codec = 2
)

var (
	ErrUnknownCodec = errors.New("unknown compression codec")
	ErrDecompress   = errors.New("decompression failed")
)

// Shared encoder/decoder, both safe for concurrent use. Construction is
// expensive so they are allocated once. SpeedFastest because compression
// runs on the save path.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// Valid reports whether c names a supported codec.
func (c Codec) Valid() bool {
	return c == Zstd || c == Snappy
}

func (c Codec) String() string {
	switch c {
	case Zstd:
		return "zstd"
	case Snappy:
		return "snappy"
	default:
		return fmt.Sprintf("codec(%d)", int(c))
	}
}

// Compress encodes data with c. Empty input encodes to empty output.
func Compress(c Codec, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	switch c {
	case Zstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	case Snappy:
		return snappy.Encode(nil, data), nil
	default:
		return nil, ErrUnknownCodec
	}
}

// Decompress reverses Compress.
func Decompress(c Codec, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}
	switch c {
	case Zstd:
		out, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrDecompress, err)
		}
		return out, nil
	case Snappy:
		out, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("%w: snappy: %w", ErrDecompress, err)
		}
		return out, nil
	default:
		return nil, ErrUnknownCodec
	}
}
