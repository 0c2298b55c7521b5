package cgraph

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/tkw1536/pkglib/lazy"
)

// Compression is the algorithm used to compress graph payloads.
type Compression uint8

const (
	// CompressionNone stores payloads as-is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses lz4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses zstd (better ratio).
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

var errUnknownCompression = errors.New("unknown compression")

// ParseCompression parses the name of a compression, as returned by [Compression.String].
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", errUnknownCompression, name)
	}
}

// zstd encoders and decoders are safe for concurrent use with EncodeAll and DecodeAll
var (
	zstdEncoder lazy.Lazy[*zstd.Encoder]
	zstdDecoder lazy.Lazy[*zstd.Decoder]
)

func getZstdEncoder() *zstd.Encoder {
	return zstdEncoder.Get(func() *zstd.Encoder {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic("cgraph: zstd.NewWriter: " + err.Error())
		}
		return enc
	})
}

func getZstdDecoder() *zstd.Decoder {
	return zstdDecoder.Get(func() *zstd.Decoder {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			panic("cgraph: zstd.NewReader: " + err.Error())
		}
		return dec
	})
}

// compress compresses data.
// It returns the compression that was actually used, which is [CompressionNone] if data was incompressible.
func compress(c Compression, data []byte) (Compression, []byte, error) {
	if len(data) == 0 {
		return CompressionNone, data, nil
	}

	switch c {
	case CompressionNone:
		return CompressionNone, data, nil
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return 0, nil, fmt.Errorf("lz4: %w", err)
		}
		if n == 0 || n >= len(data) {
			return CompressionNone, data, nil
		}
		return CompressionLZ4, dst[:n], nil
	case CompressionZstd:
		return CompressionZstd, getZstdEncoder().EncodeAll(data, nil), nil
	default:
		return 0, nil, fmt.Errorf("%w: %s", errUnknownCompression, c)
	}
}

// maxPreallocate is the largest buffer allocated upfront based on an untrusted size
const maxPreallocate = 64 << 20

// decompress reverses compress, size is the length of the uncompressed data.
func decompress(c Compression, data []byte, size int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(data) != size {
			return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrCorrupt, size, len(data))
		}
		return data, nil
	case CompressionLZ4:
		// lz4 never compresses better than 255:1
		if size > 255*len(data)+16 {
			return nil, fmt.Errorf("%w: lz4: implausible size %d", ErrCorrupt, size)
		}
		dst := make([]byte, size)
		n, err := lz4.UncompressBlock(data, dst)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorrupt, err)
		}
		if n != size {
			return nil, fmt.Errorf("%w: lz4: expected %d bytes, got %d", ErrCorrupt, size, n)
		}
		return dst, nil
	case CompressionZstd:
		dst, err := getZstdDecoder().DecodeAll(data, make([]byte, 0, min(size, maxPreallocate)))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
		}
		if len(dst) != size {
			return nil, fmt.Errorf("%w: zstd: expected %d bytes, got %d", ErrCorrupt, size, len(dst))
		}
		return dst, nil
	default:
		return nil, fmt.Errorf("%w: %w: %s", ErrCorrupt, errUnknownCompression, c)
	}
}
