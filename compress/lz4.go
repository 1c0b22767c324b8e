package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// maxLZ4Basket bounds the output buffer when a basket's raw size is unknown.
const maxLZ4Basket = 128 << 20

// LZ4Compressor packs baskets as raw LZ4 blocks. Raw blocks do not record
// their decoded size, so decompression relies on the size kept in the
// directory.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor returns the LZ4 basket codec.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 basket: %w", err)
	}

	return dst[:n], nil
}

// Decompress decodes an LZ4 block into a buffer of exactly rawLen bytes.
// With rawLen zero the buffer starts at four times the packed size and
// doubles on a short-buffer error, up to 128 MiB.
func (c LZ4Compressor) Decompress(data []byte, rawLen int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	if rawLen > 0 {
		buf := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(data, buf)
		if err != nil {
			return nil, fmt.Errorf("lz4 basket: %w", err)
		}

		return checkRawLength(buf[:n], rawLen)
	}

	for size := len(data) * 4; size <= maxLZ4Basket; size *= 2 {
		buf := make([]byte, size)
		n, err := lz4.UncompressBlock(data, buf)
		if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lz4 basket: %w", err)
		}

		return buf[:n], nil
	}

	return nil, fmt.Errorf("lz4 basket larger than %d bytes: %w", maxLZ4Basket, lz4.ErrInvalidSourceShortBuffer)
}
