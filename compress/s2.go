package compress

import (
	"fmt"

	"github.com/klauspost/compress/s2"

	"github.com/arloliu/artio/errs"
)

// S2Compressor packs baskets as S2 blocks using the "better" encoder, which
// trades a little speed for a noticeably smaller basket on repetitive
// product data.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor returns the S2 basket codec.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.EncodeBetter(make([]byte, s2.MaxEncodedLen(len(data))), data), nil
}

// Decompress decodes an S2 block. The block header carries its own decoded
// length, which must agree with rawLen when one is given.
func (c S2Compressor) Decompress(data []byte, rawLen int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("s2 basket header: %w", err)
	}
	if rawLen > 0 && n != rawLen {
		return nil, fmt.Errorf("%w: header says %d, want %d", errs.ErrRawLengthMismatch, n, rawLen)
	}

	out, err := s2.Decode(make([]byte, n), data)
	if err != nil {
		return nil, fmt.Errorf("s2 basket: %w", err)
	}

	return out, nil
}
