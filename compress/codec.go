package compress

import (
	"fmt"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
)

// Compressor compresses one framed basket.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// Memory management:
	//   - Returned slice is owned by the caller, except for the no-op codec
	//   - Input slice is not modified
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a basket compressed by the matching Compressor.
//
// Thread Safety: Decompressor implementations must be safe for concurrent use.
type Decompressor interface {
	// Decompress restores a packed basket.
	//
	// rawLen is the framed size the writer recorded in the directory. It
	// presizes the output and is checked against the decoded length; zero
	// means the size is unknown and skips the check.
	//
	// Error conditions:
	//   - errs.ErrRawLengthMismatch when the decoded size differs from rawLen
	//   - The codec's own error when data is corrupted or was packed by
	//     another algorithm
	Decompress(data []byte, rawLen int) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// CompressionStats summarizes the compression of one branch or file.
type CompressionStats struct {
	// Algorithm identifies the compression algorithm used
	Algorithm format.CompressionType

	// OriginalSize is the size of framed data before compression
	OriginalSize int64

	// CompressedSize is the size of data after compression
	CompressedSize int64
}

// Add accumulates the sizes of one more basket.
func (s *CompressionStats) Add(originalSize, compressedSize int) {
	s.OriginalSize += int64(originalSize)
	s.CompressedSize += int64(compressedSize)
}

// CompressionRatio returns the compression ratio (compressed size / original size).
//
// Returns:
//   - float64: Compression ratio (0.0 if original size is zero)
func (s CompressionStats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space savings as a percentage (0-100%).
func (s CompressionStats) SpaceSavings() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return (1.0 - s.CompressionRatio()) * 100.0
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the built-in Codec for the specified compression type.
//
// Parameters:
//   - compressionType: Type of compression (None, Zstd, S2, or LZ4)
//
// Returns:
//   - Codec: Shared codec instance
//   - error: Unsupported compression type error
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}

func checkRawLength(out []byte, rawLen int) ([]byte, error) {
	if rawLen > 0 && len(out) != rawLen {
		return nil, fmt.Errorf("%w: got %d, want %d", errs.ErrRawLengthMismatch, len(out), rawLen)
	}

	return out, nil
}
