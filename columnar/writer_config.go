package columnar

import (
	"fmt"
	"time"

	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/internal/options"
	"github.com/arloliu/artio/section"
)

// Defaults for writer and branch settings.
const (
	// DefaultBasketSize is the framed size at which a branch basket is written out.
	DefaultBasketSize = 16 * 1024
	// DefaultTreeMaxVirtualSize bounds the pending basket bytes of one tree.
	DefaultTreeMaxVirtualSize = 64 * 1024 * 1024
	// defaultWriteBufferSize is the size of the buffered file writer.
	defaultWriteBufferSize = 1024 * 1024
)

// WriterConfig holds the container-level settings of a Writer.
type WriterConfig struct {
	header             *section.FileHeader
	treeMaxVirtualSize int64
	writeBufferSize    int
}

// NewWriterConfig creates a WriterConfig stamped with the given creation time.
func NewWriterConfig(createdAt time.Time) *WriterConfig {
	return &WriterConfig{
		header:             section.NewFileHeader(createdAt),
		treeMaxVirtualSize: DefaultTreeMaxVirtualSize,
		writeBufferSize:    defaultWriteBufferSize,
	}
}

func (c *WriterConfig) setDirectoryCompression(comp format.CompressionType) error {
	switch comp {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
		c.header.Flag.DirectoryCompression = uint8(comp)
		return nil
	default:
		return fmt.Errorf("invalid directory compression: %v", comp)
	}
}

// WriterOption configures a Writer.
type WriterOption = options.Option[*WriterConfig]

// WithLittleEndian writes fixed-width fields little-endian. It is the default.
func WithLittleEndian() WriterOption {
	return options.NoError(func(c *WriterConfig) {
		c.header.Flag.WithLittleEndian()
	})
}

// WithBigEndian writes fixed-width fields big-endian.
func WithBigEndian() WriterOption {
	return options.NoError(func(c *WriterConfig) {
		c.header.Flag.WithBigEndian()
	})
}

// WithDirectoryCompression sets the codec used for the trailing directory.
func WithDirectoryCompression(comp format.CompressionType) WriterOption {
	return options.New(func(c *WriterConfig) error {
		return c.setDirectoryCompression(comp)
	})
}

// WithTreeMaxVirtualSize sets the pending-basket budget of every tree.
// Zero or a negative value keeps the default.
func WithTreeMaxVirtualSize(n int64) WriterOption {
	return options.NoError(func(c *WriterConfig) {
		if n > 0 {
			c.treeMaxVirtualSize = n
		}
	})
}
