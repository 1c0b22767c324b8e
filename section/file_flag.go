package section

import (
	"github.com/arloliu/artio/endian"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
)

// FileFlag is the packed flag field at the start of the container header.
type FileFlag struct {
	// Options is a packed field for various options.
	// Bit 1 is endianness flag, 0 means little-endian, 1 means big-endian.
	// Bits 0, 2-3 are reserved for future use, must be set to 0.
	// Bits 4-15 are the magic number identifying the container format.
	Options uint16

	// DirectoryCompression is the codec used for the trailing directory.
	DirectoryCompression uint8
	// Reserved must be zero.
	Reserved uint8
}

var validDirectoryCompressions = map[uint8]struct{}{
	uint8(format.CompressionNone): {},
	uint8(format.CompressionZstd): {},
	uint8(format.CompressionS2):   {},
	uint8(format.CompressionLZ4):  {},
}

// NewFileFlag creates a FileFlag with default settings.
func NewFileFlag() FileFlag {
	flag := FileFlag{
		Options:              MagicContainerV1Opt,
		DirectoryCompression: uint8(format.CompressionZstd),
	}
	flag.WithLittleEndian()

	return flag
}

// IsLittleEndian returns whether the data is little-endian.
func (f FileFlag) IsLittleEndian() bool {
	return (f.Options & EndiannessMask) == 0
}

// WithLittleEndian sets little-endian byte order.
func (f *FileFlag) WithLittleEndian() {
	f.Options &= ^uint16(EndiannessMask)
}

// WithBigEndian sets big-endian byte order.
func (f *FileFlag) WithBigEndian() {
	f.Options |= EndiannessMask
}

// GetMagicNumber returns the magic number from the Options field.
func (f FileFlag) GetMagicNumber() uint16 {
	return f.Options & MagicNumberMask
}

// Compression returns the directory compression type.
func (f FileFlag) Compression() format.CompressionType {
	return format.CompressionType(f.DirectoryCompression)
}

// Validate checks if the flag contains valid values.
func (f FileFlag) Validate() error {
	if f.GetMagicNumber() != MagicContainerV1Opt {
		return errs.ErrInvalidMagicNumber
	}
	if f.Options&ReservedBitsMask != 0 || f.Reserved != 0 {
		return errs.ErrInvalidHeaderFlags
	}
	if _, ok := validDirectoryCompressions[f.DirectoryCompression]; !ok {
		return errs.ErrInvalidHeaderFlags
	}

	return nil
}

// GetEndianEngine returns the appropriate endian engine based on the flag.
func (f FileFlag) GetEndianEngine() endian.EndianEngine {
	if f.IsLittleEndian() {
		return endian.GetLittleEndianEngine()
	}

	return endian.GetBigEndianEngine()
}
