package section

import (
	"time"

	"github.com/arloliu/artio/errs"
)

// FileHeader is the fixed-size header at the start of a columnar container.
//
// Layout (32 bytes):
//   - 0-1: options (magic number and endianness)
//   - 2: directory compression
//   - 3: reserved
//   - 4-7: writer version
//   - 8-15: creation time, unix microseconds
//   - 16-23: directory offset
//   - 24-27: directory length
//   - 28-31: directory checksum
type FileHeader struct {
	Flag FileFlag // byte offset 0-3
	// WriterVersion is the version of the writer that produced the container.
	WriterVersion uint32 // byte offset 4-7
	// CreatedAt is the creation time in unix microseconds.
	CreatedAt int64 // byte offset 8-15
	// DirectoryOffset is the byte offset of the compressed directory.
	// It is zero until the writer is closed.
	DirectoryOffset uint64 // byte offset 16-23
	// DirectoryLength is the compressed directory size in bytes.
	DirectoryLength uint32 // byte offset 24-27
	// DirectoryChecksum is the folded xxHash64 of the compressed directory.
	DirectoryChecksum uint32 // byte offset 28-31
}

// NewFileHeader creates a header for a container created at the given time.
func NewFileHeader(createdAt time.Time) *FileHeader {
	return &FileHeader{
		Flag:          NewFileFlag(),
		WriterVersion: WriterVersion,
		CreatedAt:     createdAt.UnixMicro(),
	}
}

// Parse parses the header from a byte slice.
//
// Parameters:
//   - data: Byte slice containing header (must be exactly 32 bytes)
//
// Returns:
//   - error: ErrInvalidHeaderSize if data is not 32 bytes, or flag validation errors
func (h *FileHeader) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	// Options are always stored little-endian so the endianness bit can be read first.
	h.Flag.Options = uint16(data[0]) | (uint16(data[1]) << 8)
	h.Flag.DirectoryCompression = data[2]
	h.Flag.Reserved = data[3]

	engine := h.Flag.GetEndianEngine()

	h.WriterVersion = engine.Uint32(data[4:8])
	h.CreatedAt = int64(engine.Uint64(data[8:16])) //nolint:gosec
	h.DirectoryOffset = engine.Uint64(data[16:24])
	h.DirectoryLength = engine.Uint32(data[24:28])
	h.DirectoryChecksum = engine.Uint32(data[28:32])

	return h.Flag.Validate()
}

// Bytes serializes the header into a byte slice.
func (h *FileHeader) Bytes() []byte {
	b := make([]byte, HeaderSize)

	engine := h.Flag.GetEndianEngine()

	b[0] = byte(h.Flag.Options)
	b[1] = byte(h.Flag.Options >> 8)
	b[2] = h.Flag.DirectoryCompression
	b[3] = h.Flag.Reserved
	engine.PutUint32(b[4:8], h.WriterVersion)
	engine.PutUint64(b[8:16], uint64(h.CreatedAt)) //nolint:gosec
	engine.PutUint64(b[16:24], h.DirectoryOffset)
	engine.PutUint32(b[24:28], h.DirectoryLength)
	engine.PutUint32(b[28:32], h.DirectoryChecksum)

	return b
}

// CreatedAtTime returns the creation time as a time.Time.
func (h *FileHeader) CreatedAtTime() time.Time {
	return time.UnixMicro(h.CreatedAt)
}

// IsFinished reports whether the writer recorded a directory.
func (h *FileHeader) IsFinished() bool {
	return h.DirectoryOffset != 0
}

// ParseFileHeader parses a FileHeader from a byte slice.
//
// Parameters:
//   - data: Byte slice containing header (must be at least 32 bytes)
//
// Returns:
//   - FileHeader: Parsed header struct
//   - error: ErrInvalidHeaderSize or flag validation errors
func ParseFileHeader(data []byte) (FileHeader, error) {
	if len(data) < HeaderSize {
		return FileHeader{}, errs.ErrInvalidHeaderSize
	}

	h := FileHeader{}
	if err := h.Parse(data[:HeaderSize]); err != nil {
		return FileHeader{}, err
	}

	return h, nil
}
