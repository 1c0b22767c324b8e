package section

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
)

// TestNewFileHeader tests the defaults of a new container header.
func TestNewFileHeader(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	header := NewFileHeader(created)

	require.NotNil(t, header)
	require.Equal(t, created.UnixMicro(), header.CreatedAt)
	require.Equal(t, uint32(WriterVersion), header.WriterVersion)
	require.False(t, header.IsFinished())
	require.True(t, header.Flag.IsLittleEndian())
	require.Equal(t, format.CompressionZstd, header.Flag.Compression())
	require.NoError(t, header.Flag.Validate())
}

// TestFileHeader_Parse tests header round trips and rejection of malformed headers.
func TestFileHeader_Parse(t *testing.T) {
	t.Run("Valid header", func(t *testing.T) {
		original := NewFileHeader(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		original.DirectoryOffset = 4096
		original.DirectoryLength = 512
		original.DirectoryChecksum = 0xDEADBEEF

		parsed := &FileHeader{}
		require.NoError(t, parsed.Parse(original.Bytes()))
		require.Equal(t, *original, *parsed)
		require.True(t, parsed.IsFinished())
		require.Equal(t, original.CreatedAtTime(), parsed.CreatedAtTime())
	})

	t.Run("Big endian header", func(t *testing.T) {
		original := NewFileHeader(time.Unix(100, 0))
		original.Flag.WithBigEndian()
		original.DirectoryOffset = 77

		parsed, err := ParseFileHeader(original.Bytes())
		require.NoError(t, err)
		require.False(t, parsed.Flag.IsLittleEndian())
		require.Equal(t, uint64(77), parsed.DirectoryOffset)
	})

	t.Run("Invalid size", func(t *testing.T) {
		header := &FileHeader{}
		err := header.Parse([]byte{1, 2, 3})
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)

		_, err = ParseFileHeader(make([]byte, 8))
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
	})

	t.Run("Invalid magic number", func(t *testing.T) {
		data := NewFileHeader(time.Now()).Bytes()
		data[1] = 0x00
		_, err := ParseFileHeader(data)
		require.ErrorIs(t, err, errs.ErrInvalidMagicNumber)
	})

	t.Run("Invalid directory compression", func(t *testing.T) {
		data := NewFileHeader(time.Now()).Bytes()
		data[2] = 0x9
		_, err := ParseFileHeader(data)
		require.ErrorIs(t, err, errs.ErrInvalidHeaderFlags)
	})
}
