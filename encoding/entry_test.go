package encoding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/artio/errs"
)

// TestEntryEncoder_Write tests length-prefixed framing of entry payloads.
func TestEntryEncoder_Write(t *testing.T) {
	encoder := NewEntryEncoder()
	defer encoder.Reset()

	encoder.Write(nil)
	require.Equal(t, 1, encoder.Len())
	require.Equal(t, 1, encoder.Size()) // single zero length byte

	encoder.Write([]byte("hello"))
	require.Equal(t, 2, encoder.Len())
	require.Equal(t, 7, encoder.Size())

	data := encoder.Bytes()
	require.Equal(t, byte(0), data[0])
	require.Equal(t, byte(5), data[1])
	require.Equal(t, "hello", string(data[2:]))

	encoder.Clear()
	require.Equal(t, 0, encoder.Len())
	require.Equal(t, 0, encoder.Size())
}

// TestEntryDecoder_Split tests splitting a basket back into its entries.
func TestEntryDecoder_Split(t *testing.T) {
	encoder := NewEntryEncoder()
	defer encoder.Reset()

	payloads := [][]byte{
		[]byte("a"),
		{},
		bytes.Repeat([]byte{0xAB}, 300), // two-byte length prefix
		[]byte("tail"),
	}
	for _, p := range payloads {
		encoder.Write(p)
	}

	got, err := NewEntryDecoder(encoder.Bytes()).Split(nil, len(payloads))
	require.NoError(t, err)
	require.Len(t, got, len(payloads))
	for i := range payloads {
		require.Equal(t, len(payloads[i]), len(got[i]))
		require.True(t, bytes.Equal(payloads[i], got[i]))
	}

	t.Run("count mismatch", func(t *testing.T) {
		_, err := NewEntryDecoder(encoder.Bytes()).Split(nil, 3)
		require.ErrorIs(t, err, errs.ErrInvalidEntryFraming)
	})

	t.Run("truncated", func(t *testing.T) {
		data := encoder.Bytes()
		_, err := NewEntryDecoder(data[:len(data)-2]).Split(nil, -1)
		require.ErrorIs(t, err, errs.ErrInvalidEntryFraming)
	})
}

// TestEntryDecoder_AllStopsEarly tests that iteration stops when the caller breaks.
func TestEntryDecoder_AllStopsEarly(t *testing.T) {
	encoder := NewEntryEncoder()
	defer encoder.Reset()
	for range 5 {
		encoder.Write([]byte("x"))
	}

	seen := 0
	for i := range NewEntryDecoder(encoder.Bytes()).All() {
		seen++
		if i == 2 {
			break
		}
	}
	require.Equal(t, 3, seen)
}
