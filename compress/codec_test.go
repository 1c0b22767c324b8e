package compress

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
)

// getAllCodecs returns all available codec implementations for testing
func getAllCodecs() map[string]Codec {
	return map[string]Codec{
		"NoOp": NewNoOpCompressor(),
		"LZ4":  NewLZ4Compressor(),
		"S2":   NewS2Compressor(),
		"Zstd": NewZstdCompressor(),
	}
}

// basketLike builds data shaped like a framed basket of small product entries.
func basketLike(entries int) []byte {
	var buf bytes.Buffer
	for i := range entries {
		payload := []byte{0xA2, 0x01, byte(i), 0x02, byte(i * 7)}
		buf.WriteByte(byte(len(payload)))
		buf.Write(payload)
	}

	return buf.Bytes()
}

// TestGetCodec tests lookup of the built-in codecs by compression type.
func TestGetCodec(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4,
	} {
		codec, err := GetCodec(ct)
		require.NoError(t, err, ct.String())
		require.NotNil(t, codec)
	}

	_, err := GetCodec(format.CompressionType(0x7F))
	require.Error(t, err)
}

// TestCompressionStats tests ratio and savings accumulation.
func TestCompressionStats(t *testing.T) {
	var stats CompressionStats
	require.Zero(t, stats.CompressionRatio())
	require.Zero(t, stats.SpaceSavings())

	stats.Add(1000, 250)
	stats.Add(1000, 250)
	require.InDelta(t, 0.25, stats.CompressionRatio(), 1e-9)
	require.InDelta(t, 75.0, stats.SpaceSavings(), 1e-9)
}

// TestAllCodecs_EmptyData tests that empty baskets stay nil through every codec.
func TestAllCodecs_EmptyData(t *testing.T) {
	for name, codec := range getAllCodecs() {
		t.Run(name, func(t *testing.T) {
			compressed, err := codec.Compress(nil)
			require.NoError(t, err)
			require.Nil(t, compressed)

			decompressed, err := codec.Decompress(nil, 0)
			require.NoError(t, err)
			require.Nil(t, decompressed)
		})
	}
}

// TestAllCodecs_RoundTrip tests compress then decompress with the recorded raw length.
func TestAllCodecs_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{name: "single_byte", data: []byte{0x42}},
		{name: "small_basket", data: basketLike(10)},
		{name: "large_basket", data: basketLike(20000)},
		{name: "repeated_pattern", data: bytes.Repeat([]byte("EventAuxiliary"), 500)},
		{name: "zeros", data: make([]byte, 256*1024)},
	}

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					compressed, err := codec.Compress(tc.data)
					require.NoError(t, err)
					require.NotNil(t, compressed)

					decompressed, err := codec.Decompress(compressed, len(tc.data))
					require.NoError(t, err)
					require.True(t, bytes.Equal(tc.data, decompressed))
				})
			}
		})
	}
}

// TestAllCodecs_InvalidData tests that garbage input is rejected.
func TestAllCodecs_InvalidData(t *testing.T) {
	invalid := [][]byte{
		{0xFF, 0xFF, 0xFF, 0xFF},
		[]byte("this is not compressed data"),
	}

	for codecName, codec := range getAllCodecs() {
		if codecName == "NoOp" {
			continue
		}
		t.Run(codecName, func(t *testing.T) {
			for _, data := range invalid {
				_, err := codec.Decompress(data, 0)
				require.Error(t, err)
			}
		})
	}
}

// TestAllCodecs_ConcurrentUsage tests the shared codecs from many goroutines.
func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	data := basketLike(500)

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			var wg sync.WaitGroup
			errCh := make(chan error, 16)
			for range 16 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range 20 {
						compressed, err := codec.Compress(data)
						if err != nil {
							errCh <- err
							return
						}
						out, err := codec.Decompress(compressed, len(data))
						if err != nil {
							errCh <- err
							return
						}
						if !bytes.Equal(data, out) {
							errCh <- bytes.ErrTooLarge
							return
						}
					}
				}()
			}
			wg.Wait()
			close(errCh)
			for err := range errCh {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllCodecs_UnknownRawLength tests decompression without a recorded size.
func TestAllCodecs_UnknownRawLength(t *testing.T) {
	data := basketLike(3000)
	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			out, err := codec.Decompress(compressed, 0)
			require.NoError(t, err)
			require.Equal(t, data, out)
		})
	}
}

// TestAllCodecs_RawLengthMismatch tests that a wrong directory size is reported.
func TestAllCodecs_RawLengthMismatch(t *testing.T) {
	data := basketLike(100)
	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			_, err = codec.Decompress(compressed, len(data)+1)
			require.ErrorIs(t, err, errs.ErrRawLengthMismatch)
		})
	}
}
