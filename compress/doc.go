// Package compress provides the basket compression codecs of the columnar store.
//
// Every branch basket is compressed as a whole after its entries are framed.
// The algorithm is chosen per branch at creation time and recorded in the
// directory, so a reader always decompresses with the codec the writer used.
//
// # Supported Algorithms
//
//   - None (format.CompressionNone): baskets are stored as framed
//   - Zstd (format.CompressionZstd): best ratio, default for product branches
//   - S2 (format.CompressionS2): balanced speed and ratio
//   - LZ4 (format.CompressionLZ4): fastest decompression
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	packed, err := codec.Compress(framed)
//
// Codecs are stateless values backed by pooled encoders and are safe for
// concurrent use.
//
// # Zstd Backends
//
// The default build uses the pure Go klauspost/compress/zstd implementation.
// Building with the gozstd tag and cgo enabled switches to valyala/gozstd,
// which wraps the reference C library. Both produce standard zstd frames, so
// files written by one backend are readable by the other.
package compress
