package encoding

import (
	"encoding/binary"
	"iter"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/internal/pool"
)

// EntryEncoder frames variable-length entry payloads into one basket buffer.
//
// Each entry is encoded as:
//   - uvarint: payload length
//   - N bytes: payload
//
// Entries are opaque to the encoder; the basket holding them is compressed
// as a whole by the caller.
type EntryEncoder struct {
	buf   *pool.ByteBuffer
	count int
}

// NewEntryEncoder creates a new entry encoder backed by a pooled buffer.
func NewEntryEncoder() *EntryEncoder {
	return &EntryEncoder{buf: pool.GetBasketBuffer()}
}

// Write appends one entry payload.
//
// Parameters:
//   - payload: Entry bytes (may be empty)
func (e *EntryEncoder) Write(payload []byte) {
	e.buf.Grow(binary.MaxVarintLen64 + len(payload))
	e.buf.B = binary.AppendUvarint(e.buf.B, uint64(len(payload)))
	e.buf.MustWrite(payload)
	e.count++
}

// Bytes returns the framed entries.
//
// The returned slice shares the underlying buffer with the encoder.
// Do not modify the returned slice.
func (e *EntryEncoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Len returns the number of entries encoded since the last Clear.
func (e *EntryEncoder) Len() int {
	return e.count
}

// Size returns the total size of framed data in bytes.
func (e *EntryEncoder) Size() int {
	return e.buf.Len()
}

// Clear drops the framed entries but keeps the buffer for reuse.
func (e *EntryEncoder) Clear() {
	e.buf.Reset()
	e.count = 0
}

// Reset clears the encoder state and returns the buffer to the pool.
//
// After calling Reset, the encoder should not be used again.
func (e *EntryEncoder) Reset() {
	if e.buf != nil {
		pool.PutBasketBuffer(e.buf)
		e.buf = nil
	}
	e.count = 0
}

// EntryDecoder walks the entries of a decompressed basket.
type EntryDecoder struct {
	data []byte
}

// NewEntryDecoder creates a decoder over framed basket data.
func NewEntryDecoder(data []byte) EntryDecoder {
	return EntryDecoder{data: data}
}

// All yields each entry payload with its index inside the basket.
// Iteration stops at the first framing error, which Split reports.
func (d EntryDecoder) All() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		rest := d.data
		for i := 0; len(rest) > 0; i++ {
			n, sz := binary.Uvarint(rest)
			if sz <= 0 || uint64(len(rest)-sz) < n {
				return
			}
			if !yield(i, rest[sz:sz+int(n)]) { //nolint:gosec
				return
			}
			rest = rest[sz+int(n):] //nolint:gosec
		}
	}
}

// Split appends every entry payload to dst, sharing memory with the input.
//
// Parameters:
//   - dst: Slice to append to (may be nil)
//   - expected: Number of entries the basket must hold, or -1 to skip the check
//
// Returns:
//   - [][]byte: dst extended with the entry payloads in order
//   - error: ErrInvalidEntryFraming if the data is truncated or malformed
func (d EntryDecoder) Split(dst [][]byte, expected int) ([][]byte, error) {
	out := dst
	start := len(dst)
	consumed := 0
	for _, payload := range d.All() {
		out = append(out, payload)
		consumed += uvarintLen(uint64(len(payload))) + len(payload)
	}
	if consumed != len(d.data) || (expected >= 0 && len(out)-start != expected) {
		return nil, errs.ErrInvalidEntryFraming
	}

	return out, nil
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}

	return n
}
