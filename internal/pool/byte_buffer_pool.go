// Package pool recycles the buffers used while framing and splitting
// baskets, so writing a large tree does not allocate one buffer per basket.
package pool

import "sync"

// Basket buffers start at BasketBufferDefaultSize and are dropped instead of
// pooled once they grow past BasketBufferMaxThreshold, which keeps a single
// oversized product from pinning memory for the rest of the job.
const (
	BasketBufferDefaultSize  = 32 << 10
	BasketBufferMaxThreshold = 512 << 10
)

// ByteBuffer holds the framed entries of one basket.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer returns an empty buffer with the given capacity.
func NewByteBuffer(capacity int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, capacity)}
}

func (bb *ByteBuffer) Bytes() []byte { return bb.B }

func (bb *ByteBuffer) Len() int { return len(bb.B) }

func (bb *ByteBuffer) Cap() int { return cap(bb.B) }

// Reset empties the buffer and keeps its capacity.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// MustWrite appends data.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// Grow makes room for n more bytes. Buffers up to four default baskets grow
// one default basket at a time; larger ones grow by a quarter, since a basket
// that big usually holds a few large entries and keeps growing.
func (bb *ByteBuffer) Grow(n int) {
	if cap(bb.B)-len(bb.B) >= n {
		return
	}

	step := BasketBufferDefaultSize
	if cap(bb.B) > 4*BasketBufferDefaultSize {
		step = cap(bb.B) / 4
	}
	step = max(step, n)

	grown := make([]byte, len(bb.B), len(bb.B)+step)
	copy(grown, bb.B)
	bb.B = grown
}

// ByteBufferPool is a sync.Pool of ByteBuffers with a retention cap.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool returns a pool handing out buffers of defaultSize.
// Buffers whose capacity exceeds maxThreshold are not returned to the pool;
// zero disables the cap.
func NewByteBufferPool(defaultSize, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any { return NewByteBuffer(defaultSize) },
		},
		maxThreshold: maxThreshold,
	}
}

func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put resets bb and returns it to the pool. nil is ignored.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil || (bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold) {
		return
	}
	bb.Reset()
	bbp.pool.Put(bb)
}

var basketPool = NewByteBufferPool(BasketBufferDefaultSize, BasketBufferMaxThreshold)

// GetBasketBuffer returns an empty buffer for framing one basket.
func GetBasketBuffer() *ByteBuffer {
	return basketPool.Get()
}

// PutBasketBuffer recycles a buffer obtained from GetBasketBuffer.
func PutBasketBuffer(bb *ByteBuffer) {
	basketPool.Put(bb)
}
