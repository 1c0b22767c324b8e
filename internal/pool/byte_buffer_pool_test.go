package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewByteBuffer tests the capacity of a fresh buffer.
func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, 1024, bb.Cap())
}

// TestByteBuffer_WriteAndReset tests that Reset keeps the capacity.
func TestByteBuffer_WriteAndReset(t *testing.T) {
	bb := NewByteBuffer(BasketBufferDefaultSize)

	bb.MustWrite([]byte("hello"))
	bb.MustWrite([]byte(" world"))
	assert.Equal(t, []byte("hello world"), bb.Bytes())

	capBefore := bb.Cap()
	bb.Reset()
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, capBefore, bb.Cap(), "Reset should preserve capacity")
}

// TestByteBuffer_Grow tests the growth steps for small and large baskets.
func TestByteBuffer_Grow(t *testing.T) {
	t.Run("sufficient capacity", func(t *testing.T) {
		bb := NewByteBuffer(100)
		bb.Grow(50)
		assert.Equal(t, 100, bb.Cap())
	})

	t.Run("small buffer grows by default size", func(t *testing.T) {
		bb := NewByteBuffer(10)
		bb.MustWrite(make([]byte, 10))
		bb.Grow(1)
		assert.Equal(t, 10+BasketBufferDefaultSize, bb.Cap())
	})

	t.Run("large buffer grows by a quarter", func(t *testing.T) {
		size := 8 * BasketBufferDefaultSize
		bb := NewByteBuffer(size)
		bb.MustWrite(make([]byte, size))
		bb.Grow(1)
		assert.Equal(t, size+size/4, bb.Cap())
	})

	t.Run("preserves data", func(t *testing.T) {
		bb := NewByteBuffer(4)
		bb.MustWrite([]byte("data"))
		bb.Grow(BasketBufferDefaultSize * 2)
		assert.Equal(t, []byte("data"), bb.Bytes())
		assert.GreaterOrEqual(t, bb.Cap()-bb.Len(), BasketBufferDefaultSize*2)
	})
}

// TestByteBufferPool_MaxThreshold tests that oversized buffers are not retained.
func TestByteBufferPool_MaxThreshold(t *testing.T) {
	p := NewByteBufferPool(16, 64)

	big := p.Get()
	big.Grow(1024)
	big.MustWrite([]byte("x"))
	p.Put(big)

	for range 10 {
		bb := p.Get()
		assert.LessOrEqual(t, bb.Cap(), 64, "oversized buffer must not be retained")
		assert.Equal(t, 0, bb.Len())
	}

	p.Put(nil)
}

// TestBasketPool tests that recycled basket buffers come back empty.
func TestBasketPool(t *testing.T) {
	basket := GetBasketBuffer()
	require.NotNil(t, basket)
	assert.Equal(t, 0, basket.Len())
	basket.MustWrite([]byte("entries"))
	PutBasketBuffer(basket)

	again := GetBasketBuffer()
	assert.Equal(t, 0, again.Len())
	assert.GreaterOrEqual(t, again.Cap(), BasketBufferDefaultSize)
	PutBasketBuffer(again)
}

// TestPool_ConcurrentAccess tests the basket pool from many goroutines.
func TestPool_ConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for range 100 {
				bb := GetBasketBuffer()
				bb.MustWrite([]byte{byte(id)})
				if bb.Len() != 1 {
					t.Errorf("unexpected buffer length %d", bb.Len())
				}
				PutBasketBuffer(bb)
			}
		}(i)
	}
	wg.Wait()
}
