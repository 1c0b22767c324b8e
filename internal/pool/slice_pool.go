package pool

import "sync"

var entrySlicePool = sync.Pool{
	New: func() any { return &[][]byte{} },
}

// GetEntrySlice retrieves an empty slice of entry payloads from the pool.
//
// The returned slice has length 0 and at least the requested capacity.
// The caller must call the returned cleanup function once the entries are
// no longer referenced.
//
// Parameters:
//   - capacity: Expected number of entries
//
// Returns:
//   - [][]byte: Empty slice with capacity >= capacity
//   - func(): Cleanup function returning the slice to the pool
func GetEntrySlice(capacity int) ([][]byte, func()) {
	ptr, _ := entrySlicePool.Get().(*[][]byte)
	slice := (*ptr)[:0]
	if cap(slice) < capacity {
		slice = make([][]byte, 0, capacity)
	}
	*ptr = slice

	return slice, func() {
		clear((*ptr)[:cap(*ptr)])
		entrySlicePool.Put(ptr)
	}
}
