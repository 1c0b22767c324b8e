// Package hash wraps xxHash64 for the two places artio needs a fast
// non-cryptographic hash: product IDs derived from branch names, and the
// 32-bit checksums guarding baskets, blobs and the container directory.
package hash

import "github.com/cespare/xxhash/v2"

// Name returns the 64-bit identity of a branch name.
func Name(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Sum32 folds the xxHash64 of data into the 32 bits stored in the directory.
func Sum32(data []byte) uint32 {
	h := xxhash.Sum64(data)

	return uint32(h>>32) ^ uint32(h) //nolint:gosec
}

// Checksum accumulates a folded checksum over several writes, so a record
// can be hashed field by field without assembling it first.
type Checksum struct {
	d xxhash.Digest
}

// NewChecksum returns an empty Checksum.
func NewChecksum() *Checksum {
	c := &Checksum{}
	c.d.Reset()

	return c
}

func (c *Checksum) Write(p []byte) {
	_, _ = c.d.Write(p)
}

// Sum32 returns the folded checksum of everything written so far.
func (c *Checksum) Sum32() uint32 {
	h := c.d.Sum64()

	return uint32(h>>32) ^ uint32(h) //nolint:gosec
}
