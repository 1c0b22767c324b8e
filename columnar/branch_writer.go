package columnar

import (
	"github.com/arloliu/artio/compress"
	"github.com/arloliu/artio/encoding"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/internal/hash"
)

// BranchWriter buffers the entries of one branch and writes them out in baskets.
type BranchWriter struct {
	tree          *TreeWriter
	info          branchInfo
	enc           *encoding.EntryEncoder
	codec         compress.Codec
	lastEntrySize int
	stats         compress.CompressionStats
}

// Name returns the branch name.
func (b *BranchWriter) Name() string {
	return b.info.Name
}

// Settings returns the branch settings.
func (b *BranchWriter) Settings() BranchSettings {
	return b.info.Settings
}

// Entries returns the number of entries filled so far, committed or not.
func (b *BranchWriter) Entries() int64 {
	return b.info.Entries
}

// LastEntrySize returns the size of the most recently filled entry.
func (b *BranchWriter) LastEntrySize() int {
	return b.lastEntrySize
}

// Stats returns the compression statistics of the baskets written so far.
func (b *BranchWriter) Stats() compress.CompressionStats {
	return b.stats
}

// Fill appends one entry to the branch.
func (b *BranchWriter) Fill(entry []byte) error {
	if b.tree.w.closed {
		return errs.ErrWriterClosed
	}
	if b.enc == nil {
		b.enc = encoding.NewEntryEncoder()
	}

	b.enc.Write(entry)
	b.info.Entries++
	b.lastEntrySize = len(entry)

	if b.enc.Size() >= b.info.Settings.BasketSize {
		return b.flushBasket()
	}

	return nil
}

// DropBaskets writes out the pending basket and returns its buffer to the pool.
func (b *BranchWriter) DropBaskets() error {
	if err := b.flushBasket(); err != nil {
		return err
	}
	if b.enc != nil {
		b.enc.Reset()
		b.enc = nil
	}

	return nil
}

func (b *BranchWriter) flushBasket() error {
	if b.enc == nil || b.enc.Len() == 0 {
		return nil
	}

	raw := b.enc.Bytes()
	packed, err := b.codec.Compress(raw)
	if err != nil {
		return err
	}

	off, err := b.tree.w.writeRaw(packed)
	if err != nil {
		return err
	}

	n := b.enc.Len()
	b.info.Baskets = append(b.info.Baskets, BasketInfo{
		Offset:     off,
		Length:     uint32(len(packed)), //nolint:gosec
		RawLength:  uint32(len(raw)),    //nolint:gosec
		FirstEntry: b.info.Entries - int64(n),
		NumEntries: int32(n), //nolint:gosec
		Checksum:   hash.Sum32(packed),
	})
	b.stats.Add(len(raw), len(packed))
	b.enc.Clear()

	return nil
}
