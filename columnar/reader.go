package columnar

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/arloliu/artio/compress"
	"github.com/arloliu/artio/encoding"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/internal/hash"
	"github.com/arloliu/artio/internal/pool"
	"github.com/arloliu/artio/section"
)

// Reader gives random access to the trees and blobs of a closed container file.
type Reader struct {
	path   string
	f      *os.File
	size   int64
	header section.FileHeader
	dir    *directory
	trees  map[string]*TreeReader
	closed bool
}

// Open opens the container at path and loads its directory.
//
// Returns:
//   - *Reader: Open reader
//   - error: OS error from opening the file, or a structural error
//     (ErrInvalidHeaderSize, ErrInvalidMagicNumber, ErrInvalidTrailer,
//     ErrChecksumMismatch) if the content is not a finished container
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := &Reader{path: path, f: f, trees: make(map[string]*TreeReader)}
	if err := r.load(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return r, nil
}

func (r *Reader) load() error {
	st, err := r.f.Stat()
	if err != nil {
		return err
	}
	r.size = st.Size()

	if r.size < section.HeaderSize {
		return errs.ErrInvalidHeaderSize
	}
	buf := make([]byte, section.HeaderSize)
	if _, err := r.f.ReadAt(buf, 0); err != nil {
		return err
	}
	if r.header, err = section.ParseFileHeader(buf); err != nil {
		return err
	}
	if !r.header.IsFinished() {
		return errs.ErrInvalidTrailer
	}
	end := r.header.DirectoryOffset + uint64(r.header.DirectoryLength)
	if end > uint64(r.size) { //nolint:gosec
		return errs.ErrInvalidTrailer
	}

	packed, err := r.readRaw(r.header.DirectoryOffset, r.header.DirectoryLength)
	if err != nil {
		return err
	}
	if hash.Sum32(packed) != r.header.DirectoryChecksum {
		return fmt.Errorf("directory: %w", errs.ErrChecksumMismatch)
	}
	if r.dir, err = decodeDirectory(packed, r.header.Flag.Compression()); err != nil {
		return err
	}

	for i := range r.dir.Trees {
		ti := &r.dir.Trees[i]
		t := &TreeReader{r: r, info: ti, byName: make(map[string]*BranchReader, len(ti.Branches))}
		for j := range ti.Branches {
			b := &BranchReader{r: r, info: &ti.Branches[j], cached: -1}
			t.branches = append(t.branches, b)
			t.byName[b.info.Name] = b
		}
		r.trees[ti.Name] = t
	}

	return nil
}

func (r *Reader) readRaw(off uint64, n uint32) ([]byte, error) {
	if r.closed {
		return nil, errs.ErrReaderClosed
	}
	buf := make([]byte, n)
	if _, err := r.f.ReadAt(buf, int64(off)); err != nil { //nolint:gosec
		return nil, err
	}

	return buf, nil
}

// Path returns the path the reader was opened from.
func (r *Reader) Path() string {
	return r.path
}

// Size returns the file size in bytes.
func (r *Reader) Size() int64 {
	return r.size
}

// Header returns the container header.
func (r *Reader) Header() section.FileHeader {
	return r.header
}

// WriterVersion returns the version of the writer that produced the file.
func (r *Reader) WriterVersion() uint32 {
	return r.header.WriterVersion
}

// HasTree reports whether the file holds the named tree.
func (r *Reader) HasTree(name string) bool {
	_, ok := r.trees[name]
	return ok
}

// Tree returns the named tree.
func (r *Reader) Tree(name string) (*TreeReader, error) {
	t, ok := r.trees[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrTreeNotFound, name)
	}

	return t, nil
}

// TreeNames returns the names of all trees, sorted.
func (r *Reader) TreeNames() []string {
	names := make([]string, 0, len(r.trees))
	for name := range r.trees {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// BlobNames returns the names of all blobs, sorted.
func (r *Reader) BlobNames() []string {
	names := make([]string, 0, len(r.dir.Blobs))
	for name := range r.dir.Blobs {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Blob returns the decompressed content of the named blob.
func (r *Reader) Blob(name string) ([]byte, error) {
	bi, ok := r.dir.Blobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrBlobNotFound, name)
	}

	packed, err := r.readRaw(bi.Offset, bi.Length)
	if err != nil {
		return nil, err
	}
	if hash.Sum32(packed) != bi.Checksum {
		return nil, fmt.Errorf("blob %s: %w", name, errs.ErrChecksumMismatch)
	}
	codec, err := compress.GetCodec(bi.Compression)
	if err != nil {
		return nil, err
	}

	return codec.Decompress(packed, int(bi.RawLength))
}

// Close releases cached baskets and closes the file.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	for _, t := range r.trees {
		t.DropBaskets()
	}
	r.closed = true

	return r.f.Close()
}

// TreeReader reads the branches of one tree.
type TreeReader struct {
	r        *Reader
	info     *treeInfo
	branches []*BranchReader
	byName   map[string]*BranchReader
}

// Name returns the tree name.
func (t *TreeReader) Name() string {
	return t.info.Name
}

// Entries returns the number of entries in the tree.
func (t *TreeReader) Entries() int64 {
	return t.info.Entries
}

// HasBranch reports whether the tree holds the named branch.
func (t *TreeReader) HasBranch(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Branch returns the named branch.
func (t *TreeReader) Branch(name string) (*BranchReader, error) {
	b, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", errs.ErrBranchNotFound, t.info.Name, name)
	}

	return b, nil
}

// Branches returns the branches in declaration order.
func (t *TreeReader) Branches() []*BranchReader {
	return t.branches
}

// DropBaskets releases the cached basket of every branch.
func (t *TreeReader) DropBaskets() {
	for _, b := range t.branches {
		b.DropBaskets()
	}
}

// BranchReader reads the entries of one branch, caching one decoded basket.
type BranchReader struct {
	r            *Reader
	info         *branchInfo
	cached       int
	entries      [][]byte
	release      func()
	lastReadSize int
}

// Name returns the branch name.
func (b *BranchReader) Name() string {
	return b.info.Name
}

// Settings returns the settings the branch was written with.
func (b *BranchReader) Settings() BranchSettings {
	return b.info.Settings
}

// Entries returns the number of entries in the branch.
func (b *BranchReader) Entries() int64 {
	return b.info.Entries
}

// WriterVersion returns the writer version that created the branch.
func (b *BranchReader) WriterVersion() uint32 {
	return b.info.WriterVersion
}

// NumBaskets returns the number of baskets of the branch.
func (b *BranchReader) NumBaskets() int {
	return len(b.info.Baskets)
}

// LastReadSize returns the size of the most recently read entry.
func (b *BranchReader) LastReadSize() int {
	return b.lastReadSize
}

// Stats returns the compressed and framed sizes of the branch.
func (b *BranchReader) Stats() compress.CompressionStats {
	stats := compress.CompressionStats{Algorithm: b.info.Settings.Compression}
	for _, bi := range b.info.Baskets {
		stats.Add(int(bi.RawLength), int(bi.Length))
	}

	return stats
}

// Read returns the payload of the given entry.
//
// The returned slice is valid until the next Read on this branch or DropBaskets.
func (b *BranchReader) Read(entry int64) ([]byte, error) {
	if entry < 0 || entry >= b.info.Entries {
		return nil, fmt.Errorf("%w: %s entry %d of %d", errs.ErrEntryOutOfRange, b.info.Name, entry, b.info.Entries)
	}

	baskets := b.info.Baskets
	idx := sort.Search(len(baskets), func(i int) bool {
		return baskets[i].FirstEntry+int64(baskets[i].NumEntries) > entry
	})
	if idx == len(baskets) || baskets[idx].FirstEntry > entry {
		return nil, fmt.Errorf("%w: %s entry %d has no basket", errs.ErrEntryOutOfRange, b.info.Name, entry)
	}

	if idx != b.cached {
		if err := b.loadBasket(idx); err != nil {
			return nil, err
		}
	}

	payload := b.entries[entry-baskets[idx].FirstEntry]
	b.lastReadSize = len(payload)

	return payload, nil
}

// DropBaskets releases the cached basket.
func (b *BranchReader) DropBaskets() {
	if b.release != nil {
		b.release()
		b.release = nil
	}
	b.entries = nil
	b.cached = -1
}

func (b *BranchReader) loadBasket(idx int) error {
	b.DropBaskets()

	bi := b.info.Baskets[idx]
	packed, err := b.readPacked(bi)
	if err != nil {
		return err
	}
	codec, err := compress.GetCodec(b.info.Settings.Compression)
	if err != nil {
		return err
	}
	raw, err := codec.Decompress(packed, int(bi.RawLength))
	if err != nil {
		return fmt.Errorf("branch %s basket %d: %w", b.info.Name, idx, err)
	}

	dst, release := pool.GetEntrySlice(int(bi.NumEntries))
	entries, err := encoding.NewEntryDecoder(raw).Split(dst, int(bi.NumEntries))
	if err != nil {
		release()
		return fmt.Errorf("branch %s basket %d: %w", b.info.Name, idx, err)
	}

	b.entries = entries
	b.release = release
	b.cached = idx

	return nil
}

func (b *BranchReader) readPacked(bi BasketInfo) ([]byte, error) {
	packed, err := b.r.readRaw(bi.Offset, bi.Length)
	if err != nil {
		return nil, err
	}
	if hash.Sum32(packed) != bi.Checksum {
		return nil, fmt.Errorf("branch %s basket at %d: %w", b.info.Name, bi.Offset, errs.ErrChecksumMismatch)
	}

	return packed, nil
}

// Baskets returns a copy of the basket table of the branch.
func (b *BranchReader) Baskets() []BasketInfo {
	return slices.Clone(b.info.Baskets)
}
