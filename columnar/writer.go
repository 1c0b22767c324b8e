package columnar

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/arloliu/artio/compress"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/internal/hash"
	"github.com/arloliu/artio/internal/options"
	"github.com/arloliu/artio/section"
)

// Writer creates one container file.
type Writer struct {
	path   string
	f      *os.File
	bw     *bufio.Writer
	cfg    *WriterConfig
	offset uint64
	trees  map[string]*TreeWriter
	order  []*TreeWriter
	blobs  map[string]blobInfo
	closed bool
}

// Create creates the container file at path, truncating any existing file.
//
// Parameters:
//   - path: Destination file path
//   - opts: Writer options
//
// Returns:
//   - *Writer: Open writer; Close must be called to make the file readable
//   - error: Option or file creation error
func Create(path string, opts ...WriterOption) (*Writer, error) {
	cfg := NewWriterConfig(time.Now())
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		path:  path,
		f:     f,
		bw:    bufio.NewWriterSize(f, cfg.writeBufferSize),
		cfg:   cfg,
		trees: make(map[string]*TreeWriter),
		blobs: make(map[string]blobInfo),
	}

	// placeholder; patched with the directory location on Close
	if _, err := w.writeRaw(cfg.header.Bytes()); err != nil {
		_ = f.Close()
		return nil, err
	}

	return w, nil
}

// Path returns the path of the file being written.
func (w *Writer) Path() string {
	return w.path
}

// BytesWritten returns the number of bytes handed to the file so far.
func (w *Writer) BytesWritten() uint64 {
	return w.offset
}

// Tree returns the named tree, creating it on first use.
func (w *Writer) Tree(name string) *TreeWriter {
	if t, ok := w.trees[name]; ok {
		return t
	}

	t := &TreeWriter{
		w:              w,
		name:           name,
		byName:         make(map[string]*BranchWriter),
		maxVirtualSize: w.cfg.treeMaxVirtualSize,
	}
	w.trees[name] = t
	w.order = append(w.order, t)

	return t
}

// PutBlob stores a named opaque payload, replacing any earlier blob of the same name.
func (w *Writer) PutBlob(name string, data []byte, comp format.CompressionType) error {
	if w.closed {
		return errs.ErrWriterClosed
	}

	codec, err := compress.GetCodec(comp)
	if err != nil {
		return err
	}
	packed, err := codec.Compress(data)
	if err != nil {
		return fmt.Errorf("compress blob %s: %w", name, err)
	}

	off, err := w.writeRaw(packed)
	if err != nil {
		return err
	}
	w.blobs[name] = blobInfo{
		Offset:      off,
		Length:      uint32(len(packed)), //nolint:gosec
		RawLength:   uint32(len(data)),   //nolint:gosec
		Compression: comp,
		Checksum:    hash.Sum32(packed),
	}

	return nil
}

// Close flushes every pending basket, writes the directory and patches the
// header. The file is unreadable if Close fails.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.finish()
	if cerr := w.f.Close(); cerr != nil {
		err = errs.ErrorOrNil(errs.Append(err, cerr))
	}

	return err
}

func (w *Writer) finish() error {
	dir := &directory{Blobs: w.blobs}
	for _, t := range w.order {
		if err := t.FlushBaskets(); err != nil {
			return err
		}
		if err := t.checkBalanced(t.entries); err != nil {
			return err
		}
		dir.Trees = append(dir.Trees, t.info())
	}

	header := w.cfg.header
	packed, checksum, err := encodeDirectory(dir, header.Flag.Compression())
	if err != nil {
		return err
	}
	off, err := w.writeRaw(packed)
	if err != nil {
		return err
	}
	if err := w.bw.Flush(); err != nil {
		return err
	}

	header.DirectoryOffset = off
	header.DirectoryLength = uint32(len(packed)) //nolint:gosec
	header.DirectoryChecksum = checksum
	if _, err := w.f.WriteAt(header.Bytes(), 0); err != nil {
		return err
	}

	return w.f.Sync()
}

func (w *Writer) writeRaw(data []byte) (uint64, error) {
	off := w.offset
	n, err := w.bw.Write(data)
	w.offset += uint64(n) //nolint:gosec
	if err != nil {
		return 0, err
	}

	return off, nil
}

// TreeWriter writes the branches of one tree.
type TreeWriter struct {
	w              *Writer
	name           string
	branches       []*BranchWriter
	byName         map[string]*BranchWriter
	entries        int64
	maxVirtualSize int64
}

// Name returns the tree name.
func (t *TreeWriter) Name() string {
	return t.name
}

// Entries returns the number of committed entries.
func (t *TreeWriter) Entries() int64 {
	return t.entries
}

// SetMaxVirtualSize overrides the pending-basket budget of this tree.
func (t *TreeWriter) SetMaxVirtualSize(n int64) {
	if n > 0 {
		t.maxVirtualSize = n
	}
}

// Branch creates a branch, or returns the existing one if its settings match.
//
// A branch declared after entries were committed starts empty; the caller
// must backfill it with Entries() entries before the next Fill.
func (t *TreeWriter) Branch(name string, settings BranchSettings) (*BranchWriter, error) {
	settings = settings.withDefaults()
	if b, ok := t.byName[name]; ok {
		if b.info.Settings != settings {
			return nil, fmt.Errorf("%w: %s.%s", errs.ErrBranchExists, t.name, name)
		}

		return b, nil
	}

	codec, err := compress.GetCodec(settings.Compression)
	if err != nil {
		return nil, err
	}

	b := &BranchWriter{
		tree:  t,
		codec: codec,
		info: branchInfo{
			Name:          name,
			Settings:      settings,
			WriterVersion: section.WriterVersion,
		},
		stats: compress.CompressionStats{Algorithm: settings.Compression},
	}
	t.branches = append(t.branches, b)
	t.byName[name] = b

	return b, nil
}

// GetBranch returns the named branch if it was declared.
func (t *TreeWriter) GetBranch(name string) (*BranchWriter, bool) {
	b, ok := t.byName[name]
	return b, ok
}

// Branches returns the declared branches in declaration order.
func (t *TreeWriter) Branches() []*BranchWriter {
	return t.branches
}

// Fill commits one entry. Every branch must have been filled exactly once
// since the previous commit.
func (t *TreeWriter) Fill() error {
	return t.AdvanceEntries(1)
}

// AdvanceEntries commits n entries at once, as needed after a fast clone.
func (t *TreeWriter) AdvanceEntries(n int64) error {
	target := t.entries + n
	if err := t.checkBalanced(target); err != nil {
		return err
	}
	t.entries = target

	if t.PendingBytes() > t.maxVirtualSize {
		return t.FlushBaskets()
	}

	return nil
}

func (t *TreeWriter) checkBalanced(target int64) error {
	for _, b := range t.branches {
		if b.info.Entries != target {
			return fmt.Errorf("%w: tree %s branch %s has %d entries, want %d",
				errs.ErrBranchEntryMismatch, t.name, b.info.Name, b.info.Entries, target)
		}
	}

	return nil
}

// PendingBytes returns the framed bytes buffered across all branches.
func (t *TreeWriter) PendingBytes() int64 {
	var n int64
	for _, b := range t.branches {
		if b.enc != nil {
			n += int64(b.enc.Size())
		}
	}

	return n
}

// FlushBaskets writes out every pending basket.
func (t *TreeWriter) FlushBaskets() error {
	for _, b := range t.branches {
		if err := b.flushBasket(); err != nil {
			return err
		}
	}

	return nil
}

// DropBaskets writes out every pending basket and releases the branch buffers.
func (t *TreeWriter) DropBaskets() error {
	for _, b := range t.branches {
		if err := b.DropBaskets(); err != nil {
			return err
		}
	}

	return nil
}

func (t *TreeWriter) info() treeInfo {
	ti := treeInfo{Name: t.name, Entries: t.entries}
	for _, b := range t.branches {
		ti.Branches = append(ti.Branches, b.info)
	}

	return ti
}
