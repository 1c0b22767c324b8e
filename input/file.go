// Package input reads event-data files: the per-file reader with its
// file-index cursor, the delayed readers that materialize and aggregate
// products, and the sequence that walks a catalog of files.
package input

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/arloliu/artio/columnar"
	"github.com/arloliu/artio/config"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/fileindex"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/ids"
	"github.com/arloliu/artio/internal/options"
	"github.com/arloliu/artio/principal"
	"github.com/arloliu/artio/product"
	"github.com/arloliu/artio/rangeset"
	"github.com/arloliu/artio/sidestore"
)

// File is one opened input file positioned by a cursor into its file index.
//
// A File is not safe for concurrent use. Products materialized later
// through its delayed readers serialize their physical reads on their own.
type File struct {
	name   string
	cfg    *fileConfig
	logger *slog.Logger

	reader  *columnar.Reader
	version format.FileFormatVersion

	fileIndex *fileindex.FileIndex
	fiIter    int

	branchIDLists   [][]product.ID
	store           *sidestore.Store
	catalogMetadata []sidestore.MetadataEntry

	trees        [format.NumBranchTypes]*recordTree
	eventHistory *columnar.BranchReader

	products     *product.Registry
	dependencies product.Dependencies

	fastClonable    FastCloningEnabled
	eventsToSkip    uint32
	forcedRunOffset int64
	realData        bool
	closed          bool
}

func errInvalidBranchType(bt format.BranchType) error {
	return fmt.Errorf("invalid branch type %d", bt)
}

// Open opens and validates the input file at name.
//
// Parameters:
//   - name: Path of the file
//   - opts: Reader options
//
// Returns:
//   - *File: The reader positioned at the first file-index element
//   - error: FileOpenError when the file cannot be opened, FileReadError
//     when a required table is missing or the era differs, DataCorruption
//     when internal consistency checks fail
func Open(name string, opts ...FileOption) (*File, error) {
	cfg := newFileConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	r, err := columnar.Open(name)
	if err != nil {
		return nil, errs.Wrap(errs.FileOpenError, "open "+name, err)
	}

	f := &File{
		name:            name,
		cfg:             cfg,
		logger:          cfg.logger.With("file", name),
		reader:          r,
		fileIndex:       fileindex.New(),
		eventsToSkip:    cfg.eventsToSkip,
		forcedRunOffset: cfg.forcedRunOffset,
		products:        product.NewRegistry(),
		dependencies:    product.Dependencies{},
	}
	if err := f.load(); err != nil {
		_ = f.Close()
		return nil, err
	}

	return f, nil
}

// positionAfterRun returns the first index position past every element of
// run r. The last legal run has no successor ID to search for.
func (f *File) positionAfterRun(r ids.Number) int {
	if r >= ids.MaxValid {
		return f.fileIndex.End()
	}

	return f.fileIndex.FindPosition(ids.ForRun(r+1), false)
}

// positionAfterSubRun returns the position of the next subrun or run
// element after subrun (r, s).
func (f *File) positionAfterSubRun(r, s ids.Number) int {
	if s >= ids.MaxValid {
		return f.positionAfterRun(r)
	}

	return f.fileIndex.FindSubRunOrRunPosition(ids.ForSubRun(r, s+1))
}

func (f *File) load() error {
	meta, err := f.reader.Tree(format.MetaDataTreeName)
	if err != nil {
		return errs.Wrap(errs.FileReadError, "open "+f.name, err)
	}
	if err := readMetaRecord(meta, format.FileFormatVersionBranch, &f.version, true); err != nil {
		return err
	}
	if !f.version.SameEra() {
		return errs.New(errs.FileReadError, "open "+f.name,
			"file written under era %q cannot be read under era %q", f.version.Era, format.Era)
	}
	if err := f.loadFileIndex(); err != nil {
		return err
	}
	if err := readMetaRecord(meta, format.BranchIDListsBranch, &f.branchIDLists, false); err != nil {
		return err
	}
	var histories []product.ProcessHistory
	if err := readMetaRecord(meta, format.ProcessHistoryMapBranch, &histories, false); err != nil {
		return err
	}
	for _, h := range histories {
		if _, err := f.cfg.histories.Put(h); err != nil {
			return errs.Wrap(errs.DataCorruption, "process history", err)
		}
	}

	if f.version.HasSideStore() {
		if err := f.openSideStore(); err != nil {
			return err
		}
	}

	for _, bt := range format.BranchTypes {
		f.trees[bt] = newRecordTree(f.reader, bt, f.cfg.threshold)
	}
	if err := f.validate(); err != nil {
		return err
	}
	if err := f.loadParentage(); err != nil {
		return err
	}

	if f.fileIndex.Len() > 0 && f.trees[format.InEvent].entries() > 0 {
		var aux principal.EventAuxiliary
		if err := f.trees[format.InEvent].readAux(0, &aux); err != nil {
			return err
		}
		f.realData = aux.IsRealData
		if f.cfg.duplicates != nil {
			f.cfg.duplicates.Init(aux.IsRealData, f.fileIndex)
		}
	}

	if f.cfg.noEventSort {
		f.fileIndex.SortByRunSubRunEventEntry()
	}
	f.fiIter = 0

	if !f.version.HistoryInEventAuxiliary() {
		hist, err := f.reader.Tree(format.EventHistoryTreeName)
		if err != nil {
			return errs.Wrap(errs.DataCorruption, "open "+f.name, err)
		}
		br, err := hist.Branch(format.EventHistoryBranch)
		if err != nil {
			return errs.Wrap(errs.DataCorruption, "open "+f.name, err)
		}
		f.eventHistory = br
	}

	if err := f.loadProducts(meta); err != nil {
		return err
	}
	f.fastClonable = f.setIfFastClonable()

	return nil
}

// readMetaRecord decodes the single entry of a metadata branch.
func readMetaRecord(meta *columnar.TreeReader, branch string, v any, required bool) error {
	br, err := meta.Branch(branch)
	if err != nil {
		if required {
			return errs.Wrap(errs.FileReadError, "metadata "+branch, err)
		}

		return nil
	}

	return entryRead{branch: br, entry: 0, threshold: -1}.decodeRecord(v)
}

func (f *File) loadFileIndex() error {
	t, err := f.reader.Tree(format.FileIndexTreeName)
	if err != nil {
		return errs.Wrap(errs.FileReadError, "file index", err)
	}
	br, err := t.Branch(format.FileIndexBranch)
	if err != nil {
		return errs.Wrap(errs.FileReadError, "file index", err)
	}
	for i := range br.Entries() {
		var el fileindex.Element
		if err := (entryRead{branch: br, entry: i, threshold: -1}).decodeRecord(&el); err != nil {
			return err
		}
		f.fileIndex.AddEntryOnLoad(el.EventID, el.Entry)
	}
	f.fileIndex.MarkSorted()

	return nil
}

func (f *File) openSideStore() error {
	image, err := f.reader.Blob(format.SideStoreBlobName)
	if err != nil {
		return errs.Wrap(errs.FileReadError, "side-store", err)
	}
	store, err := sidestore.OpenImage(image, f.cfg.tempDir)
	if err != nil {
		return errs.Wrap(errs.FileReadError, "side-store", err)
	}
	f.store = store

	if f.cfg.readParameterSets {
		ok, err := store.HasTable("ParameterSets")
		if err != nil {
			return errs.Wrap(errs.FileReadError, "side-store", err)
		}
		if ok {
			blobs, err := store.ReadParameterSets()
			if err != nil {
				return errs.Wrap(errs.FileReadError, "parameter sets", err)
			}
			if err := f.cfg.psets.Import(blobs); err != nil {
				return errs.Wrap(errs.DataCorruption, "parameter sets", err)
			}
		}
	}

	entries, err := store.ReadFileCatalogMetadata()
	if err != nil {
		return errs.Wrap(errs.FileReadError, "file catalog metadata", err)
	}
	f.catalogMetadata = entries

	return nil
}

func (f *File) validate() error {
	if !f.trees[format.InEvent].isValid() {
		return errs.New(errs.DataCorruption, "validate "+f.name, "%s tree is missing or incomplete", format.InEvent.TreeName())
	}
	if f.fileIndex.Empty() {
		return errs.New(errs.FileReadError, "validate "+f.name, "file index is empty")
	}

	return nil
}

func (f *File) loadParentage() error {
	t, err := f.reader.Tree(format.ParentageTreeName)
	if err != nil {
		return errs.Wrap(errs.FileReadError, "parentage", err)
	}
	hashes, err := t.Branch(format.ParentageHashBranch)
	if err != nil {
		return errs.Wrap(errs.FileReadError, "parentage", err)
	}
	descs, err := t.Branch(format.ParentageDescBranch)
	if err != nil {
		return errs.Wrap(errs.FileReadError, "parentage", err)
	}

	for i := range t.Entries() {
		var stored product.ParentageID
		if err := (entryRead{branch: hashes, entry: i, threshold: -1}).decodeRecord(&stored); err != nil {
			return err
		}
		var p product.Parentage
		if err := (entryRead{branch: descs, entry: i, threshold: -1}).decodeRecord(&p); err != nil {
			return err
		}
		id, err := p.ID()
		if err != nil {
			return errs.Wrap(errs.DataCorruption, "parentage", err)
		}
		if id != stored {
			return errs.New(errs.DataCorruption, "parentage",
				"parentage entry %d: stored hash %s does not match computed %s", i, stored, id)
		}
		f.cfg.parentages.Emplace(id, p)
	}

	return nil
}

func (f *File) loadProducts(meta *columnar.TreeReader) error {
	var descs []product.BranchDescription
	if err := readMetaRecord(meta, format.ProductRegistryBranch, &descs, true); err != nil {
		return err
	}
	var deps product.Dependencies
	if err := readMetaRecord(meta, format.ProductDependenciesBranch, &deps, false); err != nil {
		return err
	}
	if deps != nil {
		f.dependencies = deps
	}

	for _, bd := range descs {
		bd.Validity = product.PresentFromSource
		if err := f.products.Add(bd); err != nil {
			return errs.Wrap(errs.DataCorruption, "product registry", err)
		}
	}
	f.dropOnInput(descs)

	for _, bd := range f.products.All() {
		if f.trees[bd.BranchType].addBranch(bd) {
			f.products.SetValidity(bd.ProductID, product.PresentFromSource)
		} else {
			f.products.SetValidity(bd.ProductID, product.Dropped)
		}
	}

	return nil
}

// dropOnInput removes the products the input rules reject and, when
// configured, every product derived from them.
func (f *File) dropOnInput(descs []product.BranchDescription) {
	rules := f.cfg.rules
	if rules == nil || rules.KeepAll() {
		return
	}

	drop := make(map[product.ID]struct{})
	for _, bd := range descs {
		if rules.Selected(bd) {
			continue
		}
		if f.cfg.dropDescendants {
			f.dependencies.AppendToDescendants(bd.ProductID, drop)
		} else {
			drop[bd.ProductID] = struct{}{}
		}
	}

	for _, bd := range descs {
		if _, ok := drop[bd.ProductID]; !ok {
			continue
		}
		if rules.Selected(bd) {
			f.logger.Warn("selected product dropped because its parent was dropped",
				"branch", bd.BranchName())
		}
		f.products.Remove(bd.ProductID)
		f.trees[bd.BranchType].dropBranch(bd.ProductID)
	}
}

func (f *File) setIfFastClonable() FastCloningEnabled {
	var enabled FastCloningEnabled
	if f.cfg.secondary != nil {
		enabled.Disable("Reading from secondary file.")
	}
	if !f.fileIndex.AllEventsInEntryOrder() {
		enabled.Disable("Events are not in entry order.")
	}
	if f.eventsToSkip != 0 {
		enabled.Disable("The events-to-skip option has been specified.")
	}

	info := NewFastCloningInfo(f.cfg.limits)
	if info.FastCloningPermitted() {
		if n, _ := info.RemainingEvents(); n >= 0 && f.trees[format.InEvent].entries() > int64(n) {
			enabled.Disable("There are fewer events to process than are present in the event tree.")
		}
		if n, _ := info.RemainingSubRuns(); n >= 0 && f.trees[format.InSubRun].entries() > int64(n) {
			enabled.Disable("There are fewer subruns to process than are present in the subrun tree.")
		}
		if f.cfg.limits.ProcessingMode() != config.RunsSubRunsAndEvents {
			enabled.Disable("Processing mode does not process all events.")
		}
	}

	pos := 0
	for pos != f.fileIndex.End() && f.fileIndex.At(pos).EntryType() != fileindex.KEvent {
		pos++
	}
	switch {
	case pos == f.fileIndex.End():
		enabled.Disable("No event found in file index of input file.")
	case f.fileIndex.At(pos).EventID.Less(f.cfg.origin):
		enabled.Disable("Starting event does not include first event in input file.")
	}

	return enabled
}

// Name returns the path the file was opened from.
func (f *File) Name() string { return f.name }

// FormatVersion returns the stored format version.
func (f *File) FormatVersion() format.FileFormatVersion { return f.version }

// FileIndex returns the index of the file.
func (f *File) FileIndex() *fileindex.FileIndex { return f.fileIndex }

// Products returns the product descriptions of the file after input rules
// were applied.
func (f *File) Products() *product.Registry { return f.products }

// Dependencies returns the stored product dependency graph.
func (f *File) Dependencies() product.Dependencies { return f.dependencies }

// BranchIDLists returns the stored branch-ID compatibility lists.
func (f *File) BranchIDLists() [][]product.ID { return f.branchIDLists }

// CatalogMetadata returns the stored file catalog key/value pairs.
func (f *File) CatalogMetadata() []sidestore.MetadataEntry { return f.catalogMetadata }

// SideStore returns the side-store of the file, or nil for old formats.
func (f *File) SideStore() *sidestore.Store { return f.store }

// Reader returns the underlying columnar reader.
func (f *File) Reader() *columnar.Reader { return f.reader }

// FastClonable returns the fast-cloning decision for this file.
func (f *File) FastClonable() FastCloningEnabled { return f.fastClonable }

// IsRealData reports whether the first event of the file is real data.
func (f *File) IsRealData() bool { return f.realData }

// EventsToSkip returns how many wanted events are still to be skipped.
func (f *File) EventsToSkip() uint32 { return f.eventsToSkip }

// SetEventsToSkip carries the skip count over from a previous file.
func (f *File) SetEventsToSkip(n uint32) { f.eventsToSkip = n }

// EventTree returns the event data tree.
func (f *File) EventTree() *columnar.TreeReader { return f.trees[format.InEvent].data }

// Entries returns the number of physical entries of records of kind bt.
func (f *File) Entries(bt format.BranchType) int64 { return f.trees[bt].entries() }

// EventAuxiliaryAt reads the event header stored at a physical entry.
func (f *File) EventAuxiliaryAt(entry fileindex.EntryNumber) (principal.EventAuxiliary, error) {
	var aux principal.EventAuxiliary
	if err := f.trees[format.InEvent].readAux(entry, &aux); err != nil {
		return aux, err
	}
	if err := f.overrideEventHistory(entry, &aux); err != nil {
		return aux, err
	}
	f.applyRunOffset(&aux.ID)

	return aux, nil
}

// SetForcedRunOffset makes the first run of the file appear as run forced.
//
// Returns:
//   - int64: The offset added to every run number
//   - error: InvalidNumber if forced is not a valid run
func (f *File) SetForcedRunOffset(forced ids.Number) (int64, error) {
	if f.fileIndex.Empty() {
		return 0, nil
	}
	f.forcedRunOffset = 0
	if !ids.ForRun(forced).IsRunValid() {
		return 0, errs.New(errs.InvalidNumber, "setRunNumber", "run number %d is not valid", forced)
	}
	f.forcedRunOffset = int64(forced) - int64(f.fileIndex.At(0).EventID.Run)
	if f.forcedRunOffset != 0 {
		f.fastClonable.Disable("The run number has been forced by setRunNumber.")
	}

	return f.forcedRunOffset, nil
}

func (f *File) applyRunOffset(id *ids.EventID) {
	if f.forcedRunOffset == 0 || !id.IsRunValid() {
		return
	}
	id.Run = ids.Number(int64(id.Run) + f.forcedRunOffset) //nolint:gosec
}

// cursor

// GetEntryType returns the kind of the element at the cursor.
func (f *File) GetEntryType() fileindex.EntryType {
	if f.fiIter == f.fileIndex.End() {
		return fileindex.KEnd
	}

	return f.fileIndex.At(f.fiIter).EntryType()
}

// EventIDForFileIndexPosition returns the ID at the cursor, or an invalid
// ID at the end.
func (f *File) EventIDForFileIndexPosition() ids.EventID {
	if f.fiIter == f.fileIndex.End() {
		return ids.InvalidID()
	}

	return f.fileIndex.At(f.fiIter).EventID
}

// NextEntry moves the cursor forward by one element.
func (f *File) NextEntry() {
	if f.fiIter < f.fileIndex.End() {
		f.fiIter++
	}
}

// PreviousEntry moves the cursor back by one element.
func (f *File) PreviousEntry() {
	if f.fiIter > 0 {
		f.fiIter--
	}
}

// AdvanceEntry moves the cursor forward by n elements.
func (f *File) AdvanceEntry(n int) {
	f.fiIter = min(f.fiIter+n, f.fileIndex.End())
}

// SetEntry moves the cursor to id and reports whether it was found. Without
// exact, the cursor lands on the first element at or after id.
func (f *File) SetEntry(id ids.EventID, exact bool) bool {
	f.fiIter = f.fileIndex.FindPosition(id, exact)
	return f.fiIter != f.fileIndex.End()
}

// SetToLastEntry moves the cursor to the end.
func (f *File) SetToLastEntry() {
	f.fiIter = f.fileIndex.End()
}

// Rewind moves the cursor to the first element and resets every data tree.
func (f *File) Rewind() {
	f.fiIter = 0
	for _, t := range f.trees {
		t.dropBaskets()
	}
}

// GetNextEntryTypeWanted advances the cursor past every element the job
// does not want and returns the kind of the element it stops at.
//
// Skipped are records before the origin event, record kinds the processing
// mode excludes, duplicate events and the events still to be skipped.
func (f *File) GetNextEntryTypeWanted() fileindex.EntryType {
	origin := f.cfg.origin
	mode := config.RunsSubRunsAndEvents
	if f.cfg.limits != nil {
		mode = f.cfg.limits.ProcessingMode()
	}

	for {
		et := f.GetEntryType()
		if et == fileindex.KEnd {
			return fileindex.KEnd
		}
		cur := f.fileIndex.At(f.fiIter).EventID
		if !cur.IsRunValid() {
			return fileindex.KEnd
		}

		if et == fileindex.KRun {
			if cur.Run < origin.Run {
				f.fiIter = f.fileIndex.FindPosition(origin.RunID(), false)
				continue
			}

			return fileindex.KRun
		}
		if mode == config.Runs {
			f.fiIter = f.positionAfterRun(cur.Run)
			continue
		}

		if et == fileindex.KSubRun {
			if cur.Run == origin.Run && cur.SubRun < origin.SubRun {
				f.fiIter = f.fileIndex.FindSubRunOrRunPosition(origin.SubRunID())
				continue
			}

			return fileindex.KSubRun
		}
		if mode == config.RunsAndSubRuns {
			f.fiIter = f.positionAfterSubRun(cur.Run, cur.SubRun)
			continue
		}

		if cur.Less(origin) {
			f.fiIter = f.fileIndex.FindPosition(origin, false)
			continue
		}
		if f.isDuplicate(cur) {
			f.NextEntry()
			continue
		}
		if f.eventsToSkip == 0 {
			return fileindex.KEvent
		}
		for f.eventsToSkip != 0 && f.GetEntryType() == fileindex.KEvent {
			f.NextEntry()
			f.eventsToSkip--
			for f.eventsToSkip != 0 && f.GetEntryType() == fileindex.KEvent && f.isDuplicate(f.EventIDForFileIndexPosition()) {
				f.NextEntry()
			}
		}
	}
}

func (f *File) isDuplicate(id ids.EventID) bool {
	return f.cfg.duplicates != nil && f.cfg.duplicates.IsDuplicateAndCheckActive(id, f.name)
}

// SkipEvents moves the cursor by offset events, forward for a positive
// offset and backward for a negative one, then onto the next event.
//
// Returns:
//   - int: The part of offset that could not be skipped in this file
func (f *File) SkipEvents(offset int) int {
	for offset > 0 && f.fiIter != f.fileIndex.End() {
		if f.GetEntryType() == fileindex.KEvent {
			offset--
		}
		f.fiIter++
	}
	for offset < 0 && f.fiIter != 0 {
		f.fiIter--
		if f.GetEntryType() == fileindex.KEvent {
			offset++
		}
	}
	for f.fiIter != f.fileIndex.End() && f.GetEntryType() != fileindex.KEvent {
		f.fiIter++
	}

	return offset
}

// getEntryNumbers collects the physical entries sharing the ID at the cursor.
//
// Returns:
//   - EntryNumbers: The entries, in file-index order
//   - bool: Whether the record is the last one of its subrun
//   - error: FileReadError if an event has more than one entry
func (f *File) getEntryNumbers(bt format.BranchType) (EntryNumbers, bool, error) {
	if f.fiIter == f.fileIndex.End() {
		return nil, true, nil
	}
	id := f.fileIndex.At(f.fiIter).EventID
	var entries EntryNumbers
	pos := f.fiIter
	for ; pos != f.fileIndex.End() && f.fileIndex.At(pos).EventID == id; pos++ {
		entries = append(entries, f.fileIndex.At(pos).Entry)
	}
	if bt == format.InEvent && len(entries) > 1 {
		return nil, false, errs.New(errs.FileReadError, "read event",
			"more than one entry for event %s in file %s", id, f.name)
	}
	last := pos == f.fileIndex.End() || f.fileIndex.At(pos).EventID.SubRun != id.SubRun

	return entries, last, nil
}

// seekTo positions the cursor on id, keeping it when it already points there.
func (f *File) seekTo(id ids.EventID) bool {
	if f.fiIter != f.fileIndex.End() && f.fileIndex.At(f.fiIter).EventID == id {
		return true
	}

	return f.SetEntry(id, true)
}

// FileBlock describes an opened input file to output writers.
type FileBlock struct {
	file *File
}

// ReadFile returns the block describing the file.
func (f *File) ReadFile() *FileBlock {
	return &FileBlock{file: f}
}

// FileName returns the path of the input file.
func (b *FileBlock) FileName() string { return b.file.name }

// FormatVersion returns the format version of the input file.
func (b *FileBlock) FormatVersion() format.FileFormatVersion { return b.file.version }

// EventTree returns the event data tree to clone from.
func (b *FileBlock) EventTree() *columnar.TreeReader { return b.file.EventTree() }

// Products returns the product descriptions of the input file.
func (b *FileBlock) Products() *product.Registry { return b.file.products }

// FastClonable returns the input side of the fast-cloning decision.
func (b *FileBlock) FastClonable() FastCloningEnabled { return b.file.fastClonable }

// EventAuxiliary reads the event header stored at a physical entry.
func (b *FileBlock) EventAuxiliary(entry int64) (principal.EventAuxiliary, error) {
	return b.file.EventAuxiliaryAt(entry)
}

// EventProvenance reads the provenance vector stored at a physical entry.
func (b *FileBlock) EventProvenance(entry int64) ([]product.Provenance, error) {
	return b.file.trees[format.InEvent].readProvenance(entry)
}

// ReadEvent reads the event at the cursor and moves past it.
// It returns nil at the end of the file.
func (f *File) ReadEvent() (*principal.Principal, error) {
	if f.fiIter == f.fileIndex.End() {
		return nil, nil
	}
	p, err := f.readEventAt(f.fileIndex.At(f.fiIter).EventID)
	f.NextEntry()

	return p, err
}

// ReadEventWithID reads event id without moving past it. It returns nil
// when the file does not hold the event.
func (f *File) ReadEventWithID(id ids.EventID) (*principal.Principal, error) {
	if !f.seekTo(id) {
		return nil, nil
	}

	return f.readEventAt(id)
}

func (f *File) readEventAt(id ids.EventID) (*principal.Principal, error) {
	entries, last, err := f.getEntryNumbers(format.InEvent)
	if err != nil {
		return nil, err
	}
	tree := f.trees[format.InEvent]
	var aux principal.EventAuxiliary
	if err := tree.readAux(entries[0], &aux); err != nil {
		return nil, err
	}
	if err := f.overrideEventHistory(entries[0], &aux); err != nil {
		return nil, err
	}
	if aux.ID != id {
		return nil, errs.New(errs.DataCorruption, "read event",
			"file index holds %s but the header at entry %d holds %s", id, entries[0], aux.ID)
	}
	f.applyRunOffset(&aux.ID)

	p := f.newPrincipal(aux, id, entries)
	p.SetLastInSubRun(last)
	if !f.cfg.delayed[format.InEvent] {
		if err := p.ReadImmediate(); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (f *File) overrideEventHistory(entry fileindex.EntryNumber, aux *principal.EventAuxiliary) error {
	if f.eventHistory == nil {
		return nil
	}

	return entryRead{branch: f.eventHistory, entry: entry, threshold: -1}.decodeRecord(&aux.ProcessHistoryID)
}

// newPrincipal builds the principal of a record. The delayed reader keeps
// the ID as stored in the file, before any forced run offset.
func (f *File) newPrincipal(aux principal.Auxiliary, fileID ids.EventID, entries EntryNumbers) *principal.Principal {
	bt := aux.BranchType()
	var reader principal.DelayedReader
	if len(entries) > 0 {
		reader = newFileReader(f, bt, fileID, entries)
	}
	p := principal.New(aux, f.products.Descriptions(bt), f.cfg.types, reader)
	p.SetParentageRegistry(f.cfg.parentages)

	return p
}

// ReadSubRun reads the subrun at the cursor and moves past its entries.
func (f *File) ReadSubRun() (*principal.Principal, error) {
	if f.fiIter == f.fileIndex.End() {
		return nil, nil
	}

	return f.readSubRunAt(f.fileIndex.At(f.fiIter).EventID, true)
}

// ReadSubRunWithID reads subrun id, moving past it only when thenAdvance is set.
func (f *File) ReadSubRunWithID(id ids.EventID, thenAdvance bool) (*principal.Principal, error) {
	if !f.seekTo(id) {
		return nil, nil
	}

	return f.readSubRunAt(id, thenAdvance)
}

func (f *File) readSubRunAt(id ids.EventID, thenAdvance bool) (*principal.Principal, error) {
	entries, _, err := f.getEntryNumbers(format.InSubRun)
	if err != nil {
		return nil, err
	}
	tree := f.trees[format.InSubRun]

	var aux principal.SubRunAuxiliary
	rs := rangeset.Invalid()
	for i, entry := range entries {
		var frag principal.SubRunAuxiliary
		if err := tree.readAux(entry, &frag); err != nil {
			return nil, err
		}
		if frag.ID != id {
			return nil, errs.New(errs.DataCorruption, "read subrun",
				"file index holds %s but the header at entry %d holds %s", id, entry, frag.ID)
		}
		if i == 0 {
			aux = frag
		} else {
			aux.Merge(frag)
		}
		if err := f.mergeRangeSet(&rs, format.InSubRun, frag.RangeSetID); err != nil {
			return nil, err
		}
	}
	aux.RangeSetID = rangeset.InvalidID
	if !f.version.SupportsRangeSets() {
		rs = rangeset.ForSubRun(id.Run, id.SubRun)
	}
	if aux.BeginTime == principal.InvalidTimestamp {
		if ts, ok := f.nextEventTime(); ok {
			aux.BeginTime = ts
		}
	}
	f.applyRunOffset(&aux.ID)

	p := f.newPrincipal(aux, id, entries)
	p.SetRangeSet(rs)
	if !f.cfg.delayed[format.InSubRun] {
		if err := p.ReadImmediate(); err != nil {
			return nil, err
		}
	}
	if thenAdvance {
		f.AdvanceEntry(len(entries))
	}

	return p, nil
}

// ReadRun reads the run at the cursor and moves past its entries.
func (f *File) ReadRun() (*principal.Principal, error) {
	if f.fiIter == f.fileIndex.End() {
		return nil, nil
	}

	return f.readRunAt(f.fileIndex.At(f.fiIter).EventID, true)
}

// ReadRunWithID reads run id, moving past it only when thenAdvance is set.
func (f *File) ReadRunWithID(id ids.EventID, thenAdvance bool) (*principal.Principal, error) {
	if !f.seekTo(id) {
		return nil, nil
	}

	return f.readRunAt(id, thenAdvance)
}

func (f *File) readRunAt(id ids.EventID, thenAdvance bool) (*principal.Principal, error) {
	entries, _, err := f.getEntryNumbers(format.InRun)
	if err != nil {
		return nil, err
	}
	tree := f.trees[format.InRun]

	var aux principal.RunAuxiliary
	rs := rangeset.Invalid()
	for i, entry := range entries {
		var frag principal.RunAuxiliary
		if err := tree.readAux(entry, &frag); err != nil {
			return nil, err
		}
		if frag.ID != id {
			return nil, errs.New(errs.DataCorruption, "read run",
				"file index holds %s but the header at entry %d holds %s", id, entry, frag.ID)
		}
		if i == 0 {
			aux = frag
		} else {
			aux.Merge(frag)
		}
		if err := f.mergeRangeSet(&rs, format.InRun, frag.RangeSetID); err != nil {
			return nil, err
		}
	}
	aux.RangeSetID = rangeset.InvalidID
	if !f.version.SupportsRangeSets() {
		rs = rangeset.ForRun(id.Run)
	}
	if aux.BeginTime == principal.InvalidTimestamp {
		if ts, ok := f.nextEventTime(); ok {
			aux.BeginTime = ts
		}
	}
	f.applyRunOffset(&aux.ID)

	p := f.newPrincipal(aux, id, entries)
	p.SetRangeSet(rs)
	if !f.cfg.delayed[format.InRun] {
		if err := p.ReadImmediate(); err != nil {
			return nil, err
		}
	}
	if thenAdvance {
		f.AdvanceEntry(len(entries))
	}

	return p, nil
}

// mergeRangeSet folds the stored range set id of one fragment into rs.
func (f *File) mergeRangeSet(rs *rangeset.RangeSet, bt format.BranchType, id uint32) error {
	if !f.version.SupportsRangeSets() {
		return nil
	}
	frag, err := f.resolveRangeSet(bt, id)
	if err != nil {
		return err
	}
	if err := rs.Merge(frag, f.cfg.compactRanges); err != nil {
		return errs.Wrap(errs.DataCorruption, "merge "+bt.String()+" range sets", err)
	}

	return nil
}

// resolveRangeSet loads a stored range set. Files without a side-store and
// the invalid id yield the invalid set.
func (f *File) resolveRangeSet(bt format.BranchType, id uint32) (rangeset.RangeSet, error) {
	if f.store == nil || id == rangeset.InvalidID {
		return rangeset.Invalid(), nil
	}
	rs, err := f.store.ResolveRangeSet(bt, id, f.cfg.compactRanges)
	if err != nil {
		return rangeset.Invalid(), errs.Wrap(errs.FileReadError, "resolve range set", err)
	}

	return rs, nil
}

// nextEventTime returns the time of the first event after the cursor.
func (f *File) nextEventTime() (principal.Timestamp, bool) {
	for pos := f.fiIter; pos != f.fileIndex.End(); pos++ {
		el := f.fileIndex.At(pos)
		if el.EntryType() != fileindex.KEvent {
			continue
		}
		var aux principal.EventAuxiliary
		if err := f.trees[format.InEvent].readAux(el.Entry, &aux); err != nil {
			return principal.InvalidTimestamp, false
		}

		return aux.Time, true
	}

	return principal.InvalidTimestamp, false
}

// ReadResults reads the results record of the file. A file without results
// yields an empty principal.
func (f *File) ReadResults() (*principal.Principal, error) {
	tree := f.trees[format.InResults]
	if !tree.isValid() || tree.entries() == 0 {
		return f.newPrincipal(principal.ResultsAuxiliary{}, ids.InvalidID(), nil), nil
	}

	var aux principal.ResultsAuxiliary
	if err := tree.readAux(0, &aux); err != nil {
		return nil, err
	}

	p := f.newPrincipal(aux, ids.InvalidID(), EntryNumbers{0})
	if !f.cfg.delayed[format.InResults] {
		if err := p.ReadImmediate(); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Close releases the store handles. It is safe to call more than once.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	var merr error
	if f.store != nil {
		if err := f.store.Close(); err != nil {
			merr = errs.Append(merr, err)
		}
	}
	if err := f.reader.Close(); err != nil && !errors.Is(err, errs.ErrReaderClosed) {
		merr = errs.Append(merr, err)
	}
	if merr != nil {
		return errs.Wrap(errs.FatalRootError, "close "+f.name, merr)
	}

	return nil
}
