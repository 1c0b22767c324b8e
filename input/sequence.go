package input

import (
	"log/slog"

	"github.com/arloliu/artio/config"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/fileindex"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/ids"
	"github.com/arloliu/artio/internal/options"
	"github.com/arloliu/artio/principal"
	"github.com/arloliu/artio/product"
	"github.com/arloliu/artio/pset"
	"github.com/arloliu/artio/selector"
)

// Sequence walks the primary files of a catalog, opening one at a time,
// and locates records across files for random access.
//
// Secondary files of the current primary are opened lazily, the first time
// a product has to fall through to them. A Sequence is not safe for
// concurrent use.
type Sequence struct {
	in      config.Input
	base    *fileConfig
	userOps []FileOption
	logger  *slog.Logger

	catalog *Catalog
	limits  *ProcessingLimits
	rules   *selector.Rules

	arena    *fileArena
	current  fileHandle
	lastRead fileHandle

	fileIndexes    []*fileindex.FileIndex
	secondaryNames [][]string
	secondaries    []fileHandle

	origin          ids.EventID
	eventsToSkip    uint32
	forcedRunOffset int64
	duplicates      *DuplicateChecker

	firstFile    bool
	pendingClose bool
}

// NewSequence validates in and opens the first readable file of catalog.
//
// Parameters:
//   - in: Input configuration
//   - catalog: Primary files in processing order
//   - limits: Processing limits shared with the source; nil derives them from in
//   - opts: Options applied to every opened file, such as WithTypes and WithLogger
//
// Returns:
//   - *Sequence: The sequence, positioned before its first item
//   - error: Configuration for illegal options, FileOpenError when a file
//     cannot be opened and skipBadFiles is off
func NewSequence(in config.Input, catalog *Catalog, limits *ProcessingLimits, opts ...FileOption) (*Sequence, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	base := newFileConfig()
	if err := options.Apply(base, opts...); err != nil {
		return nil, err
	}
	rules, err := selector.ParseRules(in.InputCommands, "inputCommands")
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, "source", err)
	}
	if limits == nil {
		limits = NewProcessingLimits(in.Processing(), in.MaxEvents, in.MaxSubRuns)
	}

	s := &Sequence{
		in:             in,
		base:           base,
		userOps:        opts,
		logger:         base.logger,
		catalog:        catalog,
		limits:         limits,
		rules:          rules,
		arena:          newFileArena(),
		fileIndexes:    make([]*fileindex.FileIndex, catalog.Len()),
		secondaryNames: flattenSecondaries(catalog.Files(), in.SecondaryFileNames),
		origin:         in.OriginEventID(),
		eventsToSkip:   in.SkipEvents,
		firstFile:      true,
	}

	s.duplicates = NewDuplicateChecker(in.DuplicateCheck(), s.logger)

	for s.current == noFile && catalog.GetNextFile() {
		if err := s.initFile(in.SkipBadFiles); err != nil {
			_ = s.arena.closeAll()
			return nil, err
		}
	}
	if s.current == noFile {
		return s, nil
	}

	if in.SetRunNumber != nil {
		offset, err := s.currentFile().SetForcedRunOffset(*in.SetRunNumber)
		if err != nil {
			_ = s.arena.closeAll()
			if errs.Is(err, errs.InvalidNumber) {
				return nil, errs.New(errs.Configuration, "source", "setRunNumber %d is not a valid run number", *in.SetRunNumber)
			}

			return nil, err
		}
		if offset < 0 {
			_ = s.arena.closeAll()
			return nil, errs.New(errs.Configuration, "source",
				"setRunNumber %d must not be less than the first run %d of the first input file",
				*in.SetRunNumber, int64(*in.SetRunNumber)-offset)
		}
		s.forcedRunOffset = offset
	}
	if !in.ReadParameterSets {
		s.logger.Warn("readParameterSets is false: parameter set provenance will not be available to later jobs")
	}
	if in.CompactEventRanges {
		s.logger.Warn("compactEventRanges is true: concatenating files whose subruns span several inputs may fail")
	}

	return s, nil
}

// flattenSecondaries expands the secondary-file declarations of every
// primary into one depth-first list. A secondary may declare secondaries
// of its own; they follow it directly.
func flattenSecondaries(primaries []string, decls []config.SecondaryFiles) [][]string {
	byName := make(map[string][]string, len(decls))
	for _, d := range decls {
		byName[d.A] = d.B
	}

	out := make([][]string, len(primaries))
	for i, primary := range primaries {
		var names []string
		stack := [][]string{byName[primary]}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(top) == 0 {
				continue
			}
			name := top[0]
			names = append(names, name)
			stack = append(stack, top[1:])
			if sub := byName[name]; len(sub) > 0 {
				stack = append(stack, sub)
			}
		}
		out[i] = names
	}

	return out
}

// fileOptions returns the options for a primary or secondary file.
func (s *Sequence) fileOptions(primary bool) []FileOption {
	opts := append([]FileOption{}, s.userOps...)
	opts = append(opts,
		WithOrigin(s.origin),
		WithNoEventSort(s.in.NoEventSort),
		WithCompactRanges(s.in.CompactEventRanges),
		WithSaveMemoryObjectThreshold(s.in.SaveMemoryObjectThreshold),
		WithDelayedRead(format.InEvent, s.in.DelayedReadEventProducts),
		WithDelayedRead(format.InSubRun, s.in.DelayedReadSubRunProducts),
		WithDelayedRead(format.InRun, s.in.DelayedReadRunProducts),
		WithProcessingLimits(s.limits),
		WithSelectorRules(s.rules, s.in.DropDescendantsOfDroppedBranches),
		WithReadParameterSets(s.in.ReadParameterSets),
		WithForcedRunOffset(s.forcedRunOffset),
		WithRegistries(s.base.psets, s.base.histories, s.base.parentages),
	)
	if !primary {
		return opts
	}
	opts = append(opts, WithEventsToSkip(s.eventsToSkip), WithDuplicateChecker(s.duplicates))
	if idx := s.catalog.CurrentIndex(); idx != IndexEnd && len(s.secondaryNames[idx]) > 0 {
		opts = append(opts, WithSecondaryReader(s.nextSecondaryPrincipal))
	}

	return opts
}

// initFile closes the current file and opens the current catalog entry.
// With skipBadFiles, a file that cannot be opened is logged and skipped,
// leaving no current file.
func (s *Sequence) initFile(skipBadFiles bool) error {
	if err := s.closeFile(); err != nil {
		return err
	}
	name := s.catalog.CurrentFile()
	s.logger.Info("opening input file", "file", name)

	f, err := Open(name, s.fileOptions(true)...)
	if err != nil {
		if errs.Is(err, errs.FileOpenError) && skipBadFiles {
			s.logger.Warn("input file was not found or could not be opened, skipping", "file", name, "error", err)
			return nil
		}

		return err
	}
	s.logger.Info("opened input file", "file", name)

	s.current = s.arena.add(f)
	s.secondaries = make([]fileHandle, len(s.secondaryNames[s.catalog.CurrentIndex()]))
	s.fileIndexes[s.catalog.CurrentIndex()] = f.FileIndex()

	return nil
}

func (s *Sequence) currentFile() *File {
	return s.arena.get(s.current)
}

// CurrentFile returns the open primary file, or nil.
func (s *Sequence) CurrentFile() *File {
	return s.currentFile()
}

// ParameterSets returns the parameter sets imported from every opened file.
func (s *Sequence) ParameterSets() *pset.Registry { return s.base.psets }

// ProcessHistories returns the process histories of every opened file.
func (s *Sequence) ProcessHistories() *product.ProcessHistoryRegistry { return s.base.histories }

// Parentages returns the parentage records of every opened file.
func (s *Sequence) Parentages() *product.ParentageRegistry { return s.base.parentages }

// Limits returns the processing limits.
func (s *Sequence) Limits() *ProcessingLimits { return s.limits }

// secondaryFile returns secondary idx of the current primary, opening it
// on first use.
func (s *Sequence) secondaryFile(idx int) (*File, error) {
	if f := s.arena.get(s.secondaries[idx]); f != nil {
		return f, nil
	}
	name := s.secondaryNames[s.catalog.CurrentIndex()][idx]
	s.logger.Info("opening secondary input file", "file", name)
	f, err := Open(name, s.fileOptions(false)...)
	if err != nil {
		return nil, errs.Wrap(errs.FileOpenError, "open secondary "+name, err)
	}
	s.secondaries[idx] = s.arena.add(f)

	return f, nil
}

func (s *Sequence) readFromSecondaryFile(idx int, bt format.BranchType, id ids.EventID) (*principal.Principal, error) {
	f, err := s.secondaryFile(idx)
	if err != nil {
		return nil, err
	}
	switch bt {
	case format.InEvent:
		return f.ReadEventWithID(id)
	case format.InSubRun:
		return f.ReadSubRunWithID(id.SubRunID(), false)
	case format.InRun:
		return f.ReadRunWithID(id.RunID(), false)
	default:
		return nil, errs.New(errs.LogicError, "read secondary", "unsupported record kind %s", bt)
	}
}

// nextSecondaryPrincipal is the SecondaryReader of the current primary.
func (s *Sequence) nextSecondaryPrincipal(idx *int, bt format.BranchType, id ids.EventID) (*principal.Principal, error) {
	for *idx < len(s.secondaries) {
		p, err := s.readFromSecondaryFile(*idx, bt, id)
		*idx++
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}

	return nil, nil
}

// closeFile closes the current primary and its secondaries. Skipped-event
// accounting carries over to the next file.
func (s *Sequence) closeFile() error {
	if s.pendingClose {
		s.catalog.Finish()
		s.pendingClose = false
	}
	f := s.currentFile()
	if f == nil {
		return nil
	}
	s.eventsToSkip = f.EventsToSkip()

	var merr error
	for i, h := range s.secondaries {
		if err := s.arena.release(h); err != nil {
			merr = errs.Append(merr, err)
		}
		s.secondaries[i] = noFile
	}
	if err := s.arena.release(s.current); err != nil {
		merr = errs.Append(merr, err)
	}
	s.logger.Info("closed input file", "file", f.Name())
	s.current = noFile
	s.duplicates.InputFileClosed()

	if merr != nil {
		return errs.Wrap(errs.FatalRootError, "close input file", merr)
	}

	return nil
}

// CloseFile closes the current primary file.
func (s *Sequence) CloseFile() error {
	return s.closeFile()
}

// Finish marks the catalog exhausted once the current file closes.
func (s *Sequence) Finish() {
	s.pendingClose = true
}

// EndJob closes every file still open.
func (s *Sequence) EndJob() error {
	err := s.closeFile()
	s.lastRead = noFile
	if cerr := s.arena.closeAll(); cerr != nil {
		err = errs.ErrorOrNil(errs.Append(err, cerr))
	}

	return err
}

// ReadFile returns the block of the current file, opening the next
// readable catalog entry when no file is open. It returns nil when the
// catalog is exhausted.
func (s *Sequence) ReadFile() (*FileBlock, error) {
	if f := s.currentFile(); f != nil {
		return f.ReadFile(), nil
	}
	for s.catalog.GetNextFile() {
		if err := s.initFile(s.in.SkipBadFiles); err != nil {
			return nil, err
		}
		if f := s.currentFile(); f != nil {
			return f.ReadFile(), nil
		}
	}

	return nil, nil
}

// GetNextItemType returns the kind of the next wanted item. The first call
// always reports a file.
func (s *Sequence) GetNextItemType() ItemType {
	if s.firstFile {
		s.firstFile = false
		return IsFile
	}
	if f := s.currentFile(); f != nil {
		switch f.GetNextEntryTypeWanted() {
		case fileindex.KEvent:
			return IsEvent
		case fileindex.KSubRun:
			return IsSubRun
		case fileindex.KRun:
			return IsRun
		case fileindex.KEnd:
		}
	}
	if !s.catalog.HasNextFile() {
		s.Finish()
		return IsStop
	}

	return IsFile
}

// setLastRead records the file of the last delivered event.
func (s *Sequence) setLastRead(h fileHandle) {
	if h == s.lastRead {
		return
	}
	prev := s.lastRead
	s.lastRead = s.arena.acquire(h)
	_ = s.arena.release(prev)
}

// ReadEvent reads the event at the cursor of the current file.
func (s *Sequence) ReadEvent() (*principal.Principal, error) {
	f := s.currentFile()
	if f == nil {
		return nil, errs.New(errs.LogicError, "read event", "no input file is open")
	}
	s.setLastRead(s.current)

	return f.ReadEvent()
}

// ReadSubRun reads the subrun at the cursor of the current file.
func (s *Sequence) ReadSubRun() (*principal.Principal, error) {
	f := s.currentFile()
	if f == nil {
		return nil, errs.New(errs.LogicError, "read subrun", "no input file is open")
	}

	return f.ReadSubRun()
}

// ReadRun reads the run at the cursor of the current file.
func (s *Sequence) ReadRun() (*principal.Principal, error) {
	f := s.currentFile()
	if f == nil {
		return nil, errs.New(errs.LogicError, "read run", "no input file is open")
	}

	return f.ReadRun()
}

// ReadResults reads the results record of the current file.
func (s *Sequence) ReadResults() (*principal.Principal, error) {
	f := s.currentFile()
	if f == nil {
		return nil, errs.New(errs.LogicError, "read results", "no input file is open")
	}

	return f.ReadResults()
}

// findInOtherFiles reopens the first cached file whose index holds id, or
// else opens catalog files in order until one holds it. The cursor of the
// file found is left on id.
func (s *Sequence) findInOtherFiles(id ids.EventID, exact bool) (bool, error) {
	if !s.catalog.IsSearchable() {
		return false, nil
	}
	for i, fi := range s.fileIndexes {
		if fi == nil || !fi.Contains(id, exact) {
			continue
		}
		s.catalog.RewindTo(i)
		if err := s.initFile(false); err != nil {
			return false, err
		}

		return s.currentFile().SetEntry(id, exact), nil
	}
	for s.catalog.GetNextFile() {
		if err := s.initFile(false); err != nil {
			return false, err
		}
		if s.currentFile().SetEntry(id, exact) {
			return true, nil
		}
	}

	return false, nil
}

// SeekToEvent positions the sequence on event id, searching the current
// file, then files opened before, then files not opened yet.
//
// Returns:
//   - ids.EventID: The event found, or an invalid ID when no file holds id
//   - error: Failures to open files on the way
func (s *Sequence) SeekToEvent(id ids.EventID, exact bool) (ids.EventID, error) {
	if f := s.currentFile(); f != nil && f.SetEntry(id, true) {
		return f.EventIDForFileIndexPosition(), nil
	}
	found, err := s.findInOtherFiles(id, exact)
	if err != nil || !found {
		return ids.InvalidID(), err
	}

	return s.currentFile().EventIDForFileIndexPosition(), nil
}

// SeekToEventOffset moves offset events forward or backward across files.
func (s *Sequence) SeekToEventOffset(offset int) (ids.EventID, error) {
	if err := s.skip(offset); err != nil {
		return ids.InvalidID(), err
	}
	f := s.currentFile()
	if f == nil {
		return ids.InvalidID(), nil
	}

	return f.EventIDForFileIndexPosition(), nil
}

// readIt positions the sequence on a run, subrun or event for a seek in
// progress. A record not found anywhere leaves the sequence where the
// search ended.
func (s *Sequence) readIt(id ids.EventID, exact bool) error {
	f := s.currentFile()
	if f == nil {
		return errs.New(errs.LogicError, "seek", "no input file is open")
	}
	if !id.IsValid() {
		exact = true
	}
	if f.SetEntry(id, exact) {
		if id.IsValid() {
			s.setLastRead(s.current)
		}

		return nil
	}
	found, err := s.findInOtherFiles(id, exact)
	if err != nil {
		return err
	}
	if found && id.IsValid() {
		s.setLastRead(s.current)
	}

	return nil
}

// skip moves offset events across files. It stops at the first event of
// the first file or past the last event of the last file.
func (s *Sequence) skip(offset int) error {
	for offset != 0 {
		f := s.currentFile()
		if f == nil {
			return nil
		}
		offset = f.SkipEvents(offset)
		switch {
		case offset > 0:
			ok, err := s.nextFile()
			if err != nil || !ok {
				return err
			}
		case offset < 0:
			ok, err := s.previousFile()
			if err != nil {
				return err
			}
			if !ok {
				f.fiIter = 0
				f.SkipEvents(0)

				return nil
			}
		}
	}
	if f := s.currentFile(); f != nil {
		f.SkipEvents(0)
	}

	return nil
}

func (s *Sequence) nextFile() (bool, error) {
	if !s.catalog.GetNextFile() {
		return false, nil
	}
	if err := s.initFile(s.in.SkipBadFiles); err != nil {
		return false, err
	}

	return s.current != noFile, nil
}

func (s *Sequence) previousFile() (bool, error) {
	idx := s.catalog.CurrentIndex()
	if !s.catalog.IsSearchable() || idx == IndexEnd || idx == 0 {
		return false, nil
	}
	s.catalog.RewindTo(idx - 1)
	if err := s.initFile(false); err != nil {
		return false, err
	}
	s.currentFile().SetToLastEntry()

	return true, nil
}

// switchedFile reports whether the current file differs from the file of
// the last delivered event.
func (s *Sequence) switchedFile() bool {
	return s.current != s.lastRead
}
