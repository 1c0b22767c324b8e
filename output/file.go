// Package output writes event-data files: the per-record-kind trees with
// dummy substitution, range-set persistence through the side-store, the
// fast-cloning path and the file-level metadata written at close.
package output

import (
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/artio/columnar"
	"github.com/arloliu/artio/config"
	"github.com/arloliu/artio/encoding"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/fileindex"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/internal/options"
	"github.com/arloliu/artio/principal"
	"github.com/arloliu/artio/product"
	"github.com/arloliu/artio/rangeset"
	"github.com/arloliu/artio/selector"
	"github.com/arloliu/artio/sidestore"
)

var errNilClock = errors.New("output: nil clock")

// CloneSource is the input file an output file may fast clone from.
type CloneSource interface {
	FileName() string
	FormatVersion() format.FileFormatVersion
	EventTree() *columnar.TreeReader
}

// File is one output file being written.
//
// All methods are safe for concurrent use; writes are serialized.
type File struct {
	mu sync.Mutex

	out    config.Output
	cfg    *fileConfig
	logger *slog.Logger
	name   string
	guid   string
	comp   format.CompressionType

	w             *columnar.Writer
	meta          *columnar.TreeWriter
	fileIndexTree *columnar.TreeWriter
	parentageTree *columnar.TreeWriter
	trees         [format.NumBranchTypes]*outputTree
	store         *sidestore.Store

	fileIndex *fileindex.FileIndex
	rules     *selector.Rules
	dropMode  config.DropMetaData
	dummies   *DummyCache
	toPersist [format.NumBranchTypes]map[product.ID]product.BranchDescription

	criteria       ClosingCriteria
	props          FileProperties
	stats          *fileStats
	openedAt       time.Time
	eventEntry     fileindex.EntryNumber
	subRunEntry    fileindex.EntryNumber
	runEntry       fileindex.EntryNumber
	fastCloneAtNew bool
	wasFastCloned  bool
	closed         bool
}

// Create opens a new output file at out.FileName.
//
// Parameters:
//   - out: Output configuration
//   - opts: Writer options
//
// Returns:
//   - *File: The open file; Close must be called to make it readable
//   - error: Configuration for bad settings, FatalRootError when the
//     container or the side-store cannot be created
func Create(out config.Output, opts ...Option) (*File, error) {
	cfg := newFileConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, errs.Wrap(errs.Configuration, "output", err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	if out.FileName == "" {
		return nil, errs.New(errs.Configuration, "output", "fileName must be set")
	}
	rules, err := selector.ParseRules(out.OutputCommands, "outputCommands")
	if err != nil {
		return nil, err
	}
	comp, err := out.CompressionType()
	if err != nil {
		return nil, err
	}

	w, err := columnar.Create(out.FileName,
		columnar.WithTreeMaxVirtualSize(out.TreeMaxVirtualSize),
		columnar.WithDirectoryCompression(comp),
	)
	if err != nil {
		return nil, errs.Wrap(errs.FatalRootError, "create "+out.FileName, err)
	}

	f := &File{
		out:       out,
		cfg:       cfg,
		logger:    cfg.logger.With("file", out.FileName),
		name:      out.FileName,
		guid:      uuid.NewString(),
		comp:      comp,
		w:         w,
		fileIndex: fileindex.New(),
		rules:     rules,
		dropMode:  out.DropMode(),
		dummies:   NewDummyCache(cfg.types),
		criteria:  NewClosingCriteria(&out),
		openedAt:  cfg.now(),
	}
	f.stats = newFileStats(f.openedAt)
	f.fastCloneAtNew = ShouldFastClone(out.FastCloning, len(out.SelectEvents) == 0, f.criteria, f.logger)

	if err := f.init(); err != nil {
		_ = w.Close()
		return nil, err
	}

	return f, nil
}

func (f *File) init() error {
	f.meta = f.w.Tree(format.MetaDataTreeName)
	f.fileIndexTree = f.w.Tree(format.FileIndexTreeName)
	f.parentageTree = f.w.Tree(format.ParentageTreeName)

	settings := f.branchSettings("")
	for _, bt := range format.BranchTypes {
		t, err := newOutputTree(f.w, bt, settings, f.out.SaveMemoryObjectThreshold)
		if err != nil {
			return err
		}
		f.trees[bt] = t
		f.toPersist[bt] = make(map[product.ID]product.BranchDescription)
	}

	store, err := sidestore.Create(f.cfg.tempDir)
	if err != nil {
		return errs.Wrap(errs.FatalRootError, "create side-store", err)
	}
	f.store = store

	return nil
}

func (f *File) branchSettings(typeName string) columnar.BranchSettings {
	return columnar.BranchSettings{
		TypeName:    typeName,
		SplitLevel:  f.out.SplitLevel,
		BasketSize:  f.out.BasketSize,
		Compression: f.comp,
	}
}

// Name returns the path of the file.
func (f *File) Name() string { return f.name }

// GUID returns the unique identifier recorded in the file catalog metadata.
func (f *File) GUID() string { return f.guid }

// Properties returns the running totals compared against the closing criteria.
func (f *File) Properties() FileProperties {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.props
}

// WasFastCloned reports whether the events of the current input file are
// being fast cloned.
func (f *File) WasFastCloned() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.wasFastCloned
}

// SelectProducts declares one branch per product of reg that the output
// rules keep. Results products are kept only when produced by this
// process, and transient products never.
func (f *File) SelectProducts(reg *product.Registry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.selectProductsLocked(reg)
}

func (f *File) selectProductsLocked(reg *product.Registry) error {
	if f.closed {
		return errs.Wrap(errs.LogicError, "select products", errs.ErrWriterClosed)
	}
	if reg == nil {
		return nil
	}
	for _, bt := range format.BranchTypes {
		for _, bd := range reg.Descriptions(bt) {
			if bt == format.InResults && !bd.Produced() {
				continue
			}
			if bd.Transient || bd.Validity == product.Dropped || !f.rules.Selected(bd) {
				continue
			}
			if err := f.trees[bt].addOutputBranch(bd, f.dummies); err != nil {
				return err
			}
		}
	}

	return nil
}

// BeginInputFile prepares the file for the records of a new input file:
// it selects the products of reg and decides whether to fast clone the
// event tree of src. fastCloneFromInput is the input side of that decision.
func (f *File) BeginInputFile(src CloneSource, reg *product.Registry, fastCloneFromInput bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.selectProductsLocked(reg); err != nil {
		return err
	}

	events := f.trees[format.InEvent]
	if src == nil {
		f.wasFastCloned = false
		_, err := events.beginInputFile(nil, false)

		return err
	}
	f.stats.recordInputFile(src.FileName())

	clone := f.fastCloneAtNew && fastCloneFromInput
	tree := src.EventTree()
	if clone && !events.checkSplitLevelAndBasketSize(tree) {
		f.logger.Warn("fast cloning deactivated for this input file due to splitting level and/or basket size",
			"input", src.FileName())
		clone = false
	}
	if clone && !src.FormatVersion().HasProductIDChecksums() {
		f.logger.Warn("fast cloning deactivated for this input file due to reading in file that has a different ProductID schema",
			"input", src.FileName(), "version", src.FormatVersion().String())
		clone = false
	}

	cloned, err := events.beginInputFile(tree, clone)
	if err != nil {
		return err
	}
	f.wasFastCloned = cloned
	if cloned {
		f.logger.Debug("fast cloning event tree", "input", src.FileName(), "uncloned", events.unclonedNames())
	}

	return nil
}

// IncrementInputFileNumber counts one more input file against the closing criteria.
func (f *File) IncrementInputFileNumber() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.props.InputFiles++
}

// RespondToCloseInputFile commits the records written while fast cloning.
func (f *File) RespondToCloseInputFile() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.commitLocked()
}

func (f *File) commitLocked() error {
	f.wasFastCloned = false
	var merr error
	for _, t := range f.trees {
		if err := t.setEntries(); err != nil {
			merr = errs.Append(merr, err)
		}
	}
	if merr != nil {
		return errs.Wrap(errs.FatalRootError, "close input file", merr)
	}

	return nil
}

// RequestsToCloseFile reports whether any closing criterion is reached.
func (f *File) RequestsToCloseFile() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.props.Size = f.w.BytesWritten()
	f.props.Age = f.cfg.now().Sub(f.openedAt)

	return f.criteria.ShouldClose(f.props)
}

// WriteEvent writes one event.
func (f *File) WriteEvent(p *principal.Principal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	aux, ok := p.Auxiliary().(principal.EventAuxiliary)
	if !ok {
		return errs.New(errs.LogicError, "write event", "principal holds a %s record", p.BranchType())
	}
	if err := f.writable("write event"); err != nil {
		return err
	}
	if err := f.fillBranches(p, aux); err != nil {
		return err
	}
	f.fileIndex.AddEntry(aux.ID, f.eventEntry)
	f.eventEntry++
	f.props.Events++
	f.stats.recordEvent(aux.ID)

	return nil
}

// WriteSubRun writes one subrun fragment. The range set the principal has
// seen, or else the one it was read with, is stored with its auxiliary.
func (f *File) WriteSubRun(p *principal.Principal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	aux, ok := p.Auxiliary().(principal.SubRunAuxiliary)
	if !ok {
		return errs.New(errs.LogicError, "write subrun", "principal holds a %s record", p.BranchType())
	}
	if err := f.writable("write subrun"); err != nil {
		return err
	}
	id, err := f.auxRangeSetID(format.InSubRun, principalRangeSet(p))
	if err != nil {
		return err
	}
	aux.RangeSetID = id
	if err := f.fillBranches(p, aux); err != nil {
		return err
	}
	f.fileIndex.AddEntry(aux.ID, f.subRunEntry)
	f.subRunEntry++
	f.props.SubRuns++
	f.stats.recordSubRun(aux.ID)

	return nil
}

// WriteRun writes one run fragment.
func (f *File) WriteRun(p *principal.Principal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	aux, ok := p.Auxiliary().(principal.RunAuxiliary)
	if !ok {
		return errs.New(errs.LogicError, "write run", "principal holds a %s record", p.BranchType())
	}
	if err := f.writable("write run"); err != nil {
		return err
	}
	id, err := f.auxRangeSetID(format.InRun, principalRangeSet(p))
	if err != nil {
		return err
	}
	aux.RangeSetID = id
	if err := f.fillBranches(p, aux); err != nil {
		return err
	}
	f.fileIndex.AddEntry(aux.ID, f.runEntry)
	f.runEntry++
	f.props.Runs++

	return nil
}

// WriteResults writes the results record.
func (f *File) WriteResults(p *principal.Principal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	aux, ok := p.Auxiliary().(principal.ResultsAuxiliary)
	if !ok {
		return errs.New(errs.LogicError, "write results", "principal holds a %s record", p.BranchType())
	}
	if err := f.writable("write results"); err != nil {
		return err
	}

	return f.fillBranches(p, aux)
}

func (f *File) writable(op string) error {
	if f.closed {
		return errs.Wrap(errs.LogicError, op, errs.ErrWriterClosed)
	}

	return nil
}

// principalRangeSet is the range a run or subrun principal has seen, or
// else the one it was read with.
func principalRangeSet(p *principal.Principal) rangeset.RangeSet {
	if rs := p.SeenRanges(); rs.IsValid() {
		return rs
	}

	return p.RangeSet()
}

func (f *File) auxRangeSetID(bt format.BranchType, rs rangeset.RangeSet) (uint32, error) {
	if !rs.IsValid() {
		return rangeset.InvalidID, nil
	}
	if f.out.CompactRangeSets {
		rs.Collapse()
	}
	id, err := f.store.InsertRangeSet(bt, rs)
	if err != nil {
		return rangeset.InvalidID, errs.Wrap(errs.FatalRootError, "store "+bt.String()+" range set", err)
	}

	return id, nil
}

// fillBranches resolves every selected product of p, substitutes dummies
// where needed, records the provenance kept by the DropMetaData mode and
// writes the record.
func (f *File) fillBranches(p *principal.Principal, aux any) error {
	bt := p.BranchType()
	t := f.trees[bt]
	fastCloning := bt == format.InEvent && f.wasFastCloned
	principalRS := principalRangeSet(p)
	checksumToIndex := make(map[uint32]uint32)
	kept := make(map[product.ID]product.Provenance)
	payloads := make([][]byte, len(t.items))

	for i, item := range t.items {
		bd := item.desc
		pid := bd.ProductID
		f.toPersist[bt][pid] = bd
		produced := bd.Produced()
		resolve := produced || !fastCloning || t.isUncloned(bd.BranchName())
		keep := f.dropMode == config.DropNone || (produced && f.dropMode == config.DropPrior)

		h, _, err := p.GetForOutput(pid, resolve)
		if err != nil {
			return err
		}
		if keep {
			if h.Provenance != nil {
				kept[pid] = *h.Provenance
				if f.dropMode != config.DropAll && !f.out.DropMetaDataForDroppedData {
					if err := f.keepParents(p, bt, *h.Provenance, kept); err != nil {
						return err
					}
				}
			} else {
				status := product.StatusDropped
				if produced {
					status = product.StatusNeverCreated
				}
				kept[pid] = product.NewProvenance(pid, status)
			}
		}
		if !resolve {
			continue
		}

		rs := rangeSetForOutput(bt, h, principalRS, produced)
		if bt.SupportsRangeSets() && !rs.IsValid() && keep {
			kept[pid] = product.NewProvenance(pid, product.StatusDummyToPreventDoubleCount)
		}
		payload, err := f.encodeProduct(bt, bd, h, rs, checksumToIndex)
		if err != nil {
			return err
		}
		payloads[i] = payload
	}

	provs := slices.Collect(maps.Values(kept))
	product.SortProvenance(provs)
	for _, prov := range provs {
		if prov.Status == product.StatusUninitialized {
			return errs.New(errs.LogicError, "fill "+bt.TreeName(),
				"attempt to write a product with uninitialized provenance: %s", prov.ProductID)
		}
	}

	return t.fill(aux, provs, payloads)
}

// keepParents walks the parentage of prov and keeps the provenance of every
// ancestor produced in this process. Ancestor descriptions are persisted
// even when the ancestor itself was not selected.
func (f *File) keepParents(p *principal.Principal, bt format.BranchType, prov product.Provenance, kept map[product.ID]product.Provenance) error {
	stack := []product.Provenance{prov}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.ParentageID.IsZero() {
			continue
		}
		parentage, ok := f.cfg.parentages.Get(cur.ParentageID)
		if !ok {
			continue
		}
		for _, parent := range parentage.Parents {
			pbd, ok := p.ProductDescription(parent)
			if !ok {
				continue
			}
			f.toPersist[bt][parent] = pbd
			if !pbd.Produced() {
				continue
			}
			pp, ok, err := p.BranchToProductProvenance(parent)
			if err != nil {
				return err
			}
			if !ok || f.dropMode != config.DropNone {
				continue
			}
			if _, seen := kept[parent]; seen {
				continue
			}
			kept[parent] = pp
			stack = append(stack, pp)
		}
	}

	return nil
}

// rangeSetForOutput returns the range set a run or subrun product is
// written with. Products read from input lose their range set when it does
// not start inside the range the principal has seen: the product was
// already counted in another output, and a dummy is written instead.
// Products made by this process keep whatever range set they were put with.
func rangeSetForOutput(bt format.BranchType, h principal.Handle, principalRS rangeset.RangeSet, produced bool) rangeset.RangeSet {
	if !bt.SupportsRangeSets() {
		return rangeset.Invalid()
	}
	rs := rangeset.Invalid()
	if h.IsValid() {
		rs = h.RangeOfValidity()
	}
	if !produced {
		maybeInvalidateRangeSet(bt, principalRS, &rs)
	}

	return rs
}

func maybeInvalidateRangeSet(bt format.BranchType, principalRS rangeset.RangeSet, rs *rangeset.RangeSet) {
	switch {
	case !rs.IsValid():
		return
	case bt == format.InRun && rs.IsFullRun():
		return
	case bt == format.InSubRun && rs.IsFullSubRun():
		return
	case rs.Len() == 0:
		return
	}
	front := rs.Front()
	if !principalRS.Contains(rs.Run(), front.SubRun, front.Begin) {
		*rs = rangeset.Invalid()
	}
}

// encodeProduct serializes the product of h, or the dummy of its type when
// h holds nothing writable. A run or subrun product gets the ID of its
// stored range set; identical sets within one record are stored once.
func (f *File) encodeProduct(bt format.BranchType, bd product.BranchDescription, h principal.Handle, rs rangeset.RangeSet, checksumToIndex map[uint32]uint32) ([]byte, error) {
	if !h.IsValid() || (bt.SupportsRangeSets() && !rs.IsValid()) {
		return f.dummies.Encoded(bd.TypeName)
	}
	codec, err := f.dummies.codec(bd.TypeName)
	if err != nil {
		return nil, err
	}

	w := *h.Wrapper
	w.RangeSetID = rangeset.InvalidID
	if bt.SupportsRangeSets() {
		if f.out.CompactRangeSets {
			rs.Collapse()
		}
		sum := rs.Checksum()
		id, ok := checksumToIndex[sum]
		if !ok {
			id, err = f.store.InsertRangeSet(bt, rs)
			if err != nil {
				return nil, errs.Wrap(errs.FatalRootError, "store range set of "+bd.BranchName(), err)
			}
			checksumToIndex[sum] = id
		}
		w.RangeSetID = id
	}

	data, err := product.EncodeWrapper(codec, &w)
	if err != nil {
		return nil, errs.Wrap(errs.LogicError, "encode "+bd.BranchName(), err)
	}

	return data, nil
}

// Close commits pending records, writes the file-level metadata and the
// side-store, and closes the container. It is safe to call more than once.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}

	err := f.finish()
	f.closed = true
	if err != nil {
		merr := errs.Append(err, f.store.Close(), f.w.Close())
		return errs.Wrap(errs.FatalRootError, "close "+f.name, errs.ErrorOrNil(merr))
	}
	f.logger.Debug("closed output file", "events", f.props.Events, "bytes", f.w.BytesWritten())

	return nil
}

func (f *File) finish() error {
	if err := f.commitLocked(); err != nil {
		return err
	}
	if err := f.writeMetaRecord(format.FileFormatVersionBranch, format.CurrentFileFormatVersion()); err != nil {
		return err
	}
	if err := f.writeFileIndex(); err != nil {
		return err
	}
	if err := f.writeMetaRecord(format.ProcessHistoryMapBranch, f.cfg.histories.Histories()); err != nil {
		return err
	}
	blobs, err := f.cfg.psets.Blobs()
	if err != nil {
		return errs.Wrap(errs.LogicError, "parameter sets", err)
	}
	if err := f.store.WriteParameterSets(blobs); err != nil {
		return err
	}

	descs := f.descriptionsToPersist()
	if err := f.writeMetaRecord(format.ProductRegistryBranch, descs); err != nil {
		return err
	}
	if err := f.writeParentage(); err != nil {
		return err
	}
	if err := f.writeMetaRecord(format.BranchIDListsBranch, branchIDLists(descs)); err != nil {
		return err
	}
	if err := f.writeMetaRecord(format.ProductDependenciesBranch, f.cfg.dependencies); err != nil {
		return err
	}

	md := f.stats.catalogMetadata(f.guid, f.cfg.processName, f.cfg.now(), f.cfg.metadata, f.cfg.streamMetadata)
	if err := f.store.WriteFileCatalogMetadata(md); err != nil {
		return err
	}
	if err := f.meta.Fill(); err != nil {
		return errs.Wrap(errs.FatalRootError, "fill "+format.MetaDataTreeName, err)
	}

	image, err := f.store.Image()
	if err != nil {
		return errs.Wrap(errs.FatalRootError, "side-store image", err)
	}
	if err := f.w.PutBlob(format.SideStoreBlobName, image, f.comp); err != nil {
		return errs.Wrap(errs.FatalRootError, "embed side-store", err)
	}

	return f.w.Close()
}

func (f *File) writeMetaRecord(branch string, v any) error {
	op := "write " + branch
	data, err := encoding.MarshalRecord(v)
	if err != nil {
		return errs.Wrap(errs.LogicError, op, err)
	}
	br, err := f.meta.Branch(branch, f.branchSettings(branch))
	if err != nil {
		return errs.Wrap(errs.FatalRootError, op, err)
	}
	if err := br.Fill(data); err != nil {
		return errs.Wrap(errs.FatalRootError, op, err)
	}

	return nil
}

func (f *File) writeFileIndex() error {
	f.fileIndex.SortByRunSubRunEvent()
	br, err := f.fileIndexTree.Branch(format.FileIndexBranch, f.branchSettings("FileIndex::Element"))
	if err != nil {
		return errs.Wrap(errs.FatalRootError, "write file index", err)
	}
	for _, el := range f.fileIndex.Elements() {
		data, err := encoding.MarshalRecord(el)
		if err != nil {
			return errs.Wrap(errs.LogicError, "write file index", err)
		}
		if err := br.Fill(data); err != nil {
			return errs.Wrap(errs.FatalRootError, "write file index", err)
		}
		if err := f.fileIndexTree.Fill(); err != nil {
			return errs.Wrap(errs.FatalRootError, "write file index", err)
		}
	}

	return nil
}

func (f *File) writeParentage() error {
	hashes, err := f.parentageTree.Branch(format.ParentageHashBranch, f.branchSettings("ParentageID"))
	if err != nil {
		return errs.Wrap(errs.FatalRootError, "write parentage", err)
	}
	descs, err := f.parentageTree.Branch(format.ParentageDescBranch, f.branchSettings("Parentage"))
	if err != nil {
		return errs.Wrap(errs.FatalRootError, "write parentage", err)
	}

	for _, id := range f.cfg.parentages.IDs() {
		p, _ := f.cfg.parentages.Get(id)
		hash, err := encoding.MarshalRecord(id)
		if err != nil {
			return errs.Wrap(errs.LogicError, "write parentage", err)
		}
		desc, err := encoding.MarshalRecord(p)
		if err != nil {
			return errs.Wrap(errs.LogicError, "write parentage", err)
		}
		if err := hashes.Fill(hash); err != nil {
			return errs.Wrap(errs.FatalRootError, "write parentage", err)
		}
		if err := descs.Fill(desc); err != nil {
			return errs.Wrap(errs.FatalRootError, "write parentage", err)
		}
		if err := f.parentageTree.Fill(); err != nil {
			return errs.Wrap(errs.FatalRootError, "write parentage", err)
		}
	}

	return nil
}

// descriptionsToPersist returns the descriptions of every product written
// or referenced as a parent, in branch-type then branch-name order.
func (f *File) descriptionsToPersist() []product.BranchDescription {
	var out []product.BranchDescription
	for _, bt := range format.BranchTypes {
		descs := slices.Collect(maps.Values(f.toPersist[bt]))
		slices.SortFunc(descs, func(a, b product.BranchDescription) int {
			switch an, bn := a.BranchName(), b.BranchName(); {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		})
		out = append(out, descs...)
	}

	return out
}

// branchIDLists groups the product IDs of descs by process, one sorted
// list per process in order of first appearance.
func branchIDLists(descs []product.BranchDescription) [][]product.ID {
	var processes []string
	byProcess := make(map[string][]product.ID)
	for _, bd := range descs {
		if _, ok := byProcess[bd.ProcessName]; !ok {
			processes = append(processes, bd.ProcessName)
		}
		byProcess[bd.ProcessName] = append(byProcess[bd.ProcessName], bd.ProductID)
	}

	out := make([][]product.ID, 0, len(processes))
	for _, proc := range processes {
		list := byProcess[proc]
		slices.Sort(list)
		out = append(out, list)
	}

	return out
}
