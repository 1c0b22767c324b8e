package input

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/artio/columnar"
	"github.com/arloliu/artio/config"
	"github.com/arloliu/artio/encoding"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/fileindex"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/ids"
	"github.com/arloliu/artio/output"
	"github.com/arloliu/artio/principal"
	"github.com/arloliu/artio/product"
	"github.com/arloliu/artio/rangeset"
)

type counter struct {
	N int `cbor:"1,keyasint"`
}

// fixture writes small input files with one product per record kind.
type fixture struct {
	t     *testing.T
	dir   string
	types *product.Types
	hits  product.BranchDescription
	tally product.BranchDescription
	total product.BranchDescription
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	types, err := product.NewTypes(product.NewType[counter]("counter", func(dst, src *counter) error {
		dst.N += src.N
		return nil
	}))
	require.NoError(t, err)

	return &fixture{
		t:     t,
		dir:   t.TempDir(),
		types: types,
		hits:  mustDesc(t, format.InEvent, "hits", "sim"),
		tally: mustDesc(t, format.InSubRun, "tally", "sim"),
		total: mustDesc(t, format.InRun, "total", "sim"),
	}
}

func mustDesc(t *testing.T, bt format.BranchType, label, process string) product.BranchDescription {
	t.Helper()
	bd, err := product.NewBranchDescription(bt, "counter", label, "", process)
	require.NoError(t, err)

	return bd
}

func registry(t *testing.T, descs ...product.BranchDescription) *product.Registry {
	t.Helper()
	reg := product.NewRegistry()
	for _, bd := range descs {
		require.NoError(t, reg.Add(bd))
	}

	return reg
}

// item is one record written to a test file. A zero value puts no product.
type item struct {
	id    ids.EventID
	value int
	rs    rangeset.RangeSet
}

func event(r, s, e ids.Number, v int) item {
	return item{id: ids.New(r, s, e), value: v, rs: rangeset.Invalid()}
}

func subRun(r, s ids.Number, v int, rs rangeset.RangeSet) item {
	return item{id: ids.ForSubRun(r, s), value: v, rs: rs}
}

func run(r ids.Number, v int, rs rangeset.RangeSet) item {
	return item{id: ids.ForRun(r), value: v, rs: rs}
}

// events returns the run, the subrun and n events numbered from 1, with
// event values 10, 20 and so on.
func events(r, s ids.Number, n int) []item {
	covered := rangeset.FromRanges(r, rangeset.EventRange{SubRun: s, Begin: 1, End: ids.Number(n + 1)})
	items := []item{run(r, 1, covered), subRun(r, s, 2, covered)}
	for e := 1; e <= n; e++ {
		items = append(items, event(r, s, ids.Number(e), e*10))
	}

	return items
}

func (fx *fixture) write(name string, items ...item) string {
	fx.t.Helper()
	t := fx.t
	out := config.DefaultOutput()
	out.FileName = filepath.Join(fx.dir, name)
	f, err := output.Create(out,
		output.WithTypes(fx.types),
		output.WithTempDir(t.TempDir()),
		output.WithProcessName(fx.hits.ProcessName),
	)
	require.NoError(t, err)
	require.NoError(t, f.SelectProducts(registry(t, fx.hits, fx.tally, fx.total)))

	for _, it := range items {
		switch {
		case it.id.IsValid():
			aux := principal.EventAuxiliary{ID: it.id, Time: principal.Timestamp(1000 + uint64(it.id.Event))}
			p := principal.New(aux, nil, fx.types, nil)
			if it.value != 0 {
				require.NoError(t, p.Put(fx.hits, &counter{N: it.value}, rangeset.Invalid()))
			}
			require.NoError(t, f.WriteEvent(p))
		case it.id.IsSubRunValid():
			p := principal.New(principal.NewSubRunAuxiliary(it.id.Run, it.id.SubRun, 0), nil, fx.types, nil)
			p.SetRangeSet(it.rs)
			if it.value != 0 {
				require.NoError(t, p.Put(fx.tally, &counter{N: it.value}, rangeset.Invalid()))
			}
			require.NoError(t, f.WriteSubRun(p))
		default:
			p := principal.New(principal.NewRunAuxiliary(it.id.Run, 0), nil, fx.types, nil)
			p.SetRangeSet(it.rs)
			if it.value != 0 {
				require.NoError(t, p.Put(fx.total, &counter{N: it.value}, rangeset.Invalid()))
			}
			require.NoError(t, f.WriteRun(p))
		}
	}
	require.NoError(t, f.Close())

	return out.FileName
}

func (fx *fixture) options(opts ...FileOption) []FileOption {
	return append([]FileOption{WithTypes(fx.types), WithTempDir(fx.t.TempDir())}, opts...)
}

func (fx *fixture) open(path string, opts ...FileOption) *File {
	fx.t.Helper()
	f, err := Open(path, fx.options(opts...)...)
	require.NoError(fx.t, err)
	fx.t.Cleanup(func() { _ = f.Close() })

	return f
}

func valueOf(t *testing.T, p *principal.Principal, id product.ID) int {
	t.Helper()
	h, err := p.Get(id)
	require.NoError(t, err)
	require.True(t, h.IsValid())

	return h.Value().(*counter).N
}

// TestReadSequentially tests that walking a file yields every record once,
// in index order.
func TestReadSequentially(t *testing.T) {
	fx := newFixture(t)
	f := fx.open(fx.write("a.artio", events(1, 0, 3)...))

	var kinds []fileindex.EntryType
	var got []ids.EventID
	var values []int
	for {
		et := f.GetNextEntryTypeWanted()
		if et == fileindex.KEnd {
			break
		}
		kinds = append(kinds, et)

		var p *principal.Principal
		var err error
		switch et {
		case fileindex.KRun:
			p, err = f.ReadRun()
			require.NoError(t, err)
			values = append(values, valueOf(t, p, fx.total.ProductID))
		case fileindex.KSubRun:
			p, err = f.ReadSubRun()
			require.NoError(t, err)
			values = append(values, valueOf(t, p, fx.tally.ProductID))
		case fileindex.KEvent:
			p, err = f.ReadEvent()
			require.NoError(t, err)
			values = append(values, valueOf(t, p, fx.hits.ProductID))
		}
		got = append(got, p.ID())
	}

	assert.Equal(t, []fileindex.EntryType{fileindex.KRun, fileindex.KSubRun, fileindex.KEvent, fileindex.KEvent, fileindex.KEvent}, kinds)
	assert.Equal(t, []ids.EventID{ids.ForRun(1), ids.ForSubRun(1, 0), ids.New(1, 0, 1), ids.New(1, 0, 2), ids.New(1, 0, 3)}, got)
	assert.Equal(t, []int{1, 2, 10, 20, 30}, values)

	p, err := f.ReadEvent()
	require.NoError(t, err)
	assert.Nil(t, p)
}

// TestReadAuxiliaries tests the headers and range sets attached to read records.
func TestReadAuxiliaries(t *testing.T) {
	fx := newFixture(t)
	f := fx.open(fx.write("a.artio", events(3, 2, 2)...))

	r, err := f.ReadRun()
	require.NoError(t, err)
	runAux, ok := r.Auxiliary().(principal.RunAuxiliary)
	require.True(t, ok)
	assert.Equal(t, ids.ForRun(3), runAux.ID)
	assert.Equal(t, principal.Timestamp(1001), runAux.BeginTime, "begin time comes from the first event")
	assert.True(t, r.RangeSet().IsValid())

	sr, err := f.ReadSubRun()
	require.NoError(t, err)
	want := rangeset.FromRanges(3, rangeset.EventRange{SubRun: 2, Begin: 1, End: 3})
	assert.True(t, rangeset.Same(want, sr.RangeSet()))

	h, err := sr.Get(fx.tally.ProductID)
	require.NoError(t, err)
	assert.True(t, rangeset.Same(want, h.RangeOfValidity()))

	aux, err := f.EventAuxiliaryAt(1)
	require.NoError(t, err)
	assert.Equal(t, ids.New(3, 2, 2), aux.ID)
	assert.Equal(t, principal.Timestamp(1002), aux.Time)
}

// TestReadEventWithID tests random access within one file.
func TestReadEventWithID(t *testing.T) {
	fx := newFixture(t)
	f := fx.open(fx.write("a.artio", events(1, 0, 4)...))

	p, err := f.ReadEventWithID(ids.New(1, 0, 3))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, ids.New(1, 0, 3), p.ID())
	assert.Equal(t, 30, valueOf(t, p, fx.hits.ProductID))
	assert.Equal(t, ids.New(1, 0, 3), f.EventIDForFileIndexPosition(), "random reads do not advance")

	p, err = f.ReadEventWithID(ids.New(1, 0, 9))
	require.NoError(t, err)
	assert.Nil(t, p)

	sr, err := f.ReadSubRunWithID(ids.ForSubRun(1, 0), false)
	require.NoError(t, err)
	require.NotNil(t, sr)
	assert.Equal(t, ids.ForSubRun(1, 0), f.EventIDForFileIndexPosition())
}

// TestNeverCreatedProduct tests that a product the writer replaced by a
// dummy reads back as an invalid handle holding the type's zero value.
func TestNeverCreatedProduct(t *testing.T) {
	fx := newFixture(t)
	f := fx.open(fx.write("a.artio", run(1, 0, rangeset.ForRun(1)), event(1, 0, 1, 0)))

	p, err := f.ReadEventWithID(ids.New(1, 0, 1))
	require.NoError(t, err)
	h, err := p.Get(fx.hits.ProductID)
	require.NoError(t, err)
	assert.False(t, h.IsValid())
	assert.Equal(t, &counter{}, h.Value())
}

// TestAbsentBranch tests that a product described in the file without a
// column of its own is marked dropped and reads as a dummy.
func TestAbsentBranch(t *testing.T) {
	fx := newFixture(t)
	calib := mustDesc(t, format.InEvent, "calib", "sim")

	out := config.DefaultOutput()
	out.FileName = filepath.Join(fx.dir, "selected.artio")
	out.OutputCommands = []string{"keep *", "drop *_calib_*_*"}
	parentages := product.NewParentageRegistry()
	w, err := output.Create(out,
		output.WithTypes(fx.types),
		output.WithTempDir(t.TempDir()),
		output.WithRegistries(nil, nil, parentages),
	)
	require.NoError(t, err)
	require.NoError(t, w.SelectProducts(registry(t, fx.hits, calib)))
	p := principal.New(principal.EventAuxiliary{ID: ids.New(1, 0, 1)}, nil, fx.types, nil)
	p.SetParentageRegistry(parentages)
	require.NoError(t, p.Put(calib, &counter{N: 1}, rangeset.Invalid()))
	require.NoError(t, p.Put(fx.hits, &counter{N: 2}, rangeset.Invalid(), calib.ProductID))
	require.NoError(t, w.WriteEvent(p))
	require.NoError(t, w.WriteRun(principal.New(principal.NewRunAuxiliary(1, 0), nil, fx.types, nil)))
	require.NoError(t, w.Close())

	f := fx.open(out.FileName)
	bd, ok := f.Products().Get(calib.ProductID)
	require.True(t, ok)
	assert.Equal(t, product.Dropped, bd.Validity)

	ev, err := f.ReadEventWithID(ids.New(1, 0, 1))
	require.NoError(t, err)
	h, err := ev.Get(calib.ProductID)
	require.NoError(t, err)
	assert.False(t, h.IsValid())
	assert.Equal(t, &counter{}, h.Value())
	assert.Equal(t, 2, valueOf(t, ev, fx.hits.ProductID))
}

// TestOpenErrors tests the error category of every way a file can be unreadable.
func TestOpenErrors(t *testing.T) {
	fx := newFixture(t)

	t.Run("missing file", func(t *testing.T) {
		_, err := Open(filepath.Join(fx.dir, "nope.artio"), fx.options()...)
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.FileOpenError))
	})

	t.Run("empty file index", func(t *testing.T) {
		_, err := Open(fx.write("empty.artio"), fx.options()...)
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.FileReadError))
	})

	t.Run("other era", func(t *testing.T) {
		path := filepath.Join(fx.dir, "era.artio")
		w, err := columnar.Create(path)
		require.NoError(t, err)
		meta := w.Tree(format.MetaDataTreeName)
		br, err := meta.Branch(format.FileFormatVersionBranch, columnar.BranchSettings{TypeName: "FileFormatVersion"})
		require.NoError(t, err)
		data, err := encoding.MarshalRecord(format.FileFormatVersion{Era: "ART_2009", Value: 15})
		require.NoError(t, err)
		require.NoError(t, br.Fill(data))
		require.NoError(t, meta.Fill())
		fi := w.Tree(format.FileIndexTreeName)
		_, err = fi.Branch(format.FileIndexBranch, columnar.BranchSettings{TypeName: "FileIndex::Element"})
		require.NoError(t, err)
		require.NoError(t, w.Close())

		_, err = Open(path, fx.options()...)
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.FileReadError))
		assert.Contains(t, err.Error(), "ART_2009")
	})

	t.Run("other era with unreadable metadata", func(t *testing.T) {
		path := filepath.Join(fx.dir, "era-garbage.artio")
		w, err := columnar.Create(path)
		require.NoError(t, err)
		meta := w.Tree(format.MetaDataTreeName)
		br, err := meta.Branch(format.FileFormatVersionBranch, columnar.BranchSettings{TypeName: "FileFormatVersion"})
		require.NoError(t, err)
		lists, err := meta.Branch(format.BranchIDListsBranch, columnar.BranchSettings{TypeName: "BranchIDLists"})
		require.NoError(t, err)
		data, err := encoding.MarshalRecord(format.FileFormatVersion{Era: "ART_2009", Value: 15})
		require.NoError(t, err)
		require.NoError(t, br.Fill(data))
		require.NoError(t, lists.Fill([]byte{0xde, 0xad, 0xbe, 0xef}))
		require.NoError(t, meta.Fill())
		require.NoError(t, w.Close())

		_, err = Open(path, fx.options()...)
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.FileReadError))
		assert.False(t, errs.Is(err, errs.DataCorruption))
		assert.Contains(t, err.Error(), "ART_2009")
	})
}

// TestSkipEvents tests moving the cursor by a number of events.
func TestSkipEvents(t *testing.T) {
	fx := newFixture(t)
	f := fx.open(fx.write("a.artio", events(1, 0, 5)...))

	assert.Zero(t, f.SkipEvents(2))
	assert.Equal(t, ids.New(1, 0, 3), f.EventIDForFileIndexPosition())

	assert.Zero(t, f.SkipEvents(-1))
	assert.Equal(t, ids.New(1, 0, 2), f.EventIDForFileIndexPosition())

	assert.Equal(t, 6, f.SkipEvents(10))
	assert.Equal(t, fileindex.KEnd, f.GetEntryType())

	f.Rewind()
	assert.Equal(t, ids.ForRun(1), f.EventIDForFileIndexPosition())
}

// TestEventsToSkip tests that the wanted-entry walk consumes the skip count.
func TestEventsToSkip(t *testing.T) {
	fx := newFixture(t)
	f := fx.open(fx.write("a.artio", events(1, 0, 3)...), WithEventsToSkip(2))

	assert.Equal(t, fileindex.KRun, f.GetNextEntryTypeWanted())
	f.NextEntry()
	assert.Equal(t, fileindex.KSubRun, f.GetNextEntryTypeWanted())
	f.NextEntry()
	assert.Equal(t, fileindex.KEvent, f.GetNextEntryTypeWanted())
	assert.Equal(t, ids.New(1, 0, 3), f.EventIDForFileIndexPosition())
	assert.Zero(t, f.EventsToSkip())
}

// TestOriginSkipsEarlierRecords tests that records before the first wanted
// event are passed over.
func TestOriginSkipsEarlierRecords(t *testing.T) {
	fx := newFixture(t)
	items := append(events(1, 0, 2), events(2, 0, 2)...)
	f := fx.open(fx.write("a.artio", items...), WithOrigin(ids.New(2, 0, 2)))

	assert.Equal(t, fileindex.KRun, f.GetNextEntryTypeWanted())
	assert.Equal(t, ids.ForRun(2), f.EventIDForFileIndexPosition())
	f.NextEntry()
	f.NextEntry()
	assert.Equal(t, fileindex.KEvent, f.GetNextEntryTypeWanted())
	assert.Equal(t, ids.New(2, 0, 2), f.EventIDForFileIndexPosition())
}

// TestProcessingModeSkipsEvents tests that a runs-and-subruns job never
// stops on an event.
func TestProcessingModeSkipsEvents(t *testing.T) {
	fx := newFixture(t)
	items := []item{
		run(1, 1, rangeset.ForRun(1)),
		subRun(1, 0, 2, rangeset.ForSubRun(1, 0)),
		subRun(1, 1, 3, rangeset.ForSubRun(1, 1)),
		event(1, 0, 1, 10),
		event(1, 1, 1, 20),
	}
	limits := NewProcessingLimits(config.RunsAndSubRuns, -1, -1)
	f := fx.open(fx.write("a.artio", items...), WithProcessingLimits(limits))

	var kinds []fileindex.EntryType
	for et := f.GetNextEntryTypeWanted(); et != fileindex.KEnd; et = f.GetNextEntryTypeWanted() {
		kinds = append(kinds, et)
		f.NextEntry()
	}
	assert.Equal(t, []fileindex.EntryType{fileindex.KRun, fileindex.KSubRun, fileindex.KSubRun}, kinds)
	assert.False(t, f.FastClonable().Enabled())
}

// TestProcessingModeLastLegalNumbers tests that skipping past the largest
// valid run and subrun numbers terminates.
func TestProcessingModeLastLegalNumbers(t *testing.T) {
	fx := newFixture(t)
	last := ids.MaxValid
	items := []item{
		run(last-1, 1, rangeset.ForRun(last-1)),
		subRun(last-1, last, 2, rangeset.ForSubRun(last-1, last)),
		event(last-1, last, 1, 10),
		run(last, 3, rangeset.ForRun(last)),
		subRun(last, last, 4, rangeset.ForSubRun(last, last)),
		event(last, last, 1, 20),
	}
	path := fx.write("a.artio", items...)

	tests := []struct {
		name string
		mode config.ProcessingMode
		want []fileindex.EntryType
	}{
		{name: "runs", mode: config.Runs, want: []fileindex.EntryType{fileindex.KRun, fileindex.KRun}},
		{
			name: "runs and subruns",
			mode: config.RunsAndSubRuns,
			want: []fileindex.EntryType{fileindex.KRun, fileindex.KSubRun, fileindex.KRun, fileindex.KSubRun},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fx.open(path, WithProcessingLimits(NewProcessingLimits(tt.mode, -1, -1)))

			var kinds []fileindex.EntryType
			for et := f.GetNextEntryTypeWanted(); et != fileindex.KEnd; et = f.GetNextEntryTypeWanted() {
				require.Less(t, len(kinds), len(items), "cursor did not advance")
				kinds = append(kinds, et)
				f.NextEntry()
			}
			assert.Equal(t, tt.want, kinds)
		})
	}
}

// TestFastClonable tests the reasons a file cannot be fast cloned.
func TestFastClonable(t *testing.T) {
	fx := newFixture(t)
	path := fx.write("a.artio", events(1, 0, 3)...)

	tests := []struct {
		name   string
		opts   []FileOption
		reason string
	}{
		{name: "plain"},
		{name: "events to skip", opts: []FileOption{WithEventsToSkip(1)}, reason: "events-to-skip"},
		{name: "late origin", opts: []FileOption{WithOrigin(ids.New(1, 0, 2))}, reason: "Starting event"},
		{
			name:   "fewer events wanted",
			opts:   []FileOption{WithProcessingLimits(NewProcessingLimits(config.RunsSubRunsAndEvents, 2, -1))},
			reason: "fewer events",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := fx.open(path, tt.opts...).FastClonable()
			if tt.reason == "" {
				assert.True(t, fc.Enabled())
				return
			}
			assert.False(t, fc.Enabled())
			assert.Contains(t, fc.DisabledBecause(), tt.reason)
		})
	}
}

// TestForcedRunOffset tests renumbering the runs of a file.
func TestForcedRunOffset(t *testing.T) {
	fx := newFixture(t)
	f := fx.open(fx.write("a.artio", events(1, 0, 1)...))

	offset, err := f.SetForcedRunOffset(7)
	require.NoError(t, err)
	assert.Equal(t, int64(6), offset)
	assert.False(t, f.FastClonable().Enabled())

	r, err := f.ReadRun()
	require.NoError(t, err)
	assert.Equal(t, ids.ForRun(7), r.ID())
	_, err = f.ReadSubRun()
	require.NoError(t, err)
	ev, err := f.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, ids.New(7, 0, 1), ev.ID())
	assert.Equal(t, 10, valueOf(t, ev, fx.hits.ProductID))

	_, err = f.SetForcedRunOffset(ids.Invalid)
	assert.True(t, errs.Is(err, errs.InvalidNumber))
}

// TestCatalogMetadataRead tests that the catalog metadata written with the
// file is available after opening it.
func TestCatalogMetadataRead(t *testing.T) {
	fx := newFixture(t)
	f := fx.open(fx.write("a.artio", events(1, 0, 2)...))

	md := make(map[string]string)
	for _, e := range f.CatalogMetadata() {
		md[e.Name] = e.Value
	}
	assert.Equal(t, "2", md["event_count"])
	assert.Equal(t, `"sim"`, md["art.process_name"])
	assert.Equal(t, format.CurrentFileFormatVersion(), f.FormatVersion())
}
