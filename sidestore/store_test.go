package sidestore

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/rangeset"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Create(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

// TestRangeSetRoundTrip tests that run and subrun range sets resolve to what was inserted.
func TestRangeSetRoundTrip(t *testing.T) {
	s := newStore(t)

	sets := []rangeset.RangeSet{
		rangeset.FromRanges(5, rangeset.EventRange{SubRun: 1, Begin: 1, End: 10}, rangeset.EventRange{SubRun: 1, Begin: 10, End: 20}),
		rangeset.FromRanges(5, rangeset.EventRange{SubRun: 2, Begin: 3, End: 7}),
		rangeset.ForSubRun(5, 3),
		rangeset.ForRun(6),
	}

	for _, bt := range []format.BranchType{format.InSubRun, format.InRun} {
		for _, rs := range sets {
			id, err := s.InsertRangeSet(bt, rs)
			require.NoError(t, err)

			got, err := s.ResolveRangeSet(bt, id, false)
			require.NoError(t, err)
			assert.True(t, rangeset.Same(rs, got), "%s: %s vs %s", bt, rs, got)
			assert.Equal(t, rs.IsFullRun(), got.IsFullRun())
			assert.Equal(t, rs.IsFullSubRun(), got.IsFullSubRun())
		}
	}

	n, err := s.RangeSetCount(format.InSubRun)
	require.NoError(t, err)
	assert.Equal(t, len(sets), n)
}

// TestResolveCompact tests that compact resolution merges adjacent ranges.
func TestResolveCompact(t *testing.T) {
	s := newStore(t)
	rs := rangeset.FromRanges(1, rangeset.EventRange{SubRun: 1, Begin: 10, End: 20}, rangeset.EventRange{SubRun: 1, Begin: 1, End: 10})
	id, err := s.InsertRangeSet(format.InSubRun, rs)
	require.NoError(t, err)

	plain, err := s.ResolveRangeSet(format.InSubRun, id, false)
	require.NoError(t, err)
	assert.Equal(t, 2, plain.Len())
	assert.True(t, plain.IsSorted())

	compact, err := s.ResolveRangeSet(format.InSubRun, id, true)
	require.NoError(t, err)
	assert.Equal(t, []rangeset.EventRange{{SubRun: 1, Begin: 1, End: 20}}, compact.Ranges())
}

// TestSharedEventRanges tests that identical event ranges are shared between tables.
func TestSharedEventRanges(t *testing.T) {
	s := newStore(t)
	r := rangeset.EventRange{SubRun: 4, Begin: 1, End: 5}

	id1, err := s.InsertRangeSet(format.InSubRun, rangeset.FromRanges(1, r))
	require.NoError(t, err)
	id2, err := s.InsertRangeSet(format.InRun, rangeset.FromRanges(1, r))
	require.NoError(t, err)

	var rows int
	require.NoError(t, s.DB().QueryRow(`SELECT count(*) FROM EventRanges`).Scan(&rows))
	assert.Equal(t, 1, rows, "identical event ranges are stored once")

	got1, err := s.ResolveRangeSet(format.InSubRun, id1, false)
	require.NoError(t, err)
	got2, err := s.ResolveRangeSet(format.InRun, id2, false)
	require.NoError(t, err)
	assert.True(t, rangeset.Same(got1, got2))
}

// TestRangeSetErrors tests invalid range sets and unknown IDs.
func TestRangeSetErrors(t *testing.T) {
	s := newStore(t)

	inv, err := s.ResolveRangeSet(format.InRun, rangeset.InvalidID, true)
	require.NoError(t, err)
	assert.False(t, inv.IsValid())

	_, err = s.ResolveRangeSet(format.InRun, 99, false)
	assert.True(t, errs.Is(err, errs.FileReadError))

	_, err = s.InsertRangeSet(format.InEvent, rangeset.ForRun(1))
	assert.True(t, errs.Is(err, errs.LogicError))

	_, err = s.InsertRangeSet(format.InRun, rangeset.Invalid())
	assert.True(t, errs.Is(err, errs.LogicError))
}

// TestImageRoundTrip tests that a store survives being embedded as an image.
func TestImageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir)
	require.NoError(t, err)

	rs := rangeset.FromRanges(3, rangeset.EventRange{SubRun: 0, Begin: 1, End: 4})
	id, err := s.InsertRangeSet(format.InRun, rs)
	require.NoError(t, err)
	require.NoError(t, s.WriteParameterSets(map[string]string{"abc": "a: 1\n", "def": "b: 2\n"}))
	require.NoError(t, s.WriteParameterSets(map[string]string{"abc": "ignored"}))
	require.NoError(t, s.WriteFileCatalogMetadata([]MetadataEntry{
		{Name: "file_format", Value: `"artio"`},
		{Name: "process_name", Value: `"RECO"`},
	}))

	image, err := s.Image()
	require.NoError(t, err)
	require.NotEmpty(t, image)
	require.NoError(t, s.Close())

	r, err := OpenImage(image, dir)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ResolveRangeSet(format.InRun, id, true)
	require.NoError(t, err)
	assert.True(t, rangeset.Same(rs, got))

	psets, err := r.ReadParameterSets()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"abc": "a: 1\n", "def": "b: 2\n"}, psets)

	md, err := r.ReadFileCatalogMetadata()
	require.NoError(t, err)
	require.Len(t, md, 2)
	assert.Equal(t, "process_name", md[1].Name)
}

// TestEmptyTables tests reading tables that hold no rows.
func TestEmptyTables(t *testing.T) {
	s := newStore(t)

	psets, err := s.ReadParameterSets()
	require.NoError(t, err)
	assert.Empty(t, psets)

	md, err := s.ReadFileCatalogMetadata()
	require.NoError(t, err)
	assert.Empty(t, md)

	ok, err := s.HasTable("EventRanges")
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestSize tests that the reported size grows with the stored rows.
func TestSize(t *testing.T) {
	s := newStore(t)

	before, err := s.Size()
	require.NoError(t, err)
	assert.Positive(t, before)

	blobs := make(map[string]string, 200)
	for i := range 200 {
		blobs[fmt.Sprintf("%064d", i)] = strings.Repeat("x", 512)
	}
	require.NoError(t, s.WriteParameterSets(blobs))

	after, err := s.Size()
	require.NoError(t, err)
	assert.Greater(t, after, before)
}
