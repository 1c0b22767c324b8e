package rangeset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/ids"
)

func mustRange(t *testing.T, s, b, e ids.Number) EventRange {
	t.Helper()
	er, err := NewEventRange(s, b, e)
	require.NoError(t, err)

	return er
}

// TestEventRange tests containment, overlap and adjacency of single ranges.
func TestEventRange(t *testing.T) {
	r := mustRange(t, 1, 10, 20)

	assert.True(t, r.Contains(1, 10))
	assert.True(t, r.Contains(1, 19))
	assert.False(t, r.Contains(1, 20))
	assert.False(t, r.Contains(2, 15))
	assert.Equal(t, uint64(10), r.Size())

	assert.True(t, r.Overlaps(mustRange(t, 1, 19, 25)))
	assert.False(t, r.Overlaps(mustRange(t, 1, 20, 25)))
	assert.False(t, r.Overlaps(mustRange(t, 2, 10, 20)))
	assert.True(t, r.IsAdjacent(mustRange(t, 1, 20, 25)))
	assert.True(t, FullSubRun(1).Overlaps(r))

	_, err := NewEventRange(1, 5, 4)
	require.ErrorIs(t, err, errs.ErrInvalidRange)
}

// TestSentinels tests the full-run and full-subrun sentinels.
func TestSentinels(t *testing.T) {
	run := ForRun(5)
	require.True(t, run.IsValid())
	assert.True(t, run.IsFullRun())
	assert.False(t, run.IsFullSubRun())
	assert.True(t, run.Contains(5, 3, 99))
	assert.False(t, run.Contains(6, 3, 99))

	sr := ForSubRun(5, 1)
	assert.True(t, sr.IsFullSubRun())
	assert.False(t, sr.IsFullRun())
	assert.True(t, sr.Contains(5, 1, 42))
	assert.False(t, sr.Contains(5, 2, 42))

	inv := Invalid()
	assert.False(t, inv.IsValid())
	assert.False(t, inv.IsFullRun())

	empty := New(5)
	assert.True(t, empty.IsValid())
	assert.True(t, empty.Empty())
}

// TestMerge tests merge ordering, duplicate removal and compaction.
func TestMerge(t *testing.T) {
	t.Run("disjoint merge is commutative", func(t *testing.T) {
		a := FromRanges(1, mustRange(t, 1, 1, 10))
		b := FromRanges(1, mustRange(t, 1, 10, 20), mustRange(t, 2, 1, 5))

		ab := a.Clone()
		require.NoError(t, ab.Merge(b, false))
		ba := b.Clone()
		require.NoError(t, ba.Merge(a, false))

		require.True(t, ab.IsValid())
		assert.Equal(t, ab.Ranges(), ba.Ranges())
		assert.Equal(t, []EventRange{
			mustRange(t, 1, 1, 10),
			mustRange(t, 1, 10, 20),
			mustRange(t, 2, 1, 5),
		}, ab.Ranges())
	})

	t.Run("compact merge collapses adjacent ranges", func(t *testing.T) {
		a := FromRanges(1, mustRange(t, 1, 1, 10))
		b := FromRanges(1, mustRange(t, 1, 10, 20))
		require.NoError(t, a.Merge(b, true))
		assert.Equal(t, []EventRange{mustRange(t, 1, 1, 20)}, a.Ranges())
		assert.True(t, a.IsCollapsed())
	})

	t.Run("invalid operands", func(t *testing.T) {
		a := FromRanges(1, mustRange(t, 1, 1, 10))
		merged := a.Clone()
		require.NoError(t, merged.Merge(Invalid(), false))
		assert.True(t, Same(a, merged))

		inv := Invalid()
		require.NoError(t, inv.Merge(a, false))
		assert.True(t, Same(a, inv))

		both := Invalid()
		require.NoError(t, both.Merge(Invalid(), false))
		assert.False(t, both.IsValid())
	})

	t.Run("full sentinels", func(t *testing.T) {
		a := ForRun(3)
		require.NoError(t, a.Merge(ForRun(3), false))
		assert.True(t, a.IsFullRun())

		s := ForSubRun(3, 4)
		require.NoError(t, s.Merge(ForSubRun(3, 4), false))
		assert.True(t, s.IsFullSubRun())
	})

	t.Run("run mismatch", func(t *testing.T) {
		a := FromRanges(1, mustRange(t, 1, 1, 10))
		err := a.Merge(FromRanges(2, mustRange(t, 1, 1, 10)), false)
		require.ErrorIs(t, err, errs.ErrRunMismatch)
	})
}

// TestUpdate tests growing a range set one event at a time.
func TestUpdate(t *testing.T) {
	rs := Invalid()
	for e := ids.Number(1); e <= 5; e++ {
		rs.Update(ids.New(7, 1, e))
	}
	rs.Update(ids.New(7, 1, 9))
	rs.Update(ids.New(7, 2, 1))

	require.True(t, rs.IsValid())
	assert.Equal(t, ids.Number(7), rs.Run())
	assert.Equal(t, []EventRange{
		mustRange(t, 1, 1, 6),
		mustRange(t, 1, 9, 10),
		mustRange(t, 2, 1, 2),
	}, rs.Ranges())
}

// TestCollapse tests fusing of overlapping ranges and full-subrun absorption.
func TestCollapse(t *testing.T) {
	rs := FromRanges(1,
		mustRange(t, 1, 5, 9),
		mustRange(t, 1, 1, 6),
		mustRange(t, 1, 9, 12),
		mustRange(t, 2, 3, 3),
		FullSubRun(3),
		mustRange(t, 3, 1, 4),
	)
	rs.Collapse()
	assert.Equal(t, []EventRange{mustRange(t, 1, 1, 12), FullSubRun(3)}, rs.Ranges())
}

// TestClassification tests Disjoint, Same and Overlapping.
func TestClassification(t *testing.T) {
	tests := []struct {
		name        string
		a, b        RangeSet
		disjoint    bool
		same        bool
		overlapping bool
	}{
		{
			name:     "adjacent ranges",
			a:        FromRanges(5, EventRange{1, 1, 10}),
			b:        FromRanges(5, EventRange{1, 10, 20}),
			disjoint: true,
		},
		{
			name: "identical ranges",
			a:    FromRanges(5, EventRange{1, 1, 20}),
			b:    FromRanges(5, EventRange{1, 1, 20}),
			same: true,
		},
		{
			name: "same events in different pieces",
			a:    FromRanges(5, EventRange{1, 1, 10}, EventRange{1, 10, 20}),
			b:    FromRanges(5, EventRange{1, 1, 20}),
			same: true,
		},
		{
			name:        "partial overlap",
			a:           FromRanges(5, EventRange{1, 1, 15}),
			b:           FromRanges(5, EventRange{1, 10, 20}),
			overlapping: true,
		},
		{
			name:     "different subruns",
			a:        FromRanges(5, EventRange{1, 1, 15}),
			b:        FromRanges(5, EventRange{2, 1, 15}),
			disjoint: true,
		},
		{
			name:     "different runs",
			a:        FromRanges(5, EventRange{1, 1, 15}),
			b:        FromRanges(6, EventRange{1, 1, 15}),
			disjoint: true,
		},
		{
			name:        "full run against subrange",
			a:           ForRun(5),
			b:           FromRanges(5, EventRange{1, 1, 15}),
			overlapping: true,
		},
		{
			name: "invalid operand",
			a:    Invalid(),
			b:    FromRanges(5, EventRange{1, 1, 15}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.disjoint, Disjoint(tt.a, tt.b), "disjoint")
			assert.Equal(t, tt.disjoint, Disjoint(tt.b, tt.a), "disjoint reversed")
			assert.Equal(t, tt.same, Same(tt.a, tt.b), "same")
			assert.Equal(t, tt.overlapping, Overlapping(tt.a, tt.b), "overlapping")
		})
	}
}

// TestChecksum tests that checksums depend only on content.
func TestChecksum(t *testing.T) {
	a := FromRanges(5, EventRange{1, 1, 10}, EventRange{2, 3, 4})
	b := FromRanges(5, EventRange{2, 3, 4}, EventRange{1, 1, 10})
	c := FromRanges(6, EventRange{1, 1, 10}, EventRange{2, 3, 4})

	assert.Equal(t, a.Checksum(), b.Checksum())
	assert.NotEqual(t, a.Checksum(), c.Checksum())
	assert.NotEqual(t, ForRun(5).Checksum(), ForSubRun(5, 1).Checksum())
}

// TestChecksumFollowsSame tests that sets Same calls equal share a checksum.
func TestChecksumFollowsSame(t *testing.T) {
	split := FromRanges(5, EventRange{1, 1, 5}, EventRange{1, 5, 10})
	whole := FromRanges(5, EventRange{1, 1, 10})
	overlapping := FromRanges(5, EventRange{1, 1, 7}, EventRange{1, 4, 10}, EventRange{2, 3, 3})

	require.True(t, Same(split, whole))
	assert.Equal(t, whole.Checksum(), split.Checksum())
	assert.Equal(t, whole.Checksum(), overlapping.Checksum())
	assert.False(t, split.IsCollapsed(), "Checksum must not collapse the receiver")

	other := FromRanges(5, EventRange{1, 1, 9})
	require.False(t, Same(other, whole))
	assert.NotEqual(t, whole.Checksum(), other.Checksum())
}

// TestString tests the human-readable rendering used in error messages.
func TestString(t *testing.T) {
	assert.Equal(t, " Run: INVALID", Invalid().String())
	assert.Equal(t, " Run: 5 (full run)", ForRun(5).String())
	assert.Equal(t, " Run: 5\n  SubRun: 1 Event range: [1,10)", FromRanges(5, EventRange{1, 1, 10}).String())
}
