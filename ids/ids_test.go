package ids

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestOrdering tests that runs sort before their subruns and subruns before their events.
func TestOrdering(t *testing.T) {
	got := []EventID{
		New(1, 0, 2),
		ForSubRun(1, 1),
		New(1, 0, 1),
		ForRun(2),
		ForSubRun(1, 0),
		ForRun(1),
	}
	slices.SortFunc(got, EventID.Compare)

	require.Equal(t, []EventID{
		ForRun(1),
		ForSubRun(1, 0),
		New(1, 0, 1),
		New(1, 0, 2),
		ForSubRun(1, 1),
		ForRun(2),
	}, got)
	require.True(t, InvalidID().Less(ForRun(0)))
}

// TestValidity tests the per-level validity checks.
func TestValidity(t *testing.T) {
	require.True(t, New(1, 2, 3).IsValid())
	require.False(t, ForSubRun(1, 2).IsValid())
	require.True(t, ForSubRun(1, 2).IsSubRunValid())
	require.False(t, ForRun(1).IsSubRunValid())
	require.False(t, InvalidID().IsRunValid())

	require.Equal(t, ForRun(4), New(4, 5, 6).RunID())
	require.Equal(t, ForSubRun(4, 5), New(4, 5, 6).SubRunID())
	require.Equal(t, New(4, 5, 7), New(4, 5, 6).NextEvent())
	require.True(t, New(4, 5, 6).SameSubRun(ForSubRun(4, 5)))
	require.False(t, New(4, 5, 6).SameSubRun(ForSubRun(4, 6)))

	require.True(t, ValidateRun(0))
	require.True(t, ValidateRun(int64(MaxValid)))
	require.False(t, ValidateRun(-1))
	require.False(t, ValidateRun(int64(Invalid)))
}

// TestString tests the printed form of each record level.
func TestString(t *testing.T) {
	require.Equal(t, "run: INVALID", InvalidID().String())
	require.Equal(t, "run: 3", ForRun(3).String())
	require.Equal(t, "run: 3 subRun: 0", ForSubRun(3, 0).String())
	require.Equal(t, "run: 3 subRun: 0 event: 9", New(3, 0, 9).String())
}
