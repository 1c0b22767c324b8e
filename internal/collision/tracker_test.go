package collision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/internal/hash"
)

// TestTracker_Track tests tracking and lookup of branch names.
func TestTracker_Track(t *testing.T) {
	tr := NewTracker()

	names := []string{
		"ints_producer__PROD.",
		"doubles_producer__PROD.",
		"ints_filter_sel_RECO.",
	}
	for _, n := range names {
		require.NoError(t, tr.Track(n, hash.Name(n)))
	}
	require.Equal(t, 3, tr.Count())
	require.Equal(t, names, tr.Names())

	got, ok := tr.Lookup(hash.Name(names[1]))
	require.True(t, ok)
	require.Equal(t, names[1], got)

	_, ok = tr.Lookup(42)
	require.False(t, ok)
}

// TestTracker_Errors tests rejection of collisions and duplicate names.
func TestTracker_Errors(t *testing.T) {
	tr := NewTracker()

	require.ErrorIs(t, tr.Track("", 1), errs.ErrInvalidBranchName)

	require.NoError(t, tr.Track("a_m__P.", 7))
	require.ErrorIs(t, tr.Track("a_m__P.", 7), errs.ErrBranchAlreadyTracked)
	require.ErrorIs(t, tr.Track("b_m__P.", 7), errs.ErrHashCollision)
	require.Equal(t, 1, tr.Count())
}

// TestTracker_Reset tests that Reset forgets every name.
func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Track("a_m__P.", 1))
	tr.Reset()
	require.Zero(t, tr.Count())
	require.NoError(t, tr.Track("a_m__P.", 1))
}
