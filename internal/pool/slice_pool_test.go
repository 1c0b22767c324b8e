package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestGetEntrySlice tests capacity and recycling of pooled entry slices.
func TestGetEntrySlice(t *testing.T) {
	s, cleanup := GetEntrySlice(8)
	require.Empty(t, s)
	require.GreaterOrEqual(t, cap(s), 8)
	s = append(s, []byte("a"), []byte("b"))
	require.Len(t, s, 2)
	cleanup()

	s2, cleanup2 := GetEntrySlice(2)
	defer cleanup2()
	require.Empty(t, s2)
}
