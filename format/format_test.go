package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBranchTypeNames tests the tree and branch names derived from a record kind.
func TestBranchTypeNames(t *testing.T) {
	require.Equal(t, "Events", InEvent.TreeName())
	require.Equal(t, "SubRunMetaData", InSubRun.MetaDataTreeName())
	require.Equal(t, "RunAuxiliary", InRun.AuxBranchName())
	require.Equal(t, "ResultsProductProvenance", InResults.ProductProvenanceBranchName())

	require.True(t, InRun.SupportsRangeSets())
	require.True(t, InSubRun.SupportsRangeSets())
	require.False(t, InEvent.SupportsRangeSets())
	require.False(t, InResults.SupportsRangeSets())
}

// TestParseCompressionType tests configuration names of the codecs.
func TestParseCompressionType(t *testing.T) {
	for in, want := range map[string]CompressionType{
		"":     CompressionNone,
		"zstd": CompressionZstd,
		"S2":   CompressionS2,
		"lz4":  CompressionLZ4,
	} {
		got, ok := ParseCompressionType(in)
		require.True(t, ok, in)
		require.Equal(t, want, got, in)
	}

	_, ok := ParseCompressionType("gzip")
	require.False(t, ok)
	require.Equal(t, "Unknown", CompressionType(0).String())
}

// TestFileFormatVersion tests the behaviors gated on the stored version.
func TestFileFormatVersion(t *testing.T) {
	cur := CurrentFileFormatVersion()
	require.True(t, cur.SameEra())
	require.True(t, cur.SupportsRangeSets())
	require.True(t, cur.HistoryInEventAuxiliary())
	require.Equal(t, "ART_2011a 15", cur.String())

	legacy := FileFormatVersion{Era: Era, Value: 8}
	require.True(t, legacy.HasSideStore())
	require.False(t, legacy.SupportsRangeSets())
	require.False(t, legacy.HasProductIDChecksums())

	require.False(t, FileFormatVersion{Era: "ART_2010", Value: 15}.SameEra())
}
