package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestName tests that branch-name identities are xxHash64 values.
func TestName(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.id, Name(tt.data))
		})
	}

	require.NotEqual(t, Name("hits_sim_.reco"), Name("hits_sim_.reco2"))
}

// TestSum32 tests the fold of the 64-bit digest into 32 bits.
func TestSum32(t *testing.T) {
	full := uint64(0xef46db3751d8e999)
	require.Equal(t, uint32(full>>32)^uint32(full), Sum32(nil))
	require.NotEqual(t, Sum32([]byte("basket a")), Sum32([]byte("basket b")))
}

// TestChecksum tests that piecewise writes match a one-shot Sum32.
func TestChecksum(t *testing.T) {
	c := NewChecksum()
	c.Write([]byte("run 1 "))
	c.Write([]byte("subrun 0 "))
	c.Write([]byte("events 1-5"))

	require.Equal(t, Sum32([]byte("run 1 subrun 0 events 1-5")), c.Sum32())
	require.Equal(t, Sum32(nil), NewChecksum().Sum32())
}

func BenchmarkName(b *testing.B) {
	const branch = "recob::Hits_gaushit__reco."
	for b.Loop() {
		Name(branch)
	}
}
