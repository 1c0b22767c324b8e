package endian

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestEndianEngines tests both byte orders on append and read.
func TestEndianEngines(t *testing.T) {
	le := GetLittleEndianEngine()
	be := GetBigEndianEngine()

	buf := le.AppendUint32(nil, 0x01020304)
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, buf)
	require.Equal(t, uint32(0x01020304), le.Uint32(buf))

	buf = be.AppendUint64(nil, 0x0102030405060708)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buf)
	require.Equal(t, uint64(0x0102030405060708), be.Uint64(buf))
}

// TestPutUint32 tests where the magic byte lands in each byte order.
func TestPutUint32(t *testing.T) {
	var buf [4]byte
	GetBigEndianEngine().PutUint32(buf[:], 0xA7100000)
	require.Equal(t, byte(0xA7), buf[0])
	GetLittleEndianEngine().PutUint32(buf[:], 0xA7100000)
	require.Equal(t, byte(0xA7), buf[3])
}
