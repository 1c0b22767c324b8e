package columnar

import (
	"fmt"
	"sort"

	"github.com/arloliu/artio/compress"
	"github.com/arloliu/artio/encoding"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/internal/hash"
)

// BasketInfo locates one compressed basket in the file.
type BasketInfo struct {
	Offset     uint64 `cbor:"1,keyasint"`
	Length     uint32 `cbor:"2,keyasint"`
	RawLength  uint32 `cbor:"3,keyasint"`
	FirstEntry int64  `cbor:"4,keyasint"`
	NumEntries int32  `cbor:"5,keyasint"`
	Checksum   uint32 `cbor:"6,keyasint"`
}

// BranchSettings are the creation-time parameters of a branch.
type BranchSettings struct {
	// TypeName is the wrapped product type stored in the branch.
	TypeName string `cbor:"1,keyasint"`
	// SplitLevel is recorded for compatibility checks when cloning.
	SplitLevel int `cbor:"2,keyasint"`
	// BasketSize is the framed size at which a basket is written out.
	BasketSize int `cbor:"3,keyasint"`
	// Compression is the codec applied to each basket.
	Compression format.CompressionType `cbor:"4,keyasint"`
}

func (s BranchSettings) withDefaults() BranchSettings {
	if s.BasketSize <= 0 {
		s.BasketSize = DefaultBasketSize
	}
	if s.Compression == 0 {
		s.Compression = format.CompressionZstd
	}

	return s
}

type branchInfo struct {
	Name          string         `cbor:"1,keyasint"`
	Settings      BranchSettings `cbor:"2,keyasint"`
	Entries       int64          `cbor:"3,keyasint"`
	Baskets       []BasketInfo   `cbor:"4,keyasint"`
	WriterVersion uint32         `cbor:"5,keyasint"`
}

type treeInfo struct {
	Name     string       `cbor:"1,keyasint"`
	Entries  int64        `cbor:"2,keyasint"`
	Branches []branchInfo `cbor:"3,keyasint"`
}

type blobInfo struct {
	Offset      uint64                 `cbor:"1,keyasint"`
	Length      uint32                 `cbor:"2,keyasint"`
	RawLength   uint32                 `cbor:"3,keyasint"`
	Compression format.CompressionType `cbor:"4,keyasint"`
	Checksum    uint32                 `cbor:"5,keyasint"`
}

type directory struct {
	Trees []treeInfo          `cbor:"1,keyasint"`
	Blobs map[string]blobInfo `cbor:"2,keyasint"`
}

// encodeDirectory serializes and compresses the directory.
func encodeDirectory(dir *directory, comp format.CompressionType) ([]byte, uint32, error) {
	sort.SliceStable(dir.Trees, func(i, j int) bool { return dir.Trees[i].Name < dir.Trees[j].Name })

	raw, err := encoding.MarshalRecord(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("encode directory: %w", err)
	}

	codec, err := compress.GetCodec(comp)
	if err != nil {
		return nil, 0, err
	}
	packed, err := codec.Compress(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("compress directory: %w", err)
	}

	return packed, hash.Sum32(packed), nil
}

func decodeDirectory(packed []byte, comp format.CompressionType) (*directory, error) {
	codec, err := compress.GetCodec(comp)
	if err != nil {
		return nil, err
	}
	raw, err := codec.Decompress(packed, 0)
	if err != nil {
		return nil, fmt.Errorf("decompress directory: %w", err)
	}

	dir := &directory{}
	if err := encoding.UnmarshalRecord(raw, dir); err != nil {
		return nil, fmt.Errorf("decode directory: %w", err)
	}

	return dir, nil
}
