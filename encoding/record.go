package encoding

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// maxRecordElements bounds arrays and maps accepted while decoding a record,
// so a corrupt length prefix cannot trigger a huge allocation.
const maxRecordElements = 1 << 24

var (
	recordEncMode cbor.EncMode
	recordDecMode cbor.DecMode
)

func init() {
	var err error
	if recordEncMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(fmt.Sprintf("encoding: cbor encode mode: %v", err))
	}
	decOpts := cbor.DecOptions{
		MaxArrayElements: maxRecordElements,
		MaxMapPairs:      maxRecordElements,
	}
	if recordDecMode, err = decOpts.DecMode(); err != nil {
		panic(fmt.Sprintf("encoding: cbor decode mode: %v", err))
	}
}

// MarshalRecord encodes a metadata record, auxiliary or product payload
// with deterministic CBOR, so equal values always produce equal bytes.
func MarshalRecord(v any) ([]byte, error) {
	return recordEncMode.Marshal(v)
}

// UnmarshalRecord decodes a record produced by MarshalRecord into v.
func UnmarshalRecord(data []byte, v any) error {
	return recordDecMode.Unmarshal(data, v)
}
