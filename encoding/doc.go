// Package encoding holds the two byte-level formats shared by the columnar
// store and the data-product layer.
//
// Records (metadata, auxiliaries and product payloads) are encoded with
// deterministic CBOR through MarshalRecord and UnmarshalRecord. Equal values
// produce equal bytes, which keeps checksums and fast-clone comparisons
// stable across writers.
//
// Entries of one branch are framed into a basket by EntryEncoder as
// length-prefixed payloads and split back by EntryDecoder:
//
//	enc := encoding.NewEntryEncoder()
//	defer enc.Finish()
//	enc.Write(payload)
//	basket := enc.Bytes()
package encoding
