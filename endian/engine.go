// Package endian provides the byte order engines used by the columnar container.
//
// A container records its byte order in the header flags; every fixed-width
// integer in the header, the range-set checksums and the directory framing is
// read and written through the engine the flags select:
//
//	engine := header.Flag.GetEndianEngine()
//	buf = engine.AppendUint64(buf, offset)
//
// All functions in this package are safe for concurrent use.
package endian

import "encoding/binary"

// EndianEngine reads, writes and appends fixed-width integers in one byte
// order. binary.LittleEndian and binary.BigEndian both satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine, the order written
// by default.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
