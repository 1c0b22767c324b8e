// Package section defines the fixed header of a columnar container file.
//
// A container starts with a 32-byte FileHeader. Trees, branches and blobs
// follow as compressed baskets, and a compressed directory describing all of
// them is appended when the writer closes:
//
//	+---------------------------+ 0
//	| FileHeader (32 bytes)     |
//	+---------------------------+ 32
//	| baskets and blobs         |
//	+---------------------------+ DirectoryOffset
//	| directory (compressed)    |
//	+---------------------------+ DirectoryOffset + DirectoryLength
//
// The first two header bytes hold the options word and are always little
// endian: bits 4-15 carry MagicContainerV1Opt and bit 1 selects the byte order
// of every other integer in the file. Byte 2 names the directory codec.
//
// A DirectoryOffset of zero marks a container whose writer never closed; such
// files are reported as unreadable rather than scanned.
//
// WriterVersion lets a reader refuse to fast-clone baskets written by an
// older writer whose framing differs (see MinClonableWriterVersion).
package section
