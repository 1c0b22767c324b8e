// Package columnar implements the tree/branch container that artio files are
// stored in.
//
// A container file is laid out as:
//
//	+----------------------+
//	| header (32 bytes)    |  section.FileHeader
//	+----------------------+
//	| basket               |  compressed, uvarint-framed entries of one branch
//	| basket               |
//	| ...                  |
//	| blob                 |  named opaque payloads (e.g. the side-store image)
//	+----------------------+
//	| directory            |  CBOR, compressed with the header's codec
//	+----------------------+
//
// A file holds named trees. A tree holds branches that share an entry count;
// each entry of a branch is an opaque byte payload. Entries are buffered in
// memory per branch and written out as one basket when the branch's basket
// size is reached, when the tree's pending bytes exceed its maximum virtual
// size, or when the caller flushes explicitly.
//
// The directory is written when the Writer is closed and its location is then
// patched into the header. A file whose header carries no directory offset
// was not closed cleanly and cannot be opened.
//
// # Fast cloning
//
// TreeWriter.FastCloneFrom copies the compressed baskets of an input tree
// verbatim when the input and output branch settings agree, skipping the
// decompress/reframe/recompress cycle. Branches that cannot be cloned are
// reported to the caller, which fills them entry by entry.
//
// # Concurrency
//
// Writer and Reader are not safe for concurrent use. A BranchReader keeps one
// decoded basket cached; the returned entry slices are valid until the next
// Read on the same branch or a call to DropBaskets.
package columnar
