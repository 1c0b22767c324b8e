// Package errs defines the sentinel errors and the error categories used across artio.
//
// Structural problems found while decoding a file are reported with the
// sentinel errors below. Failures that callers need to classify (bad
// configuration, unreadable files, corrupted data, contract violations,
// aggregation conflicts) are wrapped in an *Error carrying a Category:
//
//	if errors.Is(err, errs.ErrDataCorruption) {
//	    // the file cannot be trusted
//	}
package errs

import "errors"

// Container and section errors.
var (
	ErrInvalidHeaderSize    = errors.New("invalid header size")
	ErrInvalidHeaderFlags   = errors.New("invalid header flags")
	ErrInvalidMagicNumber   = errors.New("invalid magic number")
	ErrInvalidTrailer       = errors.New("invalid directory trailer")
	ErrChecksumMismatch     = errors.New("checksum mismatch")
	ErrInvalidEntryFraming  = errors.New("invalid entry framing in basket")
	ErrRawLengthMismatch    = errors.New("decompressed size does not match directory")
	ErrTreeNotFound         = errors.New("tree not found")
	ErrBranchNotFound       = errors.New("branch not found")
	ErrBranchExists         = errors.New("branch already exists")
	ErrBlobNotFound         = errors.New("blob not found")
	ErrEntryOutOfRange      = errors.New("entry number out of range")
	ErrWriterClosed         = errors.New("writer already closed")
	ErrReaderClosed         = errors.New("reader already closed")
	ErrIncompatibleBranches = errors.New("branches are not compatible for cloning")
	ErrBranchEntryMismatch  = errors.New("branch entry count does not match tree")
)

// Identity and product errors.
var (
	ErrHashCollision        = errors.New("hash collision between distinct branch names")
	ErrInvalidBranchName    = errors.New("invalid branch name")
	ErrBranchAlreadyTracked = errors.New("branch name already tracked")
	ErrUnknownProductType   = errors.New("unknown product type")
	ErrProductTypeExists    = errors.New("product type already registered")
	ErrProductNotCombinable = errors.New("product type does not support combine")
	ErrProductTypeMismatch  = errors.New("product type mismatch")
	ErrProductNotFound      = errors.New("product not found")
)

// Range-set errors.
var (
	ErrRunMismatch       = errors.New("range sets belong to different runs")
	ErrOverlappingRanges = errors.New("event ranges overlap")
	ErrInvalidRange      = errors.New("invalid event range")
)

// ErrNotFound reports a lookup miss that callers are expected to recover from.
var ErrNotFound = errors.New("not found")
