package principal

import (
	"github.com/arloliu/artio/product"
	"github.com/arloliu/artio/rangeset"
)

// ReadResult is one materialized product.
type ReadResult struct {
	Wrapper  *product.Wrapper
	RangeSet rangeset.RangeSet
	// Provenance is set when reading replaced the provenance stored with
	// the first entry, as happens when aggregation adopts a later fragment.
	Provenance *product.Provenance
}

// DelayedReader materializes the products of one record on demand.
//
// Implementations are backed by an input file or by a sampled data set;
// principals only hold this interface.
type DelayedReader interface {
	// ReadProduct reads and, for run and subrun products, aggregates the
	// product described by bd.
	ReadProduct(bd product.BranchDescription) (ReadResult, error)
	// ReadProvenance returns the provenance vector of the record.
	ReadProvenance() ([]product.Provenance, error)
	// IsAvailableAfterCombine reports whether any fragment of a run or
	// subrun product is present, without reading the payloads.
	IsAvailableAfterCombine(id product.ID) (bool, error)
	// ReadFromSecondaryFile returns the principal for the same record in
	// the next secondary file at or after *idx, advancing *idx past it.
	// It returns nil once the secondary files are exhausted.
	ReadFromSecondaryFile(idx *int) (*Principal, error)
}
