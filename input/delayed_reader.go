package input

import (
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/ids"
	"github.com/arloliu/artio/principal"
	"github.com/arloliu/artio/product"
	"github.com/arloliu/artio/rangeset"
)

// entrySet reads the products of one record from the physical entries
// that hold it. Run and subrun records may span several entries, one per
// fragment; their products are aggregated left to right.
type entrySet struct {
	file    *File
	bt      format.BranchType
	id      ids.EventID
	entries EntryNumbers
	tree    *recordTree
}

func (s *entrySet) codec(bd product.BranchDescription) (product.Codec, error) {
	if s.file.cfg.types == nil {
		return nil, errs.Wrap(errs.LogicError, "read "+bd.BranchName(), errs.ErrUnknownProductType)
	}
	c, err := s.file.cfg.types.Lookup(bd.TypeName)
	if err != nil {
		return nil, errs.Wrap(errs.LogicError, "read "+bd.BranchName(), err)
	}

	return c, nil
}

// ReadProduct reads bd from the first entry and, for run and subrun
// products, folds in every later fragment:
//
//   - both range sets invalid, or only the new one: keep the result
//   - only the merged one invalid: adopt the new fragment
//   - disjoint: combine payloads and merge the range sets
//   - same: keep the result
//   - overlapping: ProductCannotBeAggregated
func (s *entrySet) ReadProduct(bd product.BranchDescription) (principal.ReadResult, error) {
	if !s.bt.SupportsRangeSets() && bd.Produced() {
		return principal.ReadResult{}, errs.New(errs.LogicError, "read "+bd.BranchName(),
			"attempt to delay read a produced product")
	}
	codec, err := s.codec(bd)
	if err != nil {
		return principal.ReadResult{}, err
	}

	result, err := s.tree.readProduct(bd, codec, s.entries[0])
	if err != nil {
		return principal.ReadResult{}, err
	}
	if !s.bt.SupportsRangeSets() {
		return principal.ReadResult{Wrapper: result, RangeSet: rangeset.Invalid()}, nil
	}
	if !s.file.version.SupportsRangeSets() {
		rs := rangeset.ForSubRun(s.id.Run, s.id.SubRun)
		if s.bt == format.InRun {
			rs = rangeset.ForRun(s.id.Run)
		}

		return principal.ReadResult{Wrapper: result, RangeSet: rs}, nil
	}

	merged, err := s.file.resolveRangeSet(s.bt, result.RangeSetID)
	if err != nil {
		return principal.ReadResult{}, err
	}

	var prov *product.Provenance
	for _, entry := range s.entries[1:] {
		frag, err := s.tree.readProduct(bd, codec, entry)
		if err != nil {
			return principal.ReadResult{}, err
		}
		fragRS, err := s.file.resolveRangeSet(s.bt, frag.RangeSetID)
		if err != nil {
			return principal.ReadResult{}, err
		}

		switch {
		case !merged.IsValid():
			if !fragRS.IsValid() {
				continue
			}
			provs, err := s.tree.readProvenance(entry)
			if err != nil {
				return principal.ReadResult{}, err
			}
			if p, ok := product.FindProvenance(provs, bd.ProductID); ok {
				prov = &p
			}
			result, merged = frag, fragRS
		case !fragRS.IsValid():
		case rangeset.Disjoint(merged, fragRS):
			if err := codec.Combine(result.Value, frag.Value); err != nil {
				return principal.ReadResult{}, errs.Wrap(errs.LogicError, "combine "+bd.BranchName(), err)
			}
			if err := merged.Merge(fragRS, s.file.cfg.compactRanges); err != nil {
				return principal.ReadResult{}, errs.Wrap(errs.DataCorruption, "merge "+bd.BranchName(), err)
			}
		case rangeset.Same(merged, fragRS):
		default:
			return principal.ReadResult{}, errs.New(errs.ProductCannotBeAggregated, "read "+bd.BranchName(),
				"the ranges of product %s cannot be aggregated: %s and %s", bd.BranchName(), merged, fragRS)
		}
	}

	return principal.ReadResult{Wrapper: result, RangeSet: merged, Provenance: prov}, nil
}

// ReadProvenance returns the provenance stored with the first entry.
func (s *entrySet) ReadProvenance() ([]product.Provenance, error) {
	return s.tree.readProvenance(s.entries[0])
}

// IsAvailableAfterCombine reports whether any fragment of product id has
// status present. Records without range sets always report true.
func (s *entrySet) IsAvailableAfterCombine(id product.ID) (bool, error) {
	if !s.bt.SupportsRangeSets() || !s.file.version.SupportsRangeSets() {
		return true, nil
	}
	for _, entry := range s.entries {
		provs, err := s.tree.readProvenance(entry)
		if err != nil {
			return false, err
		}
		if p, ok := product.FindProvenance(provs, id); ok && p.Present() {
			return true, nil
		}
	}

	return false, nil
}

// fileReader is the delayed reader of records read sequentially or by ID
// from an input file. Products missing from the file fall through to the
// secondary files, when there are any.
type fileReader struct {
	entrySet
	secondary SecondaryReader
}

func newFileReader(f *File, bt format.BranchType, id ids.EventID, entries EntryNumbers) *fileReader {
	return &fileReader{
		entrySet: entrySet{
			file:    f,
			bt:      bt,
			id:      id,
			entries: entries,
			tree:    f.trees[bt],
		},
		secondary: f.cfg.secondary,
	}
}

// ReadFromSecondaryFile returns the same record from the next secondary file.
func (r *fileReader) ReadFromSecondaryFile(idx *int) (*principal.Principal, error) {
	if r.secondary == nil {
		return nil, nil
	}

	return r.secondary(idx, r.bt, r.id)
}
