package columnar

import (
	"fmt"
	"slices"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/section"
)

// CloneResult reports the outcome of a fast clone.
type CloneResult struct {
	// Entries is the number of input entries appended to each cloned branch.
	Entries int64
	// Cloned lists the branches whose baskets were copied verbatim.
	Cloned []string
	// Uncloned lists the branches the caller must fill entry by entry.
	Uncloned []string
}

// CloneVeto returns why baskets of in cannot be copied into a branch with the
// given settings, or "" when they can.
func CloneVeto(out BranchSettings, in *BranchReader) string {
	out = out.withDefaults()
	inSettings := in.Settings()
	switch {
	case out.SplitLevel != inSettings.SplitLevel:
		return fmt.Sprintf("split level %d differs from input %d", out.SplitLevel, inSettings.SplitLevel)
	case out.BasketSize != inSettings.BasketSize:
		return fmt.Sprintf("basket size %d differs from input %d", out.BasketSize, inSettings.BasketSize)
	case out.Compression != inSettings.Compression:
		return fmt.Sprintf("compression %s differs from input %s", out.Compression, inSettings.Compression)
	case in.WriterVersion() < section.MinClonableWriterVersion:
		return fmt.Sprintf("input writer version %d predates %d", in.WriterVersion(), section.MinClonableWriterVersion)
	default:
		return ""
	}
}

// CheckSplitLevelAndBasketSize reports whether every output branch that also
// exists in the input tree was declared with the input's split level and
// basket size.
func CheckSplitLevelAndBasketSize(out *TreeWriter, in *TreeReader) bool {
	for _, b := range out.branches {
		ib, err := in.Branch(b.info.Name)
		if err != nil {
			continue
		}
		s := ib.Settings()
		if s.SplitLevel != b.info.Settings.SplitLevel || s.BasketSize != b.info.Settings.BasketSize {
			return false
		}
	}

	return true
}

// FastCloneFrom appends every entry of in to the compatible output branches
// by copying compressed baskets verbatim.
//
// Branches named in exclude, branches missing from the input and branches
// vetoed by CloneVeto are left untouched and listed in CloneResult.Uncloned.
// The tree entry count is not advanced: the caller fills the uncloned
// branches with Entries entries each and then calls AdvanceEntries.
func (t *TreeWriter) FastCloneFrom(in *TreeReader, exclude ...string) (CloneResult, error) {
	res := CloneResult{Entries: in.Entries()}

	for _, b := range t.branches {
		if b.info.Entries != t.entries {
			return res, fmt.Errorf("%w: tree %s branch %s has uncommitted entries",
				errs.ErrBranchEntryMismatch, t.name, b.info.Name)
		}
	}

	for _, b := range t.branches {
		name := b.info.Name
		if slices.Contains(exclude, name) {
			res.Uncloned = append(res.Uncloned, name)
			continue
		}
		ib, err := in.Branch(name)
		if err != nil || CloneVeto(b.info.Settings, ib) != "" || ib.Entries() != in.Entries() {
			res.Uncloned = append(res.Uncloned, name)
			continue
		}

		if err := b.cloneBaskets(ib); err != nil {
			return res, fmt.Errorf("clone branch %s: %w", name, err)
		}
		res.Cloned = append(res.Cloned, name)
	}

	return res, nil
}

func (b *BranchWriter) cloneBaskets(in *BranchReader) error {
	if err := b.flushBasket(); err != nil {
		return err
	}

	base := b.info.Entries
	for _, bi := range in.info.Baskets {
		packed, err := in.readPacked(bi)
		if err != nil {
			return err
		}
		off, err := b.tree.w.writeRaw(packed)
		if err != nil {
			return err
		}
		bi.Offset = off
		bi.FirstEntry += base
		b.info.Baskets = append(b.info.Baskets, bi)
		b.stats.Add(int(bi.RawLength), int(bi.Length))
	}
	b.info.Entries += in.Entries()

	return nil
}
