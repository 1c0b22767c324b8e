package output

import (
	"slices"

	"github.com/arloliu/artio/columnar"
	"github.com/arloliu/artio/encoding"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/product"
)

// outputItem is one selected product and the branch it is written to.
type outputItem struct {
	desc   product.BranchDescription
	branch *columnar.BranchWriter
}

// outputTree writes the records of one kind: the data tree holding the
// auxiliary and one branch per product, and the metadata tree holding the
// provenance vector of every record.
type outputTree struct {
	bt        format.BranchType
	data      *columnar.TreeWriter
	meta      *columnar.TreeWriter
	aux       *columnar.BranchWriter
	prov      *columnar.BranchWriter
	items     []*outputItem
	byID      map[product.ID]*outputItem
	settings  columnar.BranchSettings
	threshold int64

	// fast-clone state of the current input file
	fastCloned bool
	uncloned   map[string]struct{}
	pending    int64
}

func newOutputTree(w *columnar.Writer, bt format.BranchType, settings columnar.BranchSettings, threshold int64) (*outputTree, error) {
	t := &outputTree{
		bt:        bt,
		data:      w.Tree(bt.TreeName()),
		meta:      w.Tree(bt.MetaDataTreeName()),
		byID:      make(map[product.ID]*outputItem),
		settings:  settings,
		threshold: threshold,
	}

	auxSettings := settings
	auxSettings.TypeName = bt.AuxBranchName()
	aux, err := t.data.Branch(bt.AuxBranchName(), auxSettings)
	if err != nil {
		return nil, errs.Wrap(errs.FatalRootError, "create "+bt.TreeName(), err)
	}
	t.aux = aux

	provSettings := settings
	provSettings.TypeName = "ProductProvenances"
	prov, err := t.meta.Branch(bt.ProductProvenanceBranchName(), provSettings)
	if err != nil {
		return nil, errs.Wrap(errs.FatalRootError, "create "+bt.MetaDataTreeName(), err)
	}
	t.prov = prov

	return t, nil
}

// addOutputBranch declares the branch of bd. Records already committed get
// a dummy entry each so every branch stays aligned with the tree.
func (t *outputTree) addOutputBranch(bd product.BranchDescription, dummies *DummyCache) error {
	if _, ok := t.byID[bd.ProductID]; ok {
		return nil
	}
	op := "add branch " + bd.BranchName()

	settings := t.settings
	settings.TypeName = bd.TypeName
	br, err := t.data.Branch(bd.BranchName(), settings)
	if err != nil {
		return errs.Wrap(errs.FatalRootError, op, err)
	}

	if n := t.data.Entries(); n > 0 {
		dummy, err := dummies.Encoded(bd.TypeName)
		if err != nil {
			return err
		}
		var written int64
		for range n {
			if err := br.Fill(dummy); err != nil {
				return errs.Wrap(errs.FatalRootError, op, err)
			}
			written += int64(len(dummy))
			if t.threshold > -1 && written > t.threshold {
				if err := br.DropBaskets(); err != nil {
					return errs.Wrap(errs.FatalRootError, op, err)
				}
				written = 0
			}
		}
	}

	item := &outputItem{desc: bd, branch: br}
	t.items = append(t.items, item)
	t.byID[bd.ProductID] = item

	return nil
}

// checkSplitLevelAndBasketSize reports whether the branches this tree
// shares with in were declared with the same layout.
func (t *outputTree) checkSplitLevelAndBasketSize(in *columnar.TreeReader) bool {
	if in == nil {
		return false
	}

	return columnar.CheckSplitLevelAndBasketSize(t.data, in)
}

// beginInputFile resets the fast-clone state and, when clone is set and
// in has entries, copies the baskets of every compatible branch except the
// auxiliary. It reports whether any branch was cloned.
func (t *outputTree) beginInputFile(in *columnar.TreeReader, clone bool) (bool, error) {
	t.fastCloned = false
	t.uncloned = nil
	t.pending = 0
	if !clone || in == nil || in.Entries() == 0 {
		return false, nil
	}

	res, err := t.data.FastCloneFrom(in, t.bt.AuxBranchName())
	if err != nil {
		return false, errs.Wrap(errs.FatalRootError, "fast clone "+t.bt.TreeName(), err)
	}
	if len(res.Cloned) == 0 {
		return false, nil
	}

	t.fastCloned = true
	t.uncloned = make(map[string]struct{}, len(res.Uncloned))
	for _, name := range res.Uncloned {
		t.uncloned[name] = struct{}{}
	}

	return true, nil
}

// isUncloned reports whether the branch has to be filled record by record
// while the tree is fast cloned.
func (t *outputTree) isUncloned(name string) bool {
	if !t.fastCloned {
		return true
	}
	_, ok := t.uncloned[name]

	return ok
}

// fill writes one record. payloads holds the encoded product of every
// item, in item order; nil marks a cloned branch that is skipped.
func (t *outputTree) fill(aux any, provs []product.Provenance, payloads [][]byte) error {
	op := "fill " + t.bt.TreeName()

	auxData, err := encoding.MarshalRecord(aux)
	if err != nil {
		return errs.Wrap(errs.LogicError, op, err)
	}
	provData, err := encoding.MarshalRecord(provs)
	if err != nil {
		return errs.Wrap(errs.LogicError, op, err)
	}

	if err := t.prov.Fill(provData); err != nil {
		return errs.Wrap(errs.FatalRootError, op, err)
	}
	if err := t.meta.Fill(); err != nil {
		return errs.Wrap(errs.FatalRootError, op, err)
	}

	if err := t.aux.Fill(auxData); err != nil {
		return errs.Wrap(errs.FatalRootError, op, err)
	}
	for i, item := range t.items {
		if payloads[i] == nil {
			continue
		}
		if err := item.branch.Fill(payloads[i]); err != nil {
			return errs.Wrap(errs.FatalRootError, op, err)
		}
		if t.threshold > -1 && int64(item.branch.LastEntrySize()) > t.threshold {
			if err := item.branch.DropBaskets(); err != nil {
				return errs.Wrap(errs.FatalRootError, op, err)
			}
		}
	}

	if t.fastCloned {
		t.pending++
		return nil
	}
	if err := t.data.Fill(); err != nil {
		return errs.Wrap(errs.FatalRootError, op, err)
	}

	return nil
}

// setEntries commits the records written while the tree was fast cloned.
func (t *outputTree) setEntries() error {
	if !t.fastCloned {
		return nil
	}
	n := t.pending
	t.fastCloned = false
	t.uncloned = nil
	t.pending = 0
	if err := t.data.AdvanceEntries(n); err != nil {
		return errs.Wrap(errs.FatalRootError, "commit cloned "+t.bt.TreeName(), err)
	}

	return nil
}

// entries returns the number of records written, committed or pending.
func (t *outputTree) entries() int64 {
	return t.meta.Entries()
}

// descriptions returns the selected descriptions in item order.
func (t *outputTree) descriptions() []product.BranchDescription {
	out := make([]product.BranchDescription, 0, len(t.items))
	for _, item := range t.items {
		out = append(out, item.desc)
	}

	return out
}

// unclonedNames returns the sorted names of the branches filled record by
// record during the current fast clone.
func (t *outputTree) unclonedNames() []string {
	names := make([]string, 0, len(t.uncloned))
	for name := range t.uncloned {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}
