package input

import (
	"github.com/arloliu/artio/columnar"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/fileindex"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/product"
)

// recordTree gives access to the data and provenance trees of one record kind.
type recordTree struct {
	bt         format.BranchType
	data       *columnar.TreeReader
	aux        *columnar.BranchReader
	provenance *columnar.BranchReader
	branches   map[product.ID]*columnar.BranchReader
	threshold  int64
}

func newRecordTree(r *columnar.Reader, bt format.BranchType, threshold int64) *recordTree {
	t := &recordTree{bt: bt, branches: make(map[product.ID]*columnar.BranchReader), threshold: threshold}

	data, err := r.Tree(bt.TreeName())
	if err != nil {
		return t
	}
	t.data = data
	if aux, err := data.Branch(bt.AuxBranchName()); err == nil {
		t.aux = aux
	}
	if meta, err := r.Tree(bt.MetaDataTreeName()); err == nil {
		if prov, err := meta.Branch(bt.ProductProvenanceBranchName()); err == nil {
			t.provenance = prov
		}
	}

	return t
}

// isValid reports whether the tree exists with its header and provenance columns.
func (t *recordTree) isValid() bool {
	return t.data != nil && t.aux != nil && t.provenance != nil
}

func (t *recordTree) entries() int64 {
	if t.data == nil {
		return 0
	}

	return t.data.Entries()
}

// addBranch binds the column of bd and reports whether the file has it.
func (t *recordTree) addBranch(bd product.BranchDescription) bool {
	if t.data == nil {
		return false
	}
	br, err := t.data.Branch(bd.BranchName())
	if err != nil {
		return false
	}
	t.branches[bd.ProductID] = br

	return true
}

func (t *recordTree) dropBranch(id product.ID) {
	delete(t.branches, id)
}

func (t *recordTree) branch(id product.ID) (*columnar.BranchReader, bool) {
	br, ok := t.branches[id]
	return br, ok
}

func (t *recordTree) readAux(entry fileindex.EntryNumber, v any) error {
	if t.aux == nil {
		return errs.Wrap(errs.FileReadError, "read "+t.bt.AuxBranchName(), errs.ErrBranchNotFound)
	}

	return entryRead{branch: t.aux, entry: entry, threshold: -1}.decodeRecord(v)
}

func (t *recordTree) readProvenance(entry fileindex.EntryNumber) ([]product.Provenance, error) {
	if t.provenance == nil {
		return nil, errs.Wrap(errs.FileReadError, "read "+t.bt.ProductProvenanceBranchName(), errs.ErrBranchNotFound)
	}
	var provs []product.Provenance
	if err := (entryRead{branch: t.provenance, entry: entry, threshold: -1}).decodeRecord(&provs); err != nil {
		return nil, err
	}

	return provs, nil
}

// readProduct reads and decodes the product bd stored at entry.
func (t *recordTree) readProduct(bd product.BranchDescription, codec product.Codec, entry fileindex.EntryNumber) (*product.Wrapper, error) {
	br, ok := t.branch(bd.ProductID)
	if !ok {
		return nil, errs.Wrap(errs.FileReadError, "read "+bd.BranchName(), errs.ErrBranchNotFound)
	}

	var w *product.Wrapper
	_, err := entryRead{branch: br, entry: entry, threshold: t.threshold}.decode(func(data []byte) error {
		var derr error
		w, derr = product.DecodeWrapper(codec, data)
		return derr
	})
	if err != nil {
		return nil, err
	}

	return w, nil
}

// dropBaskets releases the cached baskets of every branch.
func (t *recordTree) dropBaskets() {
	if t.data == nil {
		return
	}
	readMu.Lock()
	defer readMu.Unlock()
	t.data.DropBaskets()
}
