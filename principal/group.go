package principal

import (
	"sync"

	"github.com/arloliu/artio/product"
	"github.com/arloliu/artio/rangeset"
)

// Group holds one product of a record and resolves it at most once.
type Group struct {
	mu       sync.Mutex
	desc     product.BranchDescription
	resolved bool
	wrapper  *product.Wrapper
	rangeSet rangeset.RangeSet
	prov     *product.Provenance
	err      error
}

func newProducedGroup(desc product.BranchDescription, w *product.Wrapper, rs rangeset.RangeSet, prov product.Provenance) *Group {
	return &Group{desc: desc, resolved: true, wrapper: w, rangeSet: rs, prov: &prov}
}

// Description returns the product's description.
func (g *Group) Description() product.BranchDescription {
	return g.desc
}

// Resolved reports whether the product was already materialized.
func (g *Group) Resolved() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.resolved
}

func (g *Group) resolve(p *Principal) (*product.Wrapper, rangeset.RangeSet, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.resolved {
		return g.wrapper, g.rangeSet, g.err
	}
	g.resolved = true
	g.rangeSet = rangeset.Invalid()

	switch {
	case !g.desc.Present(), g.desc.Produced(), p.reader == nil:
		g.wrapper, g.err = p.dummy(g.desc)
		return g.wrapper, g.rangeSet, g.err
	}

	if g.desc.BranchType.SupportsRangeSets() {
		ok, err := p.reader.IsAvailableAfterCombine(g.desc.ProductID)
		if err != nil {
			g.err = err
			return nil, g.rangeSet, err
		}
		if !ok {
			g.wrapper, g.err = p.dummy(g.desc)
			return g.wrapper, g.rangeSet, g.err
		}
	}

	res, err := p.reader.ReadProduct(g.desc)
	if err != nil {
		g.err = err
		return nil, g.rangeSet, err
	}
	g.wrapper = res.Wrapper
	g.rangeSet = res.RangeSet
	if res.Provenance != nil {
		prov := *res.Provenance
		g.prov = &prov
	}

	return g.wrapper, g.rangeSet, nil
}

func (g *Group) hasValue() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.wrapper != nil && g.wrapper.Present
}

func (g *Group) provenance() *product.Provenance {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.prov
}

func (g *Group) setProvenance(prov product.Provenance) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.prov == nil {
		g.prov = &prov
	}
}

// Handle is the result of looking up a product in a principal.
type Handle struct {
	Description product.BranchDescription
	Wrapper     *product.Wrapper
	Provenance  *product.Provenance
	RangeSet    rangeset.RangeSet
}

// IsValid reports whether the handle holds a present product.
func (h Handle) IsValid() bool {
	return h.Wrapper != nil && h.Wrapper.Present
}

// Value returns the product value, or nil for an empty handle.
func (h Handle) Value() any {
	if h.Wrapper == nil {
		return nil
	}

	return h.Wrapper.Value
}

// RangeOfValidity returns the range set of a run or subrun product.
func (h Handle) RangeOfValidity() rangeset.RangeSet {
	if !h.Description.BranchType.SupportsRangeSets() {
		return rangeset.Invalid()
	}

	return h.RangeSet
}
