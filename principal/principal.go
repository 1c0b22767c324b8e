// Package principal holds the products of one record (an event, subrun, run
// or the per-file results) together with the header describing the record.
//
// Products read from a file are materialized lazily through a DelayedReader.
// Products made by the current process are put directly and are always
// resolved.
package principal

import (
	"sync"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/ids"
	"github.com/arloliu/artio/product"
	"github.com/arloliu/artio/rangeset"
)

// Principal is the container of the products of one record.
type Principal struct {
	mu sync.Mutex

	aux        Auxiliary
	types      *product.Types
	reader     DelayedReader
	parentages *product.ParentageRegistry

	groups map[product.ID]*Group
	order  []product.ID

	provLoaded bool
	provs      []product.Provenance

	rangeSet   rangeset.RangeSet
	seenRanges rangeset.RangeSet

	secondaries  []*Principal
	secondaryIdx int
	secondaryEnd bool

	lastInSubRun bool
}

// New creates a principal for the record described by aux.
//
// Parameters:
//   - aux: Header of the record
//   - descs: Descriptions of every product the record may hold
//   - types: Codec table used for dummy products, may be nil
//   - reader: Source of delayed products, or nil for a record built in memory
func New(aux Auxiliary, descs []product.BranchDescription, types *product.Types, reader DelayedReader) *Principal {
	p := &Principal{
		aux:        aux,
		types:      types,
		reader:     reader,
		groups:     make(map[product.ID]*Group, len(descs)),
		rangeSet:   rangeset.Invalid(),
		seenRanges: rangeset.Invalid(),
	}
	for _, bd := range descs {
		if bd.BranchType != aux.BranchType() {
			continue
		}
		if _, ok := p.groups[bd.ProductID]; ok {
			continue
		}
		p.groups[bd.ProductID] = &Group{desc: bd}
		p.order = append(p.order, bd.ProductID)
	}

	return p
}

// SetParentageRegistry sets the registry that Put records parentage in.
func (p *Principal) SetParentageRegistry(r *product.ParentageRegistry) {
	p.parentages = r
}

func (p *Principal) BranchType() format.BranchType { return p.aux.BranchType() }

// ID returns the record ID. Results principals have an invalid ID.
func (p *Principal) ID() ids.EventID { return p.aux.RecordID() }

// Auxiliary returns the record header.
func (p *Principal) Auxiliary() Auxiliary { return p.aux }

// SetAuxiliary replaces the record header, as the output does when it
// assigns a persisted range-set ID.
func (p *Principal) SetAuxiliary(aux Auxiliary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.aux = aux
}

// Reader returns the delayed reader backing the principal, or nil.
func (p *Principal) Reader() DelayedReader { return p.reader }

// Descriptions returns the descriptions of all products in insertion order.
func (p *Principal) Descriptions() []product.BranchDescription {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]product.BranchDescription, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.groups[id].desc)
	}

	return out
}

// ProductDescription returns the description of product id.
func (p *Principal) ProductDescription(id product.ID) (product.BranchDescription, bool) {
	g := p.group(id)
	if g == nil {
		return product.BranchDescription{}, false
	}

	return g.desc, true
}

func (p *Principal) group(id product.ID) *Group {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.groups[id]
}

// Get returns the product id, materializing it on first access.
//
// A dropped product yields a handle holding a dummy value. When the record
// does not hold the product, the same record in the secondary files is
// consulted. ErrProductNotFound is returned when no file holds it.
func (p *Principal) Get(id product.ID) (Handle, error) {
	g := p.group(id)
	if g != nil {
		h, err := p.handle(g)
		if err != nil || h.IsValid() || g.desc.Validity == product.Dropped {
			return h, err
		}
	}

	for i := 0; ; i++ {
		sec, err := p.secondary(i)
		if err != nil {
			return Handle{}, err
		}
		if sec == nil {
			break
		}
		if sg := sec.group(id); sg != nil {
			h, err := sec.handle(sg)
			if err != nil {
				return Handle{}, err
			}
			if h.IsValid() {
				return h, nil
			}
		}
	}

	if g != nil {
		return p.handle(g)
	}

	return Handle{}, errs.Wrap(errs.LogicError, "get "+id.String(), errs.ErrProductNotFound)
}

// GetByBranchName looks a product up by its branch name.
func (p *Principal) GetByBranchName(name string) (Handle, error) {
	return p.Get(product.ComputeID(name))
}

func (p *Principal) handle(g *Group) (Handle, error) {
	w, rs, err := g.resolve(p)
	if err != nil {
		return Handle{}, err
	}
	prov, _ := p.provenanceOf(g)

	return Handle{Description: g.desc, Wrapper: w, Provenance: prov, RangeSet: rs}, nil
}

// GetForOutput returns the product for writing. Unless resolve is set, a
// product that has not been read yet is returned without its value so that
// the writer can copy provenance without materializing the payload.
func (p *Principal) GetForOutput(id product.ID, resolve bool) (Handle, bool, error) {
	g := p.group(id)
	if g == nil {
		return Handle{}, false, nil
	}
	if !resolve && !g.Resolved() {
		prov, err := p.provenanceOf(g)
		if err != nil {
			return Handle{}, false, err
		}

		return Handle{Description: g.desc, Provenance: prov, RangeSet: rangeset.Invalid()}, true, nil
	}

	h, err := p.handle(g)
	if err != nil {
		return Handle{}, false, err
	}

	return h, true, nil
}

// Put stores a product made by the current process.
//
// Parameters:
//   - desc: Description of the product; must belong to this record's branch type
//   - value: Product value, a pointer to the registered type
//   - rs: Range of validity for run and subrun products; an invalid set
//     selects the principal's own range set
//   - parents: Products the value was derived from
func (p *Principal) Put(desc product.BranchDescription, value any, rs rangeset.RangeSet, parents ...product.ID) error {
	op := "put " + desc.BranchName()
	if desc.BranchType != p.BranchType() {
		return errs.New(errs.LogicError, op, "product of branch type %s put into %s record", desc.BranchType, p.BranchType())
	}
	if value == nil {
		return errs.New(errs.LogicError, op, "nil product value")
	}

	prov := product.NewProvenance(desc.ProductID, product.StatusPresent)
	if len(parents) > 0 {
		parentage := product.NewParentage(parents...)
		pid, err := parentage.ID()
		if err != nil {
			return errs.Wrap(errs.LogicError, op, err)
		}
		if p.parentages != nil {
			p.parentages.Emplace(pid, parentage)
		}
		prov.ParentageID = pid
	}

	if !desc.BranchType.SupportsRangeSets() {
		rs = rangeset.Invalid()
	} else if !rs.IsValid() {
		rs = p.RangeSet()
	}

	desc.Validity = product.Produced

	p.mu.Lock()
	defer p.mu.Unlock()

	if g, ok := p.groups[desc.ProductID]; ok {
		if g.desc.Produced() && g.hasValue() {
			return errs.New(errs.LogicError, op, "product already put in %s", p.aux.RecordID())
		}
	} else {
		p.order = append(p.order, desc.ProductID)
	}
	p.groups[desc.ProductID] = newProducedGroup(desc, product.NewWrapper(value), rs, prov)

	return nil
}

// BranchToProductProvenance returns the provenance of product id in this
// record, loading the provenance vector from the reader on first use.
func (p *Principal) BranchToProductProvenance(id product.ID) (product.Provenance, bool, error) {
	g := p.group(id)
	if g == nil {
		return product.Provenance{}, false, nil
	}
	prov, err := p.provenanceOf(g)
	if err != nil || prov == nil {
		return product.Provenance{}, false, err
	}

	return *prov, true, nil
}

func (p *Principal) provenanceOf(g *Group) (*product.Provenance, error) {
	if prov := g.provenance(); prov != nil {
		return prov, nil
	}
	if err := p.loadProvenance(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	prov, ok := product.FindProvenance(p.provs, g.desc.ProductID)
	p.mu.Unlock()
	if !ok {
		return nil, nil
	}
	g.setProvenance(prov)

	return g.provenance(), nil
}

func (p *Principal) loadProvenance() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.provLoaded || p.reader == nil {
		return nil
	}
	provs, err := p.reader.ReadProvenance()
	if err != nil {
		return err
	}
	p.provs = provs
	p.provLoaded = true

	return nil
}

// ReadImmediate materializes every present product of the record.
func (p *Principal) ReadImmediate() error {
	for _, bd := range p.Descriptions() {
		if !bd.Present() {
			continue
		}
		if _, err := p.handle(p.group(bd.ProductID)); err != nil {
			return err
		}
	}

	return nil
}

// RangeSet returns the range of validity of a run or subrun record.
func (p *Principal) RangeSet() rangeset.RangeSet {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.rangeSet.Clone()
}

// SetRangeSet sets the range of validity of the record.
func (p *Principal) SetRangeSet(rs rangeset.RangeSet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rangeSet = rs.Clone()
}

// UpdateSeenRanges merges rs into the ranges already written for this record.
func (p *Principal) UpdateSeenRanges(rs rangeset.RangeSet) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.seenRanges.IsValid() {
		p.seenRanges = rs.Clone()
		return nil
	}

	return p.seenRanges.Merge(rs, false)
}

// SeenRanges returns the ranges already written for this record.
func (p *Principal) SeenRanges() rangeset.RangeSet {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.seenRanges.Clone()
}

// LastInSubRun reports whether the event was the last of its subrun in the file.
func (p *Principal) LastInSubRun() bool { return p.lastInSubRun }

// SetLastInSubRun records whether the event closes its subrun.
func (p *Principal) SetLastInSubRun(v bool) { p.lastInSubRun = v }

// AddSecondaryPrincipal attaches the same record read from a secondary file.
func (p *Principal) AddSecondaryPrincipal(sec *Principal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.secondaries = append(p.secondaries, sec)
}

// secondary returns the i-th secondary principal, pulling more from the
// reader on demand. It returns nil when there is none.
func (p *Principal) secondary(i int) (*Principal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.secondaries) <= i {
		if p.secondaryEnd || p.reader == nil {
			return nil, nil
		}
		sec, err := p.reader.ReadFromSecondaryFile(&p.secondaryIdx)
		if err != nil {
			return nil, err
		}
		if sec == nil {
			p.secondaryEnd = true
			return nil, nil
		}
		p.secondaries = append(p.secondaries, sec)
	}

	return p.secondaries[i], nil
}

func (p *Principal) dummy(bd product.BranchDescription) (*product.Wrapper, error) {
	w := &product.Wrapper{RangeSetID: rangeset.InvalidID}
	if p.types == nil {
		return w, nil
	}
	c, err := p.types.Lookup(bd.TypeName)
	if err != nil {
		return nil, err
	}
	w.Value = c.New()

	return w, nil
}
