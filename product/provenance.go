package product

import (
	"cmp"
	"slices"
)

// Status is the per-record state of one product.
type Status uint8

const (
	StatusUninitialized Status = iota
	StatusPresent
	StatusNeverCreated
	StatusDropped
	StatusUnknown
	StatusDummyToPreventDoubleCount
)

func (s Status) String() string {
	switch s {
	case StatusPresent:
		return "present"
	case StatusNeverCreated:
		return "neverCreated"
	case StatusDropped:
		return "dropped"
	case StatusUnknown:
		return "unknown"
	case StatusDummyToPreventDoubleCount:
		return "dummyToPreventDoubleCount"
	default:
		return "uninitialized"
	}
}

// Provenance is the status of one product in one record plus a reference
// to the products it was derived from.
type Provenance struct {
	ProductID   ID          `cbor:"1,keyasint"`
	Status      Status      `cbor:"2,keyasint"`
	ParentageID ParentageID `cbor:"3,keyasint"`
}

// NewProvenance creates a provenance record without parents.
func NewProvenance(id ID, status Status) Provenance {
	return Provenance{ProductID: id, Status: status}
}

// Present reports whether the product was written with real content.
func (p Provenance) Present() bool {
	return p.Status == StatusPresent
}

// SortProvenance orders provenance records by product ID, the order in
// which they are stored per record.
func SortProvenance(v []Provenance) {
	slices.SortFunc(v, func(a, b Provenance) int {
		return cmp.Compare(a.ProductID, b.ProductID)
	})
}

// FindProvenance returns the record for id in a provenance vector.
func FindProvenance(v []Provenance, id ID) (Provenance, bool) {
	for _, p := range v {
		if p.ProductID == id {
			return p, true
		}
	}

	return Provenance{}, false
}
