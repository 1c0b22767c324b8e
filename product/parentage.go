package product

import (
	"encoding/hex"
	"maps"
	"slices"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/arloliu/artio/encoding"
)

// ParentageID is the digest of a Parentage.
type ParentageID [32]byte

func (id ParentageID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is unset, meaning "no parents recorded".
func (id ParentageID) IsZero() bool {
	return id == ParentageID{}
}

// Parentage lists the products a product was derived from.
type Parentage struct {
	Parents []ID `cbor:"1,keyasint"`
}

// NewParentage creates a parentage with sorted, unique parents.
func NewParentage(parents ...ID) Parentage {
	p := slices.Clone(parents)
	slices.Sort(p)

	return Parentage{Parents: slices.Compact(p)}
}

// ID returns the content digest of p.
func (p Parentage) ID() (ParentageID, error) {
	raw, err := encoding.MarshalRecord(p)
	if err != nil {
		return ParentageID{}, err
	}

	return ParentageID(blake3.Sum256(raw)), nil
}

// ParentageRegistry collects parentage records by digest.
type ParentageRegistry struct {
	mu      sync.RWMutex
	entries map[ParentageID]Parentage
}

// NewParentageRegistry creates an empty registry.
func NewParentageRegistry() *ParentageRegistry {
	return &ParentageRegistry{entries: make(map[ParentageID]Parentage)}
}

// Put stores p and returns its digest.
func (r *ParentageRegistry) Put(p Parentage) (ParentageID, error) {
	id, err := p.ID()
	if err != nil {
		return ParentageID{}, err
	}
	r.Emplace(id, p)

	return id, nil
}

// Emplace stores p under an already verified digest.
func (r *ParentageRegistry) Emplace(id ParentageID, p Parentage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		r.entries[id] = p
	}
}

// Get returns the parentage stored under id.
func (r *ParentageRegistry) Get(id ParentageID) (Parentage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.entries[id]

	return p, ok
}

// Len returns the number of stored records.
func (r *ParentageRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// IDs returns the stored digests in sorted order.
func (r *ParentageRegistry) IDs() []ParentageID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.SortedFunc(maps.Keys(r.entries), func(a, b ParentageID) int {
		return slices.Compare(a[:], b[:])
	})
}
