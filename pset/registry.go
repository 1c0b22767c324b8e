package pset

import (
	"maps"
	"slices"
	"sync"

	"github.com/arloliu/artio/errs"
)

// Registry collects the parameter sets seen by a process, keyed by ID.
//
// It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	sets map[ID]ParameterSet
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sets: make(map[ID]ParameterSet)}
}

// Put stores p and returns its ID. Storing an identical set twice is a no-op.
func (r *Registry) Put(p ParameterSet) (ID, error) {
	id, err := p.ID()
	if err != nil {
		return ID{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sets[id]; !ok {
		r.sets[id] = p
	}

	return id, nil
}

// Get returns the parameter set with the given ID.
func (r *Registry) Get(id ID) (ParameterSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.sets[id]

	return p, ok
}

// Len returns the number of stored parameter sets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sets)
}

// IDs returns the stored IDs in a stable order.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.SortedFunc(maps.Keys(r.sets), func(a, b ID) int {
		return slices.Compare(a[:], b[:])
	})
}

// Blobs returns every stored set as hex ID to canonical YAML blob, the
// layout of the side-store ParameterSets table.
func (r *Registry) Blobs() (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.sets))
	for id, p := range r.sets {
		blob, err := p.Encode()
		if err != nil {
			return nil, err
		}
		out[id.String()] = string(blob)
	}

	return out, nil
}

// Import decodes side-store blobs into the registry. The stored ID is
// trusted as the key so that references recorded by older writers resolve.
func (r *Registry) Import(blobs map[string]string) error {
	decoded := make(map[ID]ParameterSet, len(blobs))
	for key, blob := range blobs {
		id, err := ParseID(key)
		if err != nil {
			return errs.Wrap(errs.FileReadError, "pset.Import", err)
		}
		p, err := Decode([]byte(blob))
		if err != nil {
			return err
		}
		decoded[id] = p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range decoded {
		if _, ok := r.sets[id]; !ok {
			r.sets[id] = p
		}
	}

	return nil
}
