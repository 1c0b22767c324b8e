package product

import (
	"errors"
	"slices"
	"sync"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/internal/collision"
)

// Registry is the table of product descriptions known to a file or process.
//
// Product IDs are hashes of branch names, so the registry refuses two
// distinct branch names with the same ID. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byID    map[ID]BranchDescription
	tracker *collision.Tracker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:    make(map[ID]BranchDescription),
		tracker: collision.NewTracker(),
	}
}

// Add registers bd. Adding a description already present is a no-op.
//
// Returns:
//   - error: a DataCorruption error if bd's ID does not match its branch
//     name, or ErrHashCollision if another branch name owns the ID
func (r *Registry) Add(bd BranchDescription) error {
	name := bd.BranchName()
	if ComputeID(name) != bd.ProductID {
		return errs.New(errs.DataCorruption, "Registry.Add", "product id %s does not match branch %s", bd.ProductID, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.tracker.Track(name, uint64(bd.ProductID)); err != nil {
		if errors.Is(err, errs.ErrBranchAlreadyTracked) {
			return nil
		}

		return errs.Wrap(errs.LogicError, "Registry.Add", err)
	}
	r.byID[bd.ProductID] = bd

	return nil
}

// Get returns the description for id.
func (r *Registry) Get(id ID) (BranchDescription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bd, ok := r.byID[id]

	return bd, ok
}

// SetValidity updates the transient validity of a registered product.
func (r *Registry) SetValidity(id ID, v Validity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bd, ok := r.byID[id]; ok {
		bd.Validity = v
		r.byID[id] = bd
	}
}

// Remove drops id from the registry.
func (r *Registry) Remove(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

// Len returns the number of descriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}

// Descriptions returns the descriptions of one branch type ordered by branch name.
func (r *Registry) Descriptions(bt format.BranchType) []BranchDescription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]BranchDescription, 0, len(r.byID))
	for _, bd := range r.byID {
		if bd.BranchType == bt {
			out = append(out, bd)
		}
	}
	sortDescriptions(out)

	return out
}

// All returns every description ordered by branch type, then branch name.
func (r *Registry) All() []BranchDescription {
	var out []BranchDescription
	for _, bt := range format.BranchTypes {
		out = append(out, r.Descriptions(bt)...)
	}

	return out
}

// Merge adds every description of other.
func (r *Registry) Merge(other *Registry) error {
	for _, bd := range other.All() {
		if err := r.Add(bd); err != nil {
			return err
		}
	}

	return nil
}

func sortDescriptions(v []BranchDescription) {
	slices.SortFunc(v, func(a, b BranchDescription) int {
		an, bn := a.BranchName(), b.BranchName()
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	})
}
