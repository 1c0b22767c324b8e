// Package collision detects product ID hash collisions while a product
// registry is being built.
package collision

import (
	"fmt"

	"github.com/arloliu/artio/errs"
)

// Tracker records branch names by their 64-bit product ID.
//
// A product ID is the hash of the branch name, so two distinct branch names
// hashing to the same ID would make products indistinguishable on disk.
// Registering such a pair is an error.
type Tracker struct {
	names map[uint64]string
	order []string
}

// NewTracker creates a new collision tracker.
func NewTracker() *Tracker {
	return &Tracker{
		names: make(map[uint64]string),
	}
}

// Track records branch name under id.
//
// Returns:
//   - ErrInvalidBranchName if name is empty
//   - ErrBranchAlreadyTracked if name was tracked before
//   - ErrHashCollision if a different name already owns id
func (t *Tracker) Track(name string, id uint64) error {
	if name == "" {
		return errs.ErrInvalidBranchName
	}

	if existing, ok := t.names[id]; ok {
		if existing == name {
			return fmt.Errorf("%w: %s", errs.ErrBranchAlreadyTracked, name)
		}

		return fmt.Errorf("%w: %q and %q share ID %#x", errs.ErrHashCollision, existing, name, id)
	}

	t.names[id] = name
	t.order = append(t.order, name)

	return nil
}

// Lookup returns the branch name tracked under id.
func (t *Tracker) Lookup(id uint64) (string, bool) {
	name, ok := t.names[id]
	return name, ok
}

// Names returns the tracked branch names in registration order.
func (t *Tracker) Names() []string {
	return t.order
}

// Count returns the number of tracked branch names.
func (t *Tracker) Count() int {
	return len(t.order)
}

// Reset clears all tracked names, keeping allocated capacity.
func (t *Tracker) Reset() {
	clear(t.names)
	t.order = t.order[:0]
}
