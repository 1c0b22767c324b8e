package product

import (
	"maps"
	"slices"
)

// Dependencies maps each product to the products directly derived from it.
type Dependencies map[ID][]ID

// Insert records that child was derived from parent.
func (d Dependencies) Insert(parent, child ID) {
	if slices.Contains(d[parent], child) {
		return
	}
	d[parent] = append(d[parent], child)
}

// InsertEmpty makes parent known even without children.
func (d Dependencies) InsertEmpty(parent ID) {
	if _, ok := d[parent]; !ok {
		d[parent] = nil
	}
}

// Children returns the direct children of parent.
func (d Dependencies) Children(parent ID) []ID {
	return d[parent]
}

// AppendToDescendants adds id and every product derived from it, directly
// or transitively, to set.
func (d Dependencies) AppendToDescendants(id ID, set map[ID]struct{}) {
	stack := []ID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := set[cur]; seen {
			continue
		}
		set[cur] = struct{}{}
		stack = append(stack, d[cur]...)
	}
}

// Parents returns the sorted list of products with at least one child.
func (d Dependencies) Parents() []ID {
	return slices.Sorted(maps.Keys(d))
}
