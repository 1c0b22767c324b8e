package rangeset

import "slices"

// Disjoint reports whether no event covered by a is also covered by b.
//
// Both sets must be valid. Sets of different runs are disjoint, and an empty
// set is disjoint from anything. Identical non-empty sets are not disjoint.
func Disjoint(a, b RangeSet) bool {
	if !a.IsValid() || !b.IsValid() {
		return false
	}
	if a.run != b.run {
		return true
	}
	if a.Empty() || b.Empty() {
		return true
	}
	if a.IsFullRun() || b.IsFullRun() {
		return false
	}

	ca, cb := a.Clone(), b.Clone()
	ca.Collapse()
	cb.Collapse()

	i, j := 0, 0
	for i < len(ca.ranges) && j < len(cb.ranges) {
		x, y := ca.ranges[i], cb.ranges[j]
		if x.Overlaps(y) {
			return false
		}
		if x.Less(y) {
			i++
		} else {
			j++
		}
	}

	return true
}

// Same reports whether a and b cover exactly the same events.
// Two invalid sets are the same.
func Same(a, b RangeSet) bool {
	if a.IsValid() != b.IsValid() {
		return false
	}
	if !a.IsValid() {
		return true
	}
	if a.run != b.run {
		return false
	}

	ca, cb := a.Clone(), b.Clone()
	ca.Collapse()
	cb.Collapse()

	return slices.Equal(ca.ranges, cb.ranges)
}

// Overlapping reports whether two valid, non-empty sets of the same run share
// events without being the same. Aggregating such a pair is an error.
func Overlapping(a, b RangeSet) bool {
	if !a.IsValid() || !b.IsValid() {
		return false
	}
	if a.run != b.run || a.Empty() || b.Empty() {
		return false
	}

	return !Disjoint(a, b) && !Same(a, b)
}
