package rangeset

import (
	"fmt"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/ids"
)

// EventRange is the half-open interval [Begin, End) of event numbers within one subrun.
//
// A range with both Begin and End set to ids.Invalid stands for the whole
// subrun without enumerating its events.
type EventRange struct {
	SubRun ids.Number `cbor:"1,keyasint"`
	Begin  ids.Number `cbor:"2,keyasint"`
	End    ids.Number `cbor:"3,keyasint"`
}

// NewEventRange validates and returns the range [begin, end) of subrun s.
func NewEventRange(s, begin, end ids.Number) (EventRange, error) {
	if begin > end || begin == ids.Invalid || end == ids.Invalid {
		return EventRange{}, fmt.Errorf("%w: subrun %d [%d,%d)", errs.ErrInvalidRange, s, begin, end)
	}

	return EventRange{SubRun: s, Begin: begin, End: end}, nil
}

// FullSubRun returns the sentinel range covering the whole subrun s.
func FullSubRun(s ids.Number) EventRange {
	return EventRange{SubRun: s, Begin: ids.Invalid, End: ids.Invalid}
}

// IsFullSubRun reports whether r is the whole-subrun sentinel.
func (r EventRange) IsFullSubRun() bool {
	return r.Begin == ids.Invalid && r.End == ids.Invalid
}

// Empty reports whether the range holds no events.
func (r EventRange) Empty() bool {
	return !r.IsFullSubRun() && r.Begin == r.End
}

// Size returns the number of events in the range. The full-subrun sentinel has no size.
func (r EventRange) Size() uint64 {
	if r.IsFullSubRun() {
		return 0
	}

	return uint64(r.End - r.Begin)
}

// Contains reports whether event e of subrun s lies in the range.
func (r EventRange) Contains(s, e ids.Number) bool {
	if r.SubRun != s {
		return false
	}
	if r.IsFullSubRun() {
		return true
	}

	return r.Begin <= e && e < r.End
}

// Overlaps reports whether two ranges of the same subrun share at least one event.
func (r EventRange) Overlaps(o EventRange) bool {
	if r.SubRun != o.SubRun {
		return false
	}
	if r.IsFullSubRun() || o.IsFullSubRun() {
		return true
	}

	return r.Begin < o.End && o.Begin < r.End
}

// IsAdjacent reports whether o starts exactly where r ends.
func (r EventRange) IsAdjacent(o EventRange) bool {
	if r.SubRun != o.SubRun || r.IsFullSubRun() || o.IsFullSubRun() {
		return false
	}

	return r.End == o.Begin
}

// Less orders ranges by (subrun, begin, end), with the full-subrun sentinel first.
func (r EventRange) Less(o EventRange) bool {
	return r.Compare(o) < 0
}

// Compare orders ranges by (subrun, begin, end), with the full-subrun sentinel first.
func (r EventRange) Compare(o EventRange) int {
	if c := ids.CompareNumbers(r.SubRun, o.SubRun); c != 0 {
		return c
	}
	if c := ids.CompareNumbers(r.Begin, o.Begin); c != 0 {
		return c
	}

	return ids.CompareNumbers(r.End, o.End)
}

func (r EventRange) String() string {
	if r.IsFullSubRun() {
		if r.SubRun == ids.Invalid {
			return "SubRun: INVALID (full run)"
		}

		return fmt.Sprintf("SubRun: %d (full subrun)", r.SubRun)
	}

	return fmt.Sprintf("SubRun: %d Event range: [%d,%d)", r.SubRun, r.Begin, r.End)
}
