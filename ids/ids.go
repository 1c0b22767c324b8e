// Package ids provides the hierarchical run/subrun/event identifiers.
//
// An EventID addresses one record. Run and subrun records use the same type
// with the lower levels set to Invalid, so a single totally ordered key can
// describe all three kinds. Invalid components sort before valid ones, which
// places a run before its subruns and a subrun before its events.
package ids

import (
	"fmt"
	"math"
)

// Number is a run, subrun or event number.
type Number = uint32

const (
	// Invalid marks an unset level.
	Invalid Number = math.MaxUint32
	// MaxValid is the largest legal number at any level.
	MaxValid Number = math.MaxUint32 - 1
	// First is the first legal run and subrun number.
	First Number = 0
	// FirstEvent is the first legal event number.
	FirstEvent Number = 1
)

// EventID identifies a run, subrun or event record.
type EventID struct {
	Run    Number `cbor:"1,keyasint"`
	SubRun Number `cbor:"2,keyasint"`
	Event  Number `cbor:"3,keyasint"`
}

// New returns the ID of event e in subrun s of run r.
func New(r, s, e Number) EventID {
	return EventID{Run: r, SubRun: s, Event: e}
}

// ForRun returns the ID used for the run record r.
func ForRun(r Number) EventID {
	return EventID{Run: r, SubRun: Invalid, Event: Invalid}
}

// ForSubRun returns the ID used for the subrun record (r, s).
func ForSubRun(r, s Number) EventID {
	return EventID{Run: r, SubRun: s, Event: Invalid}
}

// InvalidID returns an ID with every level unset.
func InvalidID() EventID {
	return EventID{Run: Invalid, SubRun: Invalid, Event: Invalid}
}

// IsValid reports whether every level is set.
func (id EventID) IsValid() bool {
	return id.Run != Invalid && id.SubRun != Invalid && id.Event != Invalid
}

// IsRunValid reports whether the run level is set.
func (id EventID) IsRunValid() bool {
	return id.Run != Invalid
}

// IsSubRunValid reports whether the run and subrun levels are set.
func (id EventID) IsSubRunValid() bool {
	return id.Run != Invalid && id.SubRun != Invalid
}

// RunID returns the run-level ID containing id.
func (id EventID) RunID() EventID {
	return ForRun(id.Run)
}

// SubRunID returns the subrun-level ID containing id.
func (id EventID) SubRunID() EventID {
	return ForSubRun(id.Run, id.SubRun)
}

// SameRun reports whether both IDs share the run number.
func (id EventID) SameRun(o EventID) bool {
	return id.Run == o.Run
}

// SameSubRun reports whether both IDs share the run and subrun numbers.
func (id EventID) SameSubRun(o EventID) bool {
	return id.Run == o.Run && id.SubRun == o.SubRun
}

// NextEvent returns the ID of the following event in the same subrun.
func (id EventID) NextEvent() EventID {
	return EventID{Run: id.Run, SubRun: id.SubRun, Event: id.Event + 1}
}

// CompareNumbers orders two numbers of the same level, with Invalid first.
func CompareNumbers(a, b Number) int {
	switch {
	case a == b:
		return 0
	case a == Invalid:
		return -1
	case b == Invalid:
		return 1
	case a < b:
		return -1
	default:
		return 1
	}
}

// Compare orders IDs lexicographically on (run, subrun, event).
func (id EventID) Compare(o EventID) int {
	if c := CompareNumbers(id.Run, o.Run); c != 0 {
		return c
	}
	if c := CompareNumbers(id.SubRun, o.SubRun); c != 0 {
		return c
	}

	return CompareNumbers(id.Event, o.Event)
}

// Less reports whether id sorts before o.
func (id EventID) Less(o EventID) bool {
	return id.Compare(o) < 0
}

func (id EventID) String() string {
	switch {
	case !id.IsRunValid():
		return "run: INVALID"
	case id.SubRun == Invalid:
		return fmt.Sprintf("run: %d", id.Run)
	case id.Event == Invalid:
		return fmt.Sprintf("run: %d subRun: %d", id.Run, id.SubRun)
	default:
		return fmt.Sprintf("run: %d subRun: %d event: %d", id.Run, id.SubRun, id.Event)
	}
}

// ValidateRun reports whether r is a legal run number.
func ValidateRun(r int64) bool {
	return r >= int64(First) && r <= int64(MaxValid)
}
