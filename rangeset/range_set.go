// Package rangeset implements the event-range algebra used to track which
// physical events a run or subrun product was derived from.
//
// A RangeSet holds ordered EventRanges sharing one run. An invalid RangeSet
// means "no information" and is distinct from a valid empty one. Run and
// subrun products split across files are recombined by merging their range
// sets; Disjoint, Same and Overlapping classify a pair before merging.
package rangeset

import (
	"slices"
	"strconv"
	"strings"

	"github.com/arloliu/artio/endian"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/ids"
	"github.com/arloliu/artio/internal/hash"
)

// InvalidID is the range-set ID carried by products whose range set was not persisted.
const InvalidID = ^uint32(0)

// RangeSet is an ordered collection of event ranges belonging to one run.
type RangeSet struct {
	run       ids.Number
	ranges    []EventRange
	collapsed bool
}

// Invalid returns the "no information" range set.
func Invalid() RangeSet {
	return RangeSet{run: ids.Invalid}
}

// New returns a valid, empty range set for run r.
func New(r ids.Number) RangeSet {
	return RangeSet{run: r, collapsed: true}
}

// ForRun returns the sentinel covering the whole run r.
func ForRun(r ids.Number) RangeSet {
	return RangeSet{run: r, ranges: []EventRange{FullSubRun(ids.Invalid)}, collapsed: true}
}

// ForSubRun returns the sentinel covering the whole subrun (r, s).
func ForSubRun(r, s ids.Number) RangeSet {
	return RangeSet{run: r, ranges: []EventRange{FullSubRun(s)}, collapsed: true}
}

// FromRanges builds a range set for run r from the given ranges, sorting them.
func FromRanges(r ids.Number, ranges ...EventRange) RangeSet {
	rs := RangeSet{run: r, ranges: slices.Clone(ranges)}
	rs.sort()

	return rs
}

// Run returns the run number. It is ids.Invalid for an invalid set.
func (rs RangeSet) Run() ids.Number {
	return rs.run
}

// Ranges returns a copy of the event ranges.
func (rs RangeSet) Ranges() []EventRange {
	return slices.Clone(rs.ranges)
}

// Len returns the number of event ranges.
func (rs RangeSet) Len() int {
	return len(rs.ranges)
}

// Front returns the first range. It panics on an empty set.
func (rs RangeSet) Front() EventRange {
	return rs.ranges[0]
}

// IsValid reports whether the set carries information.
func (rs RangeSet) IsValid() bool {
	return rs.run != ids.Invalid
}

// Empty reports whether a valid set holds no ranges.
func (rs RangeSet) Empty() bool {
	return len(rs.ranges) == 0
}

// IsCollapsed reports whether adjacent ranges have been fused.
func (rs RangeSet) IsCollapsed() bool {
	return rs.collapsed
}

// IsFullRun reports whether the set is the whole-run sentinel.
func (rs RangeSet) IsFullRun() bool {
	return rs.IsValid() && len(rs.ranges) == 1 &&
		rs.ranges[0].SubRun == ids.Invalid && rs.ranges[0].IsFullSubRun()
}

// IsFullSubRun reports whether the set is a whole-subrun sentinel.
func (rs RangeSet) IsFullSubRun() bool {
	return rs.IsValid() && len(rs.ranges) == 1 &&
		rs.ranges[0].SubRun != ids.Invalid && rs.ranges[0].IsFullSubRun()
}

// IsSorted reports whether the ranges are ordered by (subrun, begin, end).
func (rs RangeSet) IsSorted() bool {
	return slices.IsSortedFunc(rs.ranges, EventRange.Compare)
}

// Contains reports whether event e of subrun s in run r is covered.
func (rs RangeSet) Contains(r, s, e ids.Number) bool {
	if !rs.IsValid() || rs.run != r {
		return false
	}
	if rs.IsFullRun() {
		return true
	}
	for _, er := range rs.ranges {
		if er.Contains(s, e) {
			return true
		}
	}

	return false
}

// Clone returns an independent copy.
func (rs RangeSet) Clone() RangeSet {
	return RangeSet{run: rs.run, ranges: slices.Clone(rs.ranges), collapsed: rs.collapsed}
}

// Emplace appends the range [begin, end) of subrun s.
func (rs *RangeSet) Emplace(s, begin, end ids.Number) error {
	er, err := NewEventRange(s, begin, end)
	if err != nil {
		return err
	}
	rs.ranges = append(rs.ranges, er)
	rs.collapsed = false
	rs.sort()

	return nil
}

// Update extends the set with one processed event, growing the last range when
// the event follows it directly.
func (rs *RangeSet) Update(id ids.EventID) {
	if !rs.IsValid() {
		rs.run = id.Run
	}
	if n := len(rs.ranges); n > 0 {
		last := &rs.ranges[n-1]
		if last.SubRun == id.SubRun && !last.IsFullSubRun() && last.End == id.Event {
			last.End++
			return
		}
	}
	rs.ranges = append(rs.ranges, EventRange{SubRun: id.SubRun, Begin: id.Event, End: id.Event + 1})
	rs.collapsed = false
	rs.sort()
}

// Collapse sorts the ranges and fuses adjacent or overlapping ranges of the
// same subrun. A full-subrun range absorbs every other range of its subrun.
func (rs *RangeSet) Collapse() {
	if rs.collapsed {
		return
	}
	rs.sort()

	out := make([]EventRange, 0, len(rs.ranges))
	for _, er := range rs.ranges {
		if er.Empty() {
			continue
		}
		n := len(out)
		if n == 0 || out[n-1].SubRun != er.SubRun {
			out = append(out, er)
			continue
		}
		last := &out[n-1]
		switch {
		case last.IsFullSubRun():
		case er.IsFullSubRun():
			*last = er
		case er.Begin <= last.End:
			last.End = max(last.End, er.End)
		default:
			out = append(out, er)
		}
	}
	rs.ranges = out
	rs.collapsed = true
}

// Merge adds the ranges of other to rs, keeping the order invariant and
// dropping exact duplicates. Merging an invalid set is a no-op, and merging
// into an invalid set adopts other. When compact is true the result is collapsed.
func (rs *RangeSet) Merge(other RangeSet, compact bool) error {
	if !other.IsValid() {
		return nil
	}
	if !rs.IsValid() {
		*rs = other.Clone()
		if compact {
			rs.Collapse()
		}

		return nil
	}
	if rs.run != other.run {
		return errs.ErrRunMismatch
	}
	if rs.IsFullRun() && other.IsFullRun() {
		return nil
	}

	merged := make([]EventRange, 0, len(rs.ranges)+len(other.ranges))
	merged = append(merged, rs.ranges...)
	merged = append(merged, other.ranges...)
	slices.SortFunc(merged, EventRange.Compare)
	rs.ranges = slices.Compact(merged)
	rs.collapsed = false
	if compact {
		rs.Collapse()
	}

	return nil
}

// Checksum returns a stable hash of the run and the collapsed ranges, so
// two sets have the same checksum whenever Same reports them equal. It is
// used to persist each distinct set once.
func (rs RangeSet) Checksum() uint32 {
	engine := endian.GetLittleEndianEngine()
	collapsed := rs.Clone()
	collapsed.Collapse()
	sorted := collapsed.ranges
	slices.SortFunc(sorted, EventRange.Compare)

	c := hash.NewChecksum()
	var buf [12]byte
	engine.PutUint32(buf[:4], rs.run)
	c.Write(buf[:4])
	for _, er := range sorted {
		engine.PutUint32(buf[0:4], er.SubRun)
		engine.PutUint32(buf[4:8], er.Begin)
		engine.PutUint32(buf[8:12], er.End)
		c.Write(buf[:])
	}

	return c.Sum32()
}

func (rs RangeSet) String() string {
	if !rs.IsValid() {
		return " Run: INVALID"
	}

	var sb strings.Builder
	sb.WriteString(" Run: ")
	sb.WriteString(strconv.FormatUint(uint64(rs.run), 10))
	if rs.IsFullRun() {
		sb.WriteString(" (full run)")
		return sb.String()
	}
	for _, er := range rs.ranges {
		sb.WriteString("\n  ")
		sb.WriteString(er.String())
	}

	return sb.String()
}

func (rs *RangeSet) sort() {
	slices.SortFunc(rs.ranges, EventRange.Compare)
}
