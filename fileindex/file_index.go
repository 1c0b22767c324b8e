// Package fileindex provides the ordered, searchable index mapping run,
// subrun and event IDs to entry numbers of one physical file.
package fileindex

import (
	"fmt"
	"io"
	"slices"

	"github.com/arloliu/artio/ids"
)

// EntryType is the kind of record an index element points to.
type EntryType uint8

const (
	KRun EntryType = iota
	KSubRun
	KEvent
	KEnd
)

func (t EntryType) String() string {
	switch t {
	case KRun:
		return "Run"
	case KSubRun:
		return "SubRun"
	case KEvent:
		return "Event"
	default:
		return "End"
	}
}

// EntryNumber is a physical entry number within a tree.
type EntryNumber = int64

// Element is one index entry.
type Element struct {
	EventID ids.EventID `cbor:"1,keyasint"`
	Entry   EntryNumber `cbor:"2,keyasint"`
}

// EntryType derives the record kind from which levels of the ID are set.
func (e Element) EntryType() EntryType {
	switch {
	case e.EventID.IsValid():
		return KEvent
	case e.EventID.IsSubRunValid():
		return KSubRun
	default:
		return KRun
	}
}

type sortState uint8

const (
	notSorted sortState = iota
	sortedRunSubRunEvent
	sortedRunSubRunEventEntry
)

// FileIndex is the ordered list of elements of one file.
//
// Elements are appended in write order. Lookups require the index to be
// sorted with SortByRunSubRunEvent; a lookup miss returns End rather than an error.
type FileIndex struct {
	entries []Element
	state   sortState

	resultCached    bool
	allInEntryOrder bool
}

// New returns an empty index.
func New() *FileIndex {
	return &FileIndex{}
}

// AddEntry appends an element in write order.
func (fi *FileIndex) AddEntry(id ids.EventID, entry EntryNumber) {
	fi.entries = append(fi.entries, Element{EventID: id, Entry: entry})
	fi.state = notSorted
	fi.resultCached = false
}

// AddEntryOnLoad appends an element read from a persisted index without
// invalidating the sort state.
func (fi *FileIndex) AddEntryOnLoad(id ids.EventID, entry EntryNumber) {
	fi.entries = append(fi.entries, Element{EventID: id, Entry: entry})
	fi.resultCached = false
}

// MarkSorted records that loaded elements are already in canonical order.
func (fi *FileIndex) MarkSorted() {
	fi.state = sortedRunSubRunEvent
}

// Len returns the number of elements.
func (fi *FileIndex) Len() int {
	return len(fi.entries)
}

// Empty reports whether the index holds no element.
func (fi *FileIndex) Empty() bool {
	return len(fi.entries) == 0
}

// End is the sentinel position returned by lookup misses.
func (fi *FileIndex) End() int {
	return len(fi.entries)
}

// At returns the element at position i.
func (fi *FileIndex) At(i int) Element {
	return fi.entries[i]
}

// Elements returns a copy of the elements in their current order.
func (fi *FileIndex) Elements() []Element {
	return slices.Clone(fi.entries)
}

// SortByRunSubRunEvent orders elements by ID, keeping write order among equal IDs.
func (fi *FileIndex) SortByRunSubRunEvent() {
	slices.SortStableFunc(fi.entries, func(a, b Element) int {
		return a.EventID.Compare(b.EventID)
	})
	fi.state = sortedRunSubRunEvent
	fi.resultCached = false
}

// SortByRunSubRunEventEntry orders run and subrun elements by ID and events
// within a subrun by entry number, preserving physical event order.
func (fi *FileIndex) SortByRunSubRunEventEntry() {
	slices.SortStableFunc(fi.entries, compareRunSubRunEventEntry)
	fi.state = sortedRunSubRunEventEntry
	fi.resultCached = false
}

func compareRunSubRunEventEntry(a, b Element) int {
	if c := ids.CompareNumbers(a.EventID.Run, b.EventID.Run); c != 0 {
		return c
	}
	if c := ids.CompareNumbers(a.EventID.SubRun, b.EventID.SubRun); c != 0 {
		return c
	}
	ta, tb := a.EntryType(), b.EntryType()
	if ta != KEvent || tb != KEvent {
		return int(ta) - int(tb)
	}
	switch {
	case a.Entry < b.Entry:
		return -1
	case a.Entry > b.Entry:
		return 1
	default:
		return 0
	}
}

// IsSorted reports whether the index is in canonical (run, subrun, event) order.
func (fi *FileIndex) IsSorted() bool {
	return fi.state == sortedRunSubRunEvent
}

// FindPosition returns the position of the first element whose ID is not
// less than id, or the position of an element equal to id when exact is set.
// It returns End when no such element exists.
//
// An index kept in physical event order (SortByRunSubRunEventEntry) is still
// ordered at run and subrun level, so events are located by scanning their subrun.
func (fi *FileIndex) FindPosition(id ids.EventID, exact bool) int {
	if fi.state == notSorted {
		fi.SortByRunSubRunEvent()
	}
	if fi.state == sortedRunSubRunEventEntry && id.IsValid() {
		return fi.scanSubRun(id, exact)
	}

	pos, found := slices.BinarySearchFunc(fi.entries, id, compareElementID)
	if exact && !found {
		return fi.End()
	}

	return pos
}

func compareElementID(e Element, target ids.EventID) int {
	return e.EventID.Compare(target)
}

func (fi *FileIndex) scanSubRun(id ids.EventID, exact bool) int {
	pos, _ := slices.BinarySearchFunc(fi.entries, id.SubRunID(), compareElementID)
	for ; pos < len(fi.entries); pos++ {
		e := fi.entries[pos]
		if e.EntryType() != KEvent {
			if e.EventID.SameSubRun(id) {
				continue
			}
			break
		}
		if !e.EventID.SameSubRun(id) {
			break
		}
		if e.EventID == id {
			return pos
		}
	}
	if exact {
		return fi.End()
	}

	return pos
}

// FindEventPosition returns the position of event id, searching forward from
// its subrun when the exact event is absent. It returns End if id is not an
// event of this file.
func (fi *FileIndex) FindEventPosition(id ids.EventID, exact bool) int {
	pos := fi.FindPosition(id, exact)
	if pos == fi.End() {
		return pos
	}
	if e := fi.entries[pos]; exact && e.EntryType() != KEvent {
		return fi.End()
	}

	return pos
}

// FindSubRunOrRunPosition returns the first run or subrun element at or after
// the given subrun, skipping any event elements in between.
func (fi *FileIndex) FindSubRunOrRunPosition(subRun ids.EventID) int {
	pos := fi.FindPosition(subRun.SubRunID(), false)
	for pos < fi.End() && fi.entries[pos].EntryType() == KEvent {
		pos++
	}

	return pos
}

// Contains reports whether id has an element in the index.
func (fi *FileIndex) Contains(id ids.EventID, exact bool) bool {
	return fi.FindPosition(id, exact) != fi.End()
}

// AllEventsInEntryOrder reports whether event elements, in index order,
// have increasing entry numbers.
func (fi *FileIndex) AllEventsInEntryOrder() bool {
	if fi.resultCached {
		return fi.allInEntryOrder
	}

	var last EntryNumber = -1
	fi.allInEntryOrder = true
	for _, e := range fi.entries {
		if e.EntryType() != KEvent {
			continue
		}
		if e.Entry < last {
			fi.allInEntryOrder = false
			break
		}
		last = e.Entry
	}
	fi.resultCached = true

	return fi.allInEntryOrder
}

// EventsUniqueAndOrdered reports whether no event ID appears twice and events
// appear in increasing ID order.
func (fi *FileIndex) EventsUniqueAndOrdered() bool {
	var prev ids.EventID
	first := true
	for _, e := range fi.entries {
		if e.EntryType() != KEvent {
			continue
		}
		if !first && !prev.Less(e.EventID) {
			return false
		}
		prev = e.EventID
		first = false
	}

	return true
}

// Print writes a human-readable table of the index.
func (fi *FileIndex) Print(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "\nPrinting FileIndex contents.  This includes a list of all Runs, SubRuns\n"+
		"and Events stored in the file.\n\n%10s%10s%10s%16s\n",
		"Run", "SubRun", "Event", "Tree Entry"); err != nil {
		return err
	}

	for _, e := range fi.entries {
		var err error
		switch e.EntryType() {
		case KEvent:
			_, err = fmt.Fprintf(w, "%10d%10d%10d%16d\n", e.EventID.Run, e.EventID.SubRun, e.EventID.Event, e.Entry)
		case KSubRun:
			_, err = fmt.Fprintf(w, "%10d%10d%10s%16d  (SubRun)\n", e.EventID.Run, e.EventID.SubRun, " ", e.Entry)
		default:
			_, err = fmt.Fprintf(w, "%10d%10s%10s%16d  (Run)\n", e.EventID.Run, " ", " ", e.Entry)
		}
		if err != nil {
			return err
		}
	}

	return nil
}
