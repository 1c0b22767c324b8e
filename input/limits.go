package input

import (
	"github.com/arloliu/artio/config"
	"github.com/arloliu/artio/ids"
)

// ItemType is the kind of the next item a source delivers.
type ItemType uint8

const (
	IsInvalid ItemType = iota
	IsStop
	IsFile
	IsRun
	IsSubRun
	IsEvent
)

func (t ItemType) String() string {
	switch t {
	case IsStop:
		return "Stop"
	case IsFile:
		return "File"
	case IsRun:
		return "Run"
	case IsSubRun:
		return "SubRun"
	case IsEvent:
		return "Event"
	default:
		return "Invalid"
	}
}

// ProcessingLimits tracks how many events and subruns a job has processed
// against its configured maximums. A negative maximum means unlimited.
type ProcessingLimits struct {
	mode       config.ProcessingMode
	maxEvents  int
	maxSubRuns int
	events     int
	subRuns    int
	lastSubRun ids.EventID
}

// NewProcessingLimits creates limits for the given mode and maximums.
func NewProcessingLimits(mode config.ProcessingMode, maxEvents, maxSubRuns int) *ProcessingLimits {
	return &ProcessingLimits{mode: mode, maxEvents: maxEvents, maxSubRuns: maxSubRuns, lastSubRun: ids.InvalidID()}
}

func (l *ProcessingLimits) ProcessingMode() config.ProcessingMode { return l.mode }

// RemainingEvents returns the number of events left, or -1 when unlimited.
func (l *ProcessingLimits) RemainingEvents() int {
	if l.maxEvents < 0 {
		return -1
	}

	return max(l.maxEvents-l.events, 0)
}

// RemainingSubRuns returns the number of subruns left, or -1 when unlimited.
func (l *ProcessingLimits) RemainingSubRuns() int {
	if l.maxSubRuns < 0 {
		return -1
	}

	return max(l.maxSubRuns-l.subRuns, 0)
}

// AtLimit reports whether either maximum has been reached.
func (l *ProcessingLimits) AtLimit() bool {
	return l.RemainingEvents() == 0 || l.RemainingSubRuns() == 0
}

// ItemTypeAllowed reports whether items of type t are delivered in this mode.
func (l *ProcessingLimits) ItemTypeAllowed(t ItemType) bool {
	switch t {
	case IsSubRun:
		return l.mode != config.Runs
	case IsEvent:
		return l.mode == config.RunsSubRunsAndEvents
	default:
		return true
	}
}

// Update counts a delivered event or subrun.
func (l *ProcessingLimits) Update(id ids.EventID) {
	switch {
	case id.IsValid():
		l.events++
	case id.IsSubRunValid():
		if id != l.lastSubRun {
			l.subRuns++
			l.lastSubRun = id
		}
	}
}
