package input

import (
	"log/slog"

	"github.com/arloliu/artio/config"
	"github.com/arloliu/artio/fileindex"
	"github.com/arloliu/artio/ids"
)

type dataType uint8

const (
	dataUnknown dataType = iota
	dataReal
	dataSimulation
)

// DuplicateChecker detects events seen before, in the current file or in
// every file opened so far depending on its mode.
type DuplicateChecker struct {
	mode     config.DuplicateCheckMode
	dataType dataType
	seen     map[ids.EventID]struct{}
	// noDuplicates is set when the file index proves the file has no repeats.
	noDuplicates bool
	logger       *slog.Logger
}

// NewDuplicateChecker creates a checker for the given mode.
func NewDuplicateChecker(mode config.DuplicateCheckMode, logger *slog.Logger) *DuplicateChecker {
	if logger == nil {
		logger = slog.Default()
	}

	return &DuplicateChecker{mode: mode, seen: make(map[ids.EventID]struct{}), logger: logger}
}

// Mode returns the configured mode.
func (d *DuplicateChecker) Mode() config.DuplicateCheckMode { return d.mode }

// Init records the data type of a newly opened file and whether its index
// already rules out duplicates.
func (d *DuplicateChecker) Init(realData bool, fi *fileindex.FileIndex) {
	if d.mode == config.NoDuplicateCheck {
		return
	}
	if d.mode == config.CheckEachRealDataFile {
		if realData {
			d.dataType = dataReal
		} else {
			d.dataType = dataSimulation
			return
		}
	}
	d.noDuplicates = fi.EventsUniqueAndOrdered()
}

// InputFileClosed resets the per-file state.
func (d *DuplicateChecker) InputFileClosed() {
	d.dataType = dataUnknown
	if d.mode != config.CheckAllFilesOpened {
		clear(d.seen)
	}
	d.noDuplicates = false
}

// IsDuplicateAndCheckActive reports whether id was already seen, recording it
// otherwise. A duplicate is logged and should be skipped by the caller.
func (d *DuplicateChecker) IsDuplicateAndCheckActive(id ids.EventID, fileName string) bool {
	switch d.mode {
	case config.NoDuplicateCheck:
		return false
	case config.CheckEachRealDataFile:
		if d.dataType == dataSimulation || d.noDuplicates {
			return false
		}
	case config.CheckEachFile:
		if d.noDuplicates {
			return false
		}
	case config.CheckAllFilesOpened:
	}

	if _, dup := d.seen[id]; dup {
		d.logger.Warn("duplicate event found, skipping",
			"event", id.String(), "file", fileName, "mode", d.mode.String())
		return true
	}
	d.seen[id] = struct{}{}

	return false
}
