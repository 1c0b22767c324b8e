package config

import (
	"strings"

	"github.com/arloliu/artio/errs"
)

// DuplicateCheckMode selects the scope in which repeated events are detected.
type DuplicateCheckMode uint8

const (
	NoDuplicateCheck DuplicateCheckMode = iota
	CheckEachFile
	CheckEachRealDataFile
	CheckAllFilesOpened
)

var duplicateCheckModes = map[string]DuplicateCheckMode{
	"noDuplicateCheck":      NoDuplicateCheck,
	"checkEachFile":         CheckEachFile,
	"checkEachRealDataFile": CheckEachRealDataFile,
	"checkAllFilesOpened":   CheckAllFilesOpened,
}

// ParseDuplicateCheckMode converts a configuration name to a mode.
func ParseDuplicateCheckMode(s string) (DuplicateCheckMode, error) {
	for name, m := range duplicateCheckModes {
		if strings.EqualFold(name, s) {
			return m, nil
		}
	}

	return 0, errs.New(errs.Configuration, "duplicateCheckMode", "unknown mode %q", s)
}

func (m DuplicateCheckMode) String() string {
	for name, v := range duplicateCheckModes {
		if v == m {
			return name
		}
	}

	return "unknown"
}

// ProcessingMode selects which record kinds are delivered.
type ProcessingMode uint8

const (
	Runs ProcessingMode = iota
	RunsAndSubRuns
	RunsSubRunsAndEvents
)

// ParseProcessingMode converts a configuration name to a mode.
func ParseProcessingMode(s string) (ProcessingMode, error) {
	switch strings.ToLower(s) {
	case "runs":
		return Runs, nil
	case "runsandsubruns":
		return RunsAndSubRuns, nil
	case "runssubrunsandevents":
		return RunsSubRunsAndEvents, nil
	}

	return 0, errs.New(errs.Configuration, "processingMode", "unknown mode %q", s)
}

func (m ProcessingMode) String() string {
	switch m {
	case Runs:
		return "Runs"
	case RunsAndSubRuns:
		return "RunsAndSubRuns"
	default:
		return "RunsSubRunsAndEvents"
	}
}

// DropMetaData selects which provenance of prior processes is written out.
type DropMetaData uint8

const (
	DropNone DropMetaData = iota
	DropPrior
	DropAll
)

// ParseDropMetaData converts NONE, PRIOR or ALL to a DropMetaData value.
func ParseDropMetaData(s string) (DropMetaData, error) {
	switch strings.ToUpper(s) {
	case "", "NONE":
		return DropNone, nil
	case "PRIOR":
		return DropPrior, nil
	case "ALL":
		return DropAll, nil
	}

	return 0, errs.New(errs.Configuration, "dropMetaData", "unknown value %q, expected NONE, PRIOR or ALL", s)
}

func (d DropMetaData) String() string {
	switch d {
	case DropPrior:
		return "PRIOR"
	case DropAll:
		return "ALL"
	default:
		return "NONE"
	}
}
