package output

import (
	"log/slog"
	"time"

	"github.com/arloliu/artio/config"
)

// FileProperties are the running totals of one output file, compared
// against the closing criteria.
type FileProperties struct {
	Events     uint64
	SubRuns    uint64
	Runs       uint64
	InputFiles uint64
	Size       uint64
	Age        time.Duration
}

// ClosingCriteria decides when an output file should be closed and a new
// one opened. A zero limit never triggers.
type ClosingCriteria struct {
	MaxEvents     uint64
	MaxSubRuns    uint64
	MaxRuns       uint64
	MaxInputFiles uint64
	MaxSize       uint64
	MaxAge        time.Duration
}

// NewClosingCriteria takes the limits from the output configuration.
func NewClosingCriteria(out *config.Output) ClosingCriteria {
	return ClosingCriteria{
		MaxEvents:     out.MaxEvents,
		MaxSubRuns:    out.MaxSubRuns,
		MaxRuns:       out.MaxRuns,
		MaxInputFiles: out.MaxInputFiles,
		MaxSize:       out.MaxSize,
		MaxAge:        out.MaxAge,
	}
}

// SwitchesWithinInputFile reports whether a limit may close the file at an
// event, subrun or run boundary rather than between input files.
func (c ClosingCriteria) SwitchesWithinInputFile() bool {
	return c.MaxEvents > 0 || c.MaxSubRuns > 0 || c.MaxRuns > 0 || c.MaxSize > 0 || c.MaxAge > 0
}

// ShouldClose reports whether fp reached any limit.
func (c ClosingCriteria) ShouldClose(fp FileProperties) bool {
	reached := func(limit, v uint64) bool { return limit > 0 && v >= limit }

	return reached(c.MaxEvents, fp.Events) ||
		reached(c.MaxSubRuns, fp.SubRuns) ||
		reached(c.MaxRuns, fp.Runs) ||
		reached(c.MaxInputFiles, fp.InputFiles) ||
		reached(c.MaxSize, fp.Size) ||
		(c.MaxAge > 0 && fp.Age >= c.MaxAge)
}

// ShouldFastClone decides whether an output file may fast clone at all,
// before any input file is seen. Event selection and closing at a boundary
// finer than an input file both need every event written one at a time.
func ShouldFastClone(requested, wantAllEvents bool, cc ClosingCriteria, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}
	result := requested
	logger.Info("initial fast cloning configuration", "fastCloning", requested)
	if requested && !wantAllEvents {
		result = false
		logger.Warn("fast cloning deactivated due to presence of event selection configuration")
	}
	if requested && cc.SwitchesWithinInputFile() {
		result = false
		logger.Warn("fast cloning deactivated due to request to allow output file switching at an event, subrun or run boundary")
	}

	return result
}
