package config

import (
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/ids"
)

// SecondaryFiles names the secondary files of one primary file.
type SecondaryFiles struct {
	A string   `mapstructure:"a"`
	B []string `mapstructure:"b"`
}

// Input configures the file sequence of a job.
type Input struct {
	FileNames    []string `mapstructure:"fileNames"`
	SkipEvents   uint32   `mapstructure:"skipEvents"`
	NoEventSort  bool     `mapstructure:"noEventSort"`
	SkipBadFiles bool     `mapstructure:"skipBadFiles"`
	CacheSize    int      `mapstructure:"cacheSize"`

	TreeMaxVirtualSize        int64 `mapstructure:"treeMaxVirtualSize"`
	SaveMemoryObjectThreshold int64 `mapstructure:"saveMemoryObjectThreshold"`

	DelayedReadEventProducts  bool `mapstructure:"delayedReadEventProducts"`
	DelayedReadSubRunProducts bool `mapstructure:"delayedReadSubRunProducts"`
	DelayedReadRunProducts    bool `mapstructure:"delayedReadRunProducts"`

	InputCommands                    []string `mapstructure:"inputCommands"`
	DropDescendantsOfDroppedBranches bool     `mapstructure:"dropDescendantsOfDroppedBranches"`
	ReadParameterSets                bool     `mapstructure:"readParameterSets"`

	SecondaryFileNames []SecondaryFiles `mapstructure:"secondaryFileNames"`

	FirstRun    *uint32 `mapstructure:"firstRun"`
	FirstSubRun *uint32 `mapstructure:"firstSubRun"`
	FirstEvent  *uint32 `mapstructure:"firstEvent"`

	CompactEventRanges bool    `mapstructure:"compactEventRanges"`
	SetRunNumber       *uint32 `mapstructure:"setRunNumber"`

	DuplicateCheckMode string `mapstructure:"duplicateCheckMode"`
	ProcessingMode     string `mapstructure:"processingMode"`

	// MaxEvents and MaxSubRuns limit how many records the job processes;
	// -1 means no limit.
	MaxEvents  int `mapstructure:"maxEvents"`
	MaxSubRuns int `mapstructure:"maxSubRuns"`
	Threads    int `mapstructure:"threads"`
}

// DefaultInput returns the input settings used when nothing is configured.
func DefaultInput() Input {
	return Input{
		SaveMemoryObjectThreshold:        -1,
		DelayedReadEventProducts:         true,
		DropDescendantsOfDroppedBranches: true,
		ReadParameterSets:                true,
		ProcessingMode:                   "RunsSubRunsAndEvents",
		MaxEvents:                        -1,
		MaxSubRuns:                       -1,
		Threads:                          1,
	}
}

// Validate rejects illegal option combinations.
func (in *Input) Validate() error {
	if in.DuplicateCheckMode != "" {
		m, err := ParseDuplicateCheckMode(in.DuplicateCheckMode)
		if err != nil {
			return err
		}
		if in.NoEventSort && m != NoDuplicateCheck {
			return errs.New(errs.Configuration, "source",
				"cannot request noEventSort together with duplicateCheckMode %s", m)
		}
	}
	if _, err := ParseProcessingMode(in.ProcessingMode); err != nil {
		return err
	}
	if in.NoEventSort && in.FirstEvent != nil {
		return errs.New(errs.Configuration, "source", "cannot request noEventSort and also set firstEvent")
	}
	if len(in.SecondaryFileNames) > 0 && in.Threads != 1 {
		return errs.New(errs.Configuration, "source",
			"secondary files are only supported with a single thread, %d configured", in.Threads)
	}
	for i, sf := range in.SecondaryFileNames {
		if sf.A == "" {
			return errs.New(errs.Configuration, "source", "secondaryFileNames[%d]: empty primary name", i)
		}
		if len(sf.B) == 0 {
			return errs.New(errs.Configuration, "source", "secondaryFileNames[%d]: no secondary names for %s", i, sf.A)
		}
		for _, b := range sf.B {
			if b == "" {
				return errs.New(errs.Configuration, "source", "secondaryFileNames[%d]: empty secondary name for %s", i, sf.A)
			}
		}
	}
	if in.CacheSize < 0 {
		return errs.New(errs.Configuration, "source", "cacheSize must not be negative")
	}

	return nil
}

// DuplicateCheck returns the parsed duplicate-check mode. An unset mode
// means noDuplicateCheck under noEventSort and checkEachRealDataFile otherwise.
func (in *Input) DuplicateCheck() DuplicateCheckMode {
	if in.DuplicateCheckMode == "" {
		if in.NoEventSort {
			return NoDuplicateCheck
		}

		return CheckEachRealDataFile
	}
	m, _ := ParseDuplicateCheckMode(in.DuplicateCheckMode)

	return m
}

// Processing returns the parsed processing mode.
func (in *Input) Processing() ProcessingMode {
	m, err := ParseProcessingMode(in.ProcessingMode)
	if err != nil {
		return RunsSubRunsAndEvents
	}

	return m
}

// OriginEventID returns the first event the job wants, built from
// firstRun, firstSubRun and firstEvent. Unset levels default to run 1,
// subrun 0 and event 1.
func (in *Input) OriginEventID() ids.EventID {
	run, subRun, event := ids.Number(1), ids.Number(0), ids.Number(1)
	if in.FirstRun != nil {
		run = *in.FirstRun
	}
	if in.FirstSubRun != nil {
		subRun = *in.FirstSubRun
	}
	if in.FirstEvent != nil {
		event = *in.FirstEvent
	}

	return ids.New(run, subRun, event)
}
