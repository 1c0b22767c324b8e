package input

import (
	"log/slog"

	"github.com/arloliu/artio/config"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/ids"
	"github.com/arloliu/artio/principal"
)

// AccessState is the position of a Source in a seek cascade.
type AccessState uint8

const (
	Sequential AccessState = iota
	SeekingFile
	SeekingRun
	SeekingSubRun
	SeekingEvent
)

func (s AccessState) String() string {
	switch s {
	case Sequential:
		return "Sequential"
	case SeekingFile:
		return "SeekingFile"
	case SeekingRun:
		return "SeekingRun"
	case SeekingSubRun:
		return "SeekingSubRun"
	case SeekingEvent:
		return "SeekingEvent"
	default:
		return "Unknown"
	}
}

// Source is the input of an event-processing job. It delivers files, runs,
// subruns and events in order and supports random access to events.
//
// A random-access seek does not deliver the event at once. The next calls
// to NextItemType and the matching Read method descend one level at a time
// from the first boundary the seek crosses, then the Source returns to
// sequential delivery.
type Source struct {
	seq    *Sequence
	limits *ProcessingLimits
	logger *slog.Logger

	state    AccessState
	wanted   ids.EventID
	lastRead ids.EventID
}

// NewSource opens the files named by in.FileNames.
//
// Parameters:
//   - in: Input configuration
//   - opts: Options applied to every opened file
//
// Returns:
//   - *Source: The source, positioned before its first file
//   - error: Configuration or FileOpenError as returned by NewSequence
func NewSource(in config.Input, opts ...FileOption) (*Source, error) {
	limits := NewProcessingLimits(in.Processing(), in.MaxEvents, in.MaxSubRuns)
	seq, err := NewSequence(in, NewCatalog(in.FileNames), limits, opts...)
	if err != nil {
		return nil, err
	}

	return &Source{
		seq:      seq,
		limits:   limits,
		logger:   seq.logger,
		wanted:   ids.InvalidID(),
		lastRead: ids.InvalidID(),
	}, nil
}

// Sequence returns the underlying file sequence.
func (s *Source) Sequence() *Sequence { return s.seq }

// Limits returns the processing limits.
func (s *Source) Limits() *ProcessingLimits { return s.limits }

// State returns the access state.
func (s *Source) State() AccessState { return s.state }

// LastReadEventID returns the ID of the last delivered event.
func (s *Source) LastReadEventID() ids.EventID { return s.lastRead }

func (s *Source) nextWanted() ItemType {
	if s.limits.AtLimit() {
		return IsStop
	}
	next := s.seq.GetNextItemType()
	for !s.limits.ItemTypeAllowed(next) {
		next = s.seq.GetNextItemType()
	}

	return next
}

// NextItemType returns the kind of item the next Read call delivers.
func (s *Source) NextItemType() (ItemType, error) {
	switch s.state {
	case Sequential:
		return s.nextWanted(), nil
	case SeekingFile:
		return IsFile, nil
	case SeekingRun:
		return IsRun, s.seq.readIt(s.wanted.RunID(), false)
	case SeekingSubRun:
		return IsSubRun, s.seq.readIt(s.wanted.SubRunID(), false)
	case SeekingEvent:
		if err := s.seq.readIt(s.wanted, true); err != nil {
			return IsInvalid, err
		}
		s.lastRead = s.wanted

		return IsEvent, nil
	}

	return IsInvalid, errs.New(errs.LogicError, "next item", "unreachable access state %d", s.state)
}

func (s *Source) wrongState(op string) error {
	return errs.New(errs.LogicError, op, "called in access state %s", s.state)
}

// ReadFile delivers the current file.
func (s *Source) ReadFile() (*FileBlock, error) {
	switch s.state {
	case Sequential:
	case SeekingFile:
		s.state = SeekingRun
	default:
		return nil, s.wrongState("read file")
	}

	return s.seq.ReadFile()
}

// ReadRun delivers the run at the cursor.
func (s *Source) ReadRun() (*principal.Principal, error) {
	switch s.state {
	case Sequential:
	case SeekingRun:
		s.state = SeekingSubRun
	default:
		return nil, s.wrongState("read run")
	}

	return s.seq.ReadRun()
}

// ReadSubRun delivers the subrun at the cursor and counts it against the
// subrun limit.
func (s *Source) ReadSubRun() (*principal.Principal, error) {
	switch s.state {
	case Sequential:
	case SeekingSubRun:
		s.state = SeekingEvent
	default:
		return nil, s.wrongState("read subrun")
	}
	p, err := s.seq.ReadSubRun()
	if err != nil {
		return nil, err
	}
	s.limits.Update(p.ID())

	return p, nil
}

// ReadEvent delivers the event at the cursor and counts it against the
// event limit. A seek in progress ends here.
func (s *Source) ReadEvent() (*principal.Principal, error) {
	switch s.state {
	case Sequential:
	case SeekingEvent:
		s.state = Sequential
	default:
		return nil, s.wrongState("read event")
	}
	p, err := s.seq.ReadEvent()
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	s.lastRead = p.ID()
	s.limits.Update(p.ID())

	return p, nil
}

// ReadResults delivers the results record of the current file.
func (s *Source) ReadResults() (*principal.Principal, error) {
	return s.seq.ReadResults()
}

// CloseFile closes the current file. While a seek has to open a file it
// is a no-op, so the file the seek positioned on stays open.
func (s *Source) CloseFile() error {
	if s.state == SeekingFile {
		return nil
	}

	return s.seq.CloseFile()
}

// EndJob closes every open file.
func (s *Source) EndJob() error {
	return s.seq.EndJob()
}

// SeekToEvent positions the source on event id.
//
// Returns:
//   - bool: Whether any file holds the event
//   - error: LogicError if a seek is already in progress, or a failure to
//     open a file on the way
func (s *Source) SeekToEvent(id ids.EventID, exact bool) (bool, error) {
	if s.state != Sequential {
		return false, errs.New(errs.LogicError, "seek", "seek to %s while a seek is in progress", id)
	}
	found, err := s.seq.SeekToEvent(id, exact)
	if err != nil || !found.IsValid() {
		return false, err
	}
	s.updateAccessState(found)

	return true, nil
}

// SeekToEventOffset moves offset events forward or backward from the
// current position.
func (s *Source) SeekToEventOffset(offset int) (bool, error) {
	if s.state != Sequential {
		return false, errs.New(errs.LogicError, "seek", "seek by %d while a seek is in progress", offset)
	}
	found, err := s.seq.SeekToEventOffset(offset)
	if err != nil || !found.IsValid() {
		return false, err
	}
	s.updateAccessState(found)

	return true, nil
}

// updateAccessState picks the first level the seek to id crosses.
func (s *Source) updateAccessState(id ids.EventID) {
	s.wanted = id
	switch {
	case s.seq.switchedFile():
		s.state = SeekingFile
	case !s.lastRead.IsValid() || !id.SameRun(s.lastRead):
		s.state = SeekingRun
	case !id.SameSubRun(s.lastRead):
		s.state = SeekingSubRun
	default:
		s.state = SeekingEvent
	}
	s.logger.Debug("seek", "event", id, "state", s.state.String())
}

// Visitor receives the items a Source delivers.
type Visitor interface {
	File(*FileBlock) error
	Run(*principal.Principal) error
	SubRun(*principal.Principal) error
	Event(*principal.Principal) error
}

// Process drives s until it stops, handing every item to v. Each file is
// closed once the source moves on to the next one.
func (s *Source) Process(v Visitor) error {
	open := false
	for {
		next, err := s.NextItemType()
		if err != nil {
			return err
		}
		switch next {
		case IsStop:
			if open {
				return s.CloseFile()
			}

			return nil
		case IsFile:
			if open {
				if err := s.CloseFile(); err != nil {
					return err
				}
			}
			fb, err := s.ReadFile()
			if err != nil {
				return err
			}
			if fb == nil {
				return nil
			}
			open = true
			if err := v.File(fb); err != nil {
				return err
			}
		case IsRun:
			p, err := s.ReadRun()
			if err != nil {
				return err
			}
			if err := v.Run(p); err != nil {
				return err
			}
		case IsSubRun:
			p, err := s.ReadSubRun()
			if err != nil {
				return err
			}
			if err := v.SubRun(p); err != nil {
				return err
			}
		case IsEvent:
			p, err := s.ReadEvent()
			if err != nil {
				return err
			}
			if err := v.Event(p); err != nil {
				return err
			}
		default:
			return errs.New(errs.LogicError, "process", "unexpected item %s", next)
		}
	}
}
