package principal

import (
	"time"

	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/ids"
	"github.com/arloliu/artio/product"
	"github.com/arloliu/artio/rangeset"
)

// Timestamp is a record time in nanoseconds since the Unix epoch. Zero is invalid.
type Timestamp uint64

// InvalidTimestamp marks an unset time.
const InvalidTimestamp Timestamp = 0

// NewTimestamp converts t to a Timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.UnixNano()) //nolint:gosec
}

// Time converts ts back to a time.Time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(0, int64(ts)).UTC() //nolint:gosec
}

// Auxiliary is the header of one record.
type Auxiliary interface {
	BranchType() format.BranchType
	RecordID() ids.EventID
	HistoryID() product.ProcessHistoryID
}

// EventAuxiliary is the header of an event record.
type EventAuxiliary struct {
	ID               ids.EventID              `cbor:"1,keyasint"`
	Time             Timestamp                `cbor:"2,keyasint"`
	IsRealData       bool                     `cbor:"3,keyasint"`
	ProcessHistoryID product.ProcessHistoryID `cbor:"4,keyasint"`
}

func (a EventAuxiliary) BranchType() format.BranchType { return format.InEvent }
func (a EventAuxiliary) RecordID() ids.EventID { return a.ID }
func (a EventAuxiliary) HistoryID() product.ProcessHistoryID { return a.ProcessHistoryID }

// SubRunAuxiliary is the header of a subrun record.
type SubRunAuxiliary struct {
	ID               ids.EventID              `cbor:"1,keyasint"`
	BeginTime        Timestamp                `cbor:"2,keyasint"`
	EndTime          Timestamp                `cbor:"3,keyasint"`
	ProcessHistoryID product.ProcessHistoryID `cbor:"4,keyasint"`
	RangeSetID       uint32                   `cbor:"5,keyasint"`
}

func (a SubRunAuxiliary) BranchType() format.BranchType { return format.InSubRun }
func (a SubRunAuxiliary) RecordID() ids.EventID { return a.ID }
func (a SubRunAuxiliary) HistoryID() product.ProcessHistoryID { return a.ProcessHistoryID }

// Merge widens the time window of a to cover o, as when fragments of one
// subrun are combined.
func (a *SubRunAuxiliary) Merge(o SubRunAuxiliary) {
	a.BeginTime, a.EndTime = mergeWindow(a.BeginTime, a.EndTime, o.BeginTime, o.EndTime)
}

// RunAuxiliary is the header of a run record.
type RunAuxiliary struct {
	ID               ids.EventID              `cbor:"1,keyasint"`
	BeginTime        Timestamp                `cbor:"2,keyasint"`
	EndTime          Timestamp                `cbor:"3,keyasint"`
	ProcessHistoryID product.ProcessHistoryID `cbor:"4,keyasint"`
	RangeSetID       uint32                   `cbor:"5,keyasint"`
}

func (a RunAuxiliary) BranchType() format.BranchType { return format.InRun }
func (a RunAuxiliary) RecordID() ids.EventID { return a.ID }
func (a RunAuxiliary) HistoryID() product.ProcessHistoryID { return a.ProcessHistoryID }

// Merge widens the time window of a to cover o.
func (a *RunAuxiliary) Merge(o RunAuxiliary) {
	a.BeginTime, a.EndTime = mergeWindow(a.BeginTime, a.EndTime, o.BeginTime, o.EndTime)
}

// ResultsAuxiliary is the header of the per-file results record.
type ResultsAuxiliary struct {
	ProcessHistoryID product.ProcessHistoryID `cbor:"1,keyasint"`
}

func (a ResultsAuxiliary) BranchType() format.BranchType { return format.InResults }
func (a ResultsAuxiliary) RecordID() ids.EventID { return ids.InvalidID() }
func (a ResultsAuxiliary) HistoryID() product.ProcessHistoryID { return a.ProcessHistoryID }

func mergeWindow(b1, e1, b2, e2 Timestamp) (Timestamp, Timestamp) {
	begin, end := b1, e1
	if b2 != InvalidTimestamp && (begin == InvalidTimestamp || b2 < begin) {
		begin = b2
	}
	if e2 > end {
		end = e2
	}

	return begin, end
}

// NewSubRunAuxiliary creates a subrun header without a persisted range set.
func NewSubRunAuxiliary(r, s ids.Number, begin Timestamp) SubRunAuxiliary {
	return SubRunAuxiliary{ID: ids.ForSubRun(r, s), BeginTime: begin, RangeSetID: rangeset.InvalidID}
}

// NewRunAuxiliary creates a run header without a persisted range set.
func NewRunAuxiliary(r ids.Number, begin Timestamp) RunAuxiliary {
	return RunAuxiliary{ID: ids.ForRun(r), BeginTime: begin, RangeSetID: rangeset.InvalidID}
}
