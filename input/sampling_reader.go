package input

import (
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/ids"
	"github.com/arloliu/artio/principal"
)

// samplingReader is the delayed reader of an event drawn from a data set
// into another event sequence. It reads from an explicit entry set and
// never falls through to secondary files.
type samplingReader struct {
	entrySet
}

// ReadFromSecondaryFile always reports no secondary principal.
func (r *samplingReader) ReadFromSecondaryFile(*int) (*principal.Principal, error) {
	return nil, nil
}

// SampledEvent is an event read from a data set under a new ID.
type SampledEvent struct {
	*principal.Principal
	// OnDiskID is the ID stored in the sampled file.
	OnDiskID ids.EventID
	// Dataset names the sampled data set.
	Dataset string
}

// ReadSampledEvent reads event onDisk and presents it as event target of
// the sampling job. The cursor does not move.
//
// Parameters:
//   - onDisk: ID of the event in this file
//   - target: ID the event gets in the sampled sequence
//   - dataset: Name of the data set this file belongs to
//
// Returns:
//   - *SampledEvent: The event, or nil if the file does not hold onDisk
//   - error: DataCorruption if the stored header disagrees with the index
func (f *File) ReadSampledEvent(onDisk, target ids.EventID, dataset string) (*SampledEvent, error) {
	pos := f.fileIndex.FindPosition(onDisk, true)
	if pos == f.fileIndex.End() {
		return nil, nil
	}
	entry := f.fileIndex.At(pos).Entry

	tree := f.trees[format.InEvent]
	var aux principal.EventAuxiliary
	if err := tree.readAux(entry, &aux); err != nil {
		return nil, err
	}
	if err := f.overrideEventHistory(entry, &aux); err != nil {
		return nil, err
	}
	if aux.ID != onDisk {
		return nil, errs.New(errs.DataCorruption, "read sampled event",
			"file index holds %s but the header at entry %d holds %s", onDisk, entry, aux.ID)
	}
	aux.ID = target

	reader := &samplingReader{
		entrySet: entrySet{
			file:    f,
			bt:      format.InEvent,
			id:      onDisk,
			entries: EntryNumbers{entry},
			tree:    tree,
		},
	}
	p := principal.New(aux, f.products.Descriptions(format.InEvent), f.cfg.types, reader)
	p.SetParentageRegistry(f.cfg.parentages)

	return &SampledEvent{Principal: p, OnDiskID: onDisk, Dataset: dataset}, nil
}
