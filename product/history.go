package product

import (
	"encoding/hex"
	"maps"
	"slices"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/arloliu/artio/encoding"
	"github.com/arloliu/artio/pset"
)

// ProcessConfiguration identifies one processing step.
type ProcessConfiguration struct {
	ProcessName    string  `cbor:"1,keyasint"`
	ReleaseVersion string  `cbor:"2,keyasint,omitempty"`
	PSetID         pset.ID `cbor:"3,keyasint"`
}

// ProcessHistory is the ordered list of processing steps behind a record.
type ProcessHistory []ProcessConfiguration

// ProcessHistoryID is the digest of a ProcessHistory.
type ProcessHistoryID [32]byte

func (id ProcessHistoryID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is unset.
func (id ProcessHistoryID) IsZero() bool {
	return id == ProcessHistoryID{}
}

// ID returns the content digest of h.
func (h ProcessHistory) ID() (ProcessHistoryID, error) {
	raw, err := encoding.MarshalRecord([]ProcessConfiguration(h))
	if err != nil {
		return ProcessHistoryID{}, err
	}

	return ProcessHistoryID(blake3.Sum256(raw)), nil
}

// With returns a copy of h extended by pc.
func (h ProcessHistory) With(pc ProcessConfiguration) ProcessHistory {
	out := make(ProcessHistory, 0, len(h)+1)
	out = append(out, h...)

	return append(out, pc)
}

// Contains reports whether a step named processName is part of h.
func (h ProcessHistory) Contains(processName string) bool {
	return slices.ContainsFunc(h, func(pc ProcessConfiguration) bool {
		return pc.ProcessName == processName
	})
}

// ProcessHistoryRegistry collects the histories referenced by records.
type ProcessHistoryRegistry struct {
	mu      sync.RWMutex
	entries map[ProcessHistoryID]ProcessHistory
}

// NewProcessHistoryRegistry creates an empty registry.
func NewProcessHistoryRegistry() *ProcessHistoryRegistry {
	return &ProcessHistoryRegistry{entries: make(map[ProcessHistoryID]ProcessHistory)}
}

// Put stores h and returns its digest.
func (r *ProcessHistoryRegistry) Put(h ProcessHistory) (ProcessHistoryID, error) {
	id, err := h.ID()
	if err != nil {
		return ProcessHistoryID{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		r.entries[id] = slices.Clone(h)
	}

	return id, nil
}

// Get returns the history stored under id.
func (r *ProcessHistoryRegistry) Get(id ProcessHistoryID) (ProcessHistory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.entries[id]

	return h, ok
}

// Histories returns every stored history ordered by digest. This is the
// persisted form of the process-history map; digests are recomputed on load.
func (r *ProcessHistoryRegistry) Histories() []ProcessHistory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := slices.SortedFunc(maps.Keys(r.entries), func(a, b ProcessHistoryID) int {
		return slices.Compare(a[:], b[:])
	})
	out := make([]ProcessHistory, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.entries[k])
	}

	return out
}
