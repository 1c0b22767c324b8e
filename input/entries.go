package input

import (
	"errors"
	"sync"

	"github.com/arloliu/artio/columnar"
	"github.com/arloliu/artio/encoding"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/fileindex"
)

// EntryNumbers are the physical entries holding one logical record.
type EntryNumbers []fileindex.EntryNumber

// readMu serializes every physical entry read across all open files. The
// column reader caches one decoded basket per branch and is not safe for
// concurrent use, and products of different files may share baskets.
var readMu sync.Mutex

// entryRead is the scope of one physical read: the branch, the entry and
// the memory policy that applies to it. It is acquired under readMu and
// released before the caller continues with the next product.
type entryRead struct {
	branch    *columnar.BranchReader
	entry     fileindex.EntryNumber
	threshold int64
}

// decode reads the entry and hands the raw payload to fn while the read
// lock is held. The payload must not be retained after fn returns.
//
// Returns:
//   - int: Number of bytes read
//   - error: DataCorruption for a basket failing its checksum or size check,
//     FileReadError for any other failed read, or the error of fn
func (r entryRead) decode(fn func(data []byte) error) (int, error) {
	readMu.Lock()
	defer readMu.Unlock()

	data, err := r.branch.Read(r.entry)
	if err != nil {
		if errors.Is(err, errs.ErrChecksumMismatch) || errors.Is(err, errs.ErrRawLengthMismatch) {
			return 0, errs.Wrap(errs.DataCorruption, "read "+r.branch.Name(), err)
		}

		return 0, errs.Wrap(errs.FileReadError, "read "+r.branch.Name(), err)
	}
	n := len(data)
	if err := fn(data); err != nil {
		return n, err
	}
	if r.threshold > -1 && int64(n) > r.threshold {
		r.branch.DropBaskets()
	}

	return n, nil
}

// decodeRecord reads one CBOR record into v.
func (r entryRead) decodeRecord(v any) error {
	_, err := r.decode(func(data []byte) error {
		if err := encoding.UnmarshalRecord(data, v); err != nil {
			return errs.Wrap(errs.DataCorruption, "decode "+r.branch.Name(), err)
		}

		return nil
	})

	return err
}
