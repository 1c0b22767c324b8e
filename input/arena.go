package input

import (
	"github.com/arloliu/artio/errs"
)

// fileHandle indexes an opened file in an arena. The zero handle is never
// issued, so it marks "no file".
type fileHandle int

const noFile fileHandle = 0

type arenaSlot struct {
	file *File
	refs int
}

// fileArena owns the files opened by a sequence. Every holder of a handle
// counts as one reference; the file is closed when the last one releases.
type fileArena struct {
	slots []arenaSlot
	free  []fileHandle
}

func newFileArena() *fileArena {
	// slot 0 backs noFile
	return &fileArena{slots: make([]arenaSlot, 1)}
}

// add stores f with one reference and returns its handle.
func (a *fileArena) add(f *File) fileHandle {
	if n := len(a.free); n > 0 {
		h := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[h] = arenaSlot{file: f, refs: 1}

		return h
	}
	a.slots = append(a.slots, arenaSlot{file: f, refs: 1})

	return fileHandle(len(a.slots) - 1)
}

// get returns the file behind h, or nil for a released or unknown handle.
func (a *fileArena) get(h fileHandle) *File {
	if h <= noFile || int(h) >= len(a.slots) {
		return nil
	}

	return a.slots[h].file
}

// acquire adds a reference to h.
func (a *fileArena) acquire(h fileHandle) fileHandle {
	if a.get(h) == nil {
		return noFile
	}
	a.slots[h].refs++

	return h
}

// release drops a reference to h and closes the file at zero.
func (a *fileArena) release(h fileHandle) error {
	f := a.get(h)
	if f == nil {
		return nil
	}
	a.slots[h].refs--
	if a.slots[h].refs > 0 {
		return nil
	}
	a.slots[h] = arenaSlot{}
	a.free = append(a.free, h)

	return f.Close()
}

// refs returns the reference count of h.
func (a *fileArena) refs(h fileHandle) int {
	if a.get(h) == nil {
		return 0
	}

	return a.slots[h].refs
}

// openCount returns how many files are open.
func (a *fileArena) openCount() int {
	return len(a.slots) - 1 - len(a.free)
}

// closeAll closes every open file regardless of its references.
func (a *fileArena) closeAll() error {
	var merr error
	for h := range a.slots {
		if f := a.slots[h].file; f != nil {
			if err := f.Close(); err != nil {
				merr = errs.Append(merr, err)
			}
			a.slots[h] = arenaSlot{}
			a.free = append(a.free, fileHandle(h))
		}
	}

	return merr
}
