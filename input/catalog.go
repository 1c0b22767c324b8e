package input

import "slices"

// IndexEnd is the catalog position before the first and after the last file.
const IndexEnd = -1

// Catalog is the ordered list of primary input files with a cursor.
// Local files are always searchable, so the sequence may reopen any file
// it has seen before.
type Catalog struct {
	files   []string
	current int
	// finished marks that the sequence will not ask for more files.
	finished bool
}

// NewCatalog creates a catalog positioned before its first file.
func NewCatalog(files []string) *Catalog {
	return &Catalog{files: slices.Clone(files), current: IndexEnd}
}

// Len returns the number of files.
func (c *Catalog) Len() int { return len(c.files) }

// Files returns the file names in order.
func (c *Catalog) Files() []string { return slices.Clone(c.files) }

// IsSearchable reports whether files may be reopened.
func (c *Catalog) IsSearchable() bool { return true }

// CurrentIndex returns the position of the current file, or IndexEnd.
func (c *Catalog) CurrentIndex() int { return c.current }

// CurrentFile returns the name of the current file, or "" before the first.
func (c *Catalog) CurrentFile() string {
	if c.current == IndexEnd {
		return ""
	}

	return c.files[c.current]
}

// HasNextFile reports whether GetNextFile would succeed.
func (c *Catalog) HasNextFile() bool {
	return !c.finished && c.current+1 < len(c.files)
}

// GetNextFile moves to the next file and reports whether there was one.
func (c *Catalog) GetNextFile() bool {
	if !c.HasNextFile() {
		return false
	}
	c.current++

	return true
}

// RewindTo positions the catalog on file i.
func (c *Catalog) RewindTo(i int) {
	if i < 0 || i >= len(c.files) {
		c.current = IndexEnd
		return
	}
	c.current = i
}

// Rewind positions the catalog before its first file.
func (c *Catalog) Rewind() {
	c.current = IndexEnd
	c.finished = false
}

// Finish marks the catalog as exhausted.
func (c *Catalog) Finish() {
	c.finished = true
}
