package format

import "fmt"

const (
	// Era is the hard compatibility tag. Files written under another era are unreadable.
	Era = "ART_2011a"
	// CurrentVersion is the format version written by this package.
	CurrentVersion = 15
)

// Names of the fixed trees, branches and blobs of a physical file.
const (
	MetaDataTreeName     = "MetaData"
	FileIndexTreeName    = "FileIndex"
	ParentageTreeName    = "Parentage"
	EventHistoryTreeName = "EventHistory"

	FileFormatVersionBranch   = "FileFormatVersion"
	ProductRegistryBranch     = "ProductRegistry"
	ProcessHistoryMapBranch   = "ProcessHistoryMap"
	BranchIDListsBranch       = "BranchIDLists"
	ProductDependenciesBranch = "ProductDependencies"
	FileIndexBranch           = "Element"
	ParentageHashBranch       = "Hash"
	ParentageDescBranch       = "Description"
	EventHistoryBranch        = "History"

	SideStoreBlobName = "RootFileDB"
)

// FileFormatVersion is the (era, version) pair stored in every file.
type FileFormatVersion struct {
	Era   string `cbor:"1,keyasint"`
	Value int    `cbor:"2,keyasint"`
}

// CurrentFileFormatVersion returns the version written by this package.
func CurrentFileFormatVersion() FileFormatVersion {
	return FileFormatVersion{Era: Era, Value: CurrentVersion}
}

// SameEra reports whether the file was written under the current era.
func (v FileFormatVersion) SameEra() bool {
	return v.Era == Era
}

// HasSideStore reports whether the file carries the relational side-store.
func (v FileFormatVersion) HasSideStore() bool {
	return v.Value >= 5
}

// SupportsRangeSets reports whether run and subrun products carry range sets.
func (v FileFormatVersion) SupportsRangeSets() bool {
	return v.Value >= 9
}

// HasProductIDChecksums reports whether ProductIDs are stored as checksums.
// Files older than this cannot be fast cloned.
func (v FileFormatVersion) HasProductIDChecksums() bool {
	return v.Value >= 10
}

// HistoryInEventAuxiliary reports whether the process history ID lives in the event header.
func (v FileFormatVersion) HistoryInEventAuxiliary() bool {
	return v.Value >= 15
}

func (v FileFormatVersion) String() string {
	return fmt.Sprintf("%s %d", v.Era, v.Value)
}
