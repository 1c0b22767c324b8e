package format

type (
	CompressionType uint8
	BranchType      uint8
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

const (
	InEvent   BranchType = 0x0 // InEvent marks event-scoped data.
	InSubRun  BranchType = 0x1 // InSubRun marks subrun-scoped data.
	InRun     BranchType = 0x2 // InRun marks run-scoped data.
	InResults BranchType = 0x3 // InResults marks results-scoped data.

	// NumBranchTypes is the number of record kinds.
	NumBranchTypes = 4
)

// BranchTypes lists every record kind in on-disk order.
var BranchTypes = [NumBranchTypes]BranchType{InEvent, InSubRun, InRun, InResults}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompressionType maps a configuration string to a CompressionType.
func ParseCompressionType(s string) (CompressionType, bool) {
	switch s {
	case "none", "None", "":
		return CompressionNone, true
	case "zstd", "Zstd":
		return CompressionZstd, true
	case "s2", "S2":
		return CompressionS2, true
	case "lz4", "LZ4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}

func (b BranchType) String() string {
	switch b {
	case InEvent:
		return "Event"
	case InSubRun:
		return "SubRun"
	case InRun:
		return "Run"
	case InResults:
		return "Results"
	default:
		return "Unknown"
	}
}

// SupportsRangeSets reports whether products of this kind carry range sets.
func (b BranchType) SupportsRangeSets() bool {
	return b == InRun || b == InSubRun
}

// TreeName returns the name of the data tree holding records of this kind.
func (b BranchType) TreeName() string {
	return b.String() + "s"
}

// MetaDataTreeName returns the name of the tree holding per-record provenance.
func (b BranchType) MetaDataTreeName() string {
	return b.String() + "MetaData"
}

// AuxBranchName returns the name of the branch holding the record header.
func (b BranchType) AuxBranchName() string {
	return b.String() + "Auxiliary"
}

// ProductProvenanceBranchName returns the provenance branch name in the metadata tree.
func (b BranchType) ProductProvenanceBranchName() string {
	return b.String() + "ProductProvenance"
}
