package input

import (
	"log/slog"

	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/ids"
	"github.com/arloliu/artio/internal/options"
	"github.com/arloliu/artio/principal"
	"github.com/arloliu/artio/product"
	"github.com/arloliu/artio/pset"
	"github.com/arloliu/artio/selector"
)

// SecondaryReader returns the principal for record id of kind bt from the
// next secondary file at or after *idx, advancing *idx. It returns nil when
// no secondary file holds the record.
type SecondaryReader func(idx *int, bt format.BranchType, id ids.EventID) (*principal.Principal, error)

// fileConfig holds the options of one opened input file.
type fileConfig struct {
	logger            *slog.Logger
	types             *product.Types
	origin            ids.EventID
	eventsToSkip      uint32
	noEventSort       bool
	compactRanges     bool
	threshold         int64
	delayed           [format.NumBranchTypes]bool
	limits            *ProcessingLimits
	rules             *selector.Rules
	dropDescendants   bool
	readParameterSets bool
	secondary         SecondaryReader
	duplicates        *DuplicateChecker
	forcedRunOffset   int64
	psets             *pset.Registry
	histories         *product.ProcessHistoryRegistry
	parentages        *product.ParentageRegistry
	tempDir           string
}

func newFileConfig() *fileConfig {
	return &fileConfig{
		logger:            slog.Default(),
		origin:            ids.New(1, 0, 1),
		threshold:         -1,
		delayed:           [format.NumBranchTypes]bool{format.InEvent: true, format.InResults: true},
		dropDescendants:   true,
		readParameterSets: true,
		psets:             pset.NewRegistry(),
		histories:         product.NewProcessHistoryRegistry(),
		parentages:        product.NewParentageRegistry(),
	}
}

// FileOption configures an input File.
type FileOption = options.Option[*fileConfig]

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) FileOption {
	return options.NoError(func(c *fileConfig) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithTypes sets the product codecs used to decode payloads.
func WithTypes(types *product.Types) FileOption {
	return options.NoError(func(c *fileConfig) {
		c.types = types
	})
}

// WithOrigin sets the first event of interest. Records before it are skipped.
func WithOrigin(id ids.EventID) FileOption {
	return options.NoError(func(c *fileConfig) {
		c.origin = id
	})
}

// WithEventsToSkip skips the first n wanted events.
func WithEventsToSkip(n uint32) FileOption {
	return options.NoError(func(c *fileConfig) {
		c.eventsToSkip = n
	})
}

// WithNoEventSort keeps events in their physical write order.
func WithNoEventSort(v bool) FileOption {
	return options.NoError(func(c *fileConfig) {
		c.noEventSort = v
	})
}

// WithCompactRanges collapses adjacent event ranges when run and subrun
// range sets are merged.
func WithCompactRanges(v bool) FileOption {
	return options.NoError(func(c *fileConfig) {
		c.compactRanges = v
	})
}

// WithSaveMemoryObjectThreshold drops cached baskets after a product read
// larger than n bytes. -1 disables it.
func WithSaveMemoryObjectThreshold(n int64) FileOption {
	return options.NoError(func(c *fileConfig) {
		c.threshold = n
	})
}

// WithDelayedRead chooses whether the products of records of kind bt are
// read on first access or when the record is read.
func WithDelayedRead(bt format.BranchType, delayed bool) FileOption {
	return options.New(func(c *fileConfig) error {
		if bt >= format.NumBranchTypes {
			return errInvalidBranchType(bt)
		}
		c.delayed[bt] = delayed

		return nil
	})
}

// WithProcessingLimits sets the limits consulted by the skip walk and by
// the fast-cloning decision.
func WithProcessingLimits(limits *ProcessingLimits) FileOption {
	return options.NoError(func(c *fileConfig) {
		c.limits = limits
	})
}

// WithSelectorRules drops the products the rules do not select. With
// dropDescendants, every product derived from a dropped one is dropped too.
func WithSelectorRules(rules *selector.Rules, dropDescendants bool) FileOption {
	return options.NoError(func(c *fileConfig) {
		c.rules = rules
		c.dropDescendants = dropDescendants
	})
}

// WithReadParameterSets controls importing the stored parameter sets.
func WithReadParameterSets(v bool) FileOption {
	return options.NoError(func(c *fileConfig) {
		c.readParameterSets = v
	})
}

// WithSecondaryReader enables product fall-through to secondary files.
func WithSecondaryReader(fn SecondaryReader) FileOption {
	return options.NoError(func(c *fileConfig) {
		c.secondary = fn
	})
}

// WithDuplicateChecker skips events the checker reports as repeats.
func WithDuplicateChecker(d *DuplicateChecker) FileOption {
	return options.NoError(func(c *fileConfig) {
		c.duplicates = d
	})
}

// WithForcedRunOffset adds offset to every run number read from the file.
func WithForcedRunOffset(offset int64) FileOption {
	return options.NoError(func(c *fileConfig) {
		c.forcedRunOffset = offset
	})
}

// WithRegistries shares process-wide registries between files. Nil
// arguments keep the per-file registry.
func WithRegistries(psets *pset.Registry, histories *product.ProcessHistoryRegistry, parentages *product.ParentageRegistry) FileOption {
	return options.NoError(func(c *fileConfig) {
		if psets != nil {
			c.psets = psets
		}
		if histories != nil {
			c.histories = histories
		}
		if parentages != nil {
			c.parentages = parentages
		}
	})
}

// WithTempDir sets where the side-store image is extracted.
func WithTempDir(dir string) FileOption {
	return options.NoError(func(c *fileConfig) {
		c.tempDir = dir
	})
}
