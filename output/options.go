package output

import (
	"log/slog"
	"time"

	"github.com/arloliu/artio/internal/options"
	"github.com/arloliu/artio/product"
	"github.com/arloliu/artio/pset"
	"github.com/arloliu/artio/sidestore"
)

// fileConfig holds the options of one output file.
type fileConfig struct {
	logger         *slog.Logger
	types          *product.Types
	processName    string
	tempDir        string
	psets          *pset.Registry
	histories      *product.ProcessHistoryRegistry
	parentages     *product.ParentageRegistry
	dependencies   product.Dependencies
	metadata       []sidestore.MetadataEntry
	streamMetadata []sidestore.MetadataEntry
	now            func() time.Time
}

func newFileConfig() *fileConfig {
	return &fileConfig{
		logger:       slog.Default(),
		psets:        pset.NewRegistry(),
		histories:    product.NewProcessHistoryRegistry(),
		parentages:   product.NewParentageRegistry(),
		dependencies: product.Dependencies{},
		now:          time.Now,
	}
}

// Option configures an output File.
type Option = options.Option[*fileConfig]

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(c *fileConfig) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithTypes sets the product codecs used to encode payloads and dummies.
func WithTypes(types *product.Types) Option {
	return options.NoError(func(c *fileConfig) {
		c.types = types
	})
}

// WithProcessName records the name of the writing process in the file
// catalog metadata.
func WithProcessName(name string) Option {
	return options.NoError(func(c *fileConfig) {
		c.processName = name
	})
}

// WithTempDir sets where the side-store database is built.
func WithTempDir(dir string) Option {
	return options.NoError(func(c *fileConfig) {
		c.tempDir = dir
	})
}

// WithRegistries sets the process-wide registries written at close. Nil
// arguments keep an empty registry.
func WithRegistries(psets *pset.Registry, histories *product.ProcessHistoryRegistry, parentages *product.ParentageRegistry) Option {
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

// WithDependencies sets the product dependency graph written at close.
func WithDependencies(deps product.Dependencies) Option {
	return options.NoError(func(c *fileConfig) {
		if deps != nil {
			c.dependencies = deps
		}
	})
}

// WithCatalogMetadata adds file-catalog metadata. Entries in stream
// override the generated ones of the same name.
func WithCatalogMetadata(md, stream []sidestore.MetadataEntry) Option {
	return options.NoError(func(c *fileConfig) {
		c.metadata = md
		c.streamMetadata = stream
	})
}

// WithClock replaces the time source used for ages and timestamps.
func WithClock(now func() time.Time) Option {
	return options.New(func(c *fileConfig) error {
		if now == nil {
			return errNilClock
		}
		c.now = now

		return nil
	})
}
