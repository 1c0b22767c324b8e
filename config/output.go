package config

import (
	"time"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
)

// Output configures one output file module.
type Output struct {
	ModuleLabel    string   `mapstructure:"moduleLabel"`
	FileName       string   `mapstructure:"fileName"`
	OutputCommands []string `mapstructure:"outputCommands"`
	Compression    string   `mapstructure:"compression"`
	SplitLevel     int      `mapstructure:"splitLevel"`
	BasketSize     int      `mapstructure:"basketSize"`

	SaveMemoryObjectThreshold int64 `mapstructure:"saveMemoryObjectThreshold"`
	TreeMaxVirtualSize        int64 `mapstructure:"treeMaxVirtualSize"`

	FastCloning                bool     `mapstructure:"fastCloning"`
	DropMetaData               string   `mapstructure:"dropMetaData"`
	DropMetaDataForDroppedData bool     `mapstructure:"dropMetaDataForDroppedData"`
	SelectEvents               []string `mapstructure:"selectEvents"`
	CompactRangeSets           bool     `mapstructure:"compactRangeSets"`

	// Closing criteria; zero disables a criterion.
	MaxEvents     uint64        `mapstructure:"maxEvents"`
	MaxSubRuns    uint64        `mapstructure:"maxSubRuns"`
	MaxRuns       uint64        `mapstructure:"maxRuns"`
	MaxInputFiles uint64        `mapstructure:"maxInputFiles"`
	MaxSize       uint64        `mapstructure:"maxSize"`
	MaxAge        time.Duration `mapstructure:"maxAge"`
}

// DefaultOutput returns the output settings used when nothing is configured.
func DefaultOutput() Output {
	return Output{
		ModuleLabel:               "out",
		Compression:               "zstd",
		SplitLevel:                99,
		BasketSize:                16384,
		SaveMemoryObjectThreshold: -1,
		FastCloning:               true,
		DropMetaData:              "NONE",
	}
}

// Validate checks the output settings.
func (o *Output) Validate() error {
	if _, err := ParseDropMetaData(o.DropMetaData); err != nil {
		return err
	}
	if _, err := o.CompressionType(); err != nil {
		return err
	}
	if o.BasketSize <= 0 {
		return errs.New(errs.Configuration, "output", "basketSize must be positive, got %d", o.BasketSize)
	}
	if o.SplitLevel < 0 {
		return errs.New(errs.Configuration, "output", "splitLevel must not be negative")
	}

	return nil
}

// CompressionType maps the compression name to a format value.
func (o *Output) CompressionType() (format.CompressionType, error) {
	switch o.Compression {
	case "", "zstd":
		return format.CompressionZstd, nil
	case "none":
		return format.CompressionNone, nil
	case "s2":
		return format.CompressionS2, nil
	case "lz4":
		return format.CompressionLZ4, nil
	}

	return 0, errs.New(errs.Configuration, "output", "unknown compression %q", o.Compression)
}

// DropMode returns the parsed DropMetaData mode.
func (o *Output) DropMode() DropMetaData {
	d, _ := ParseDropMetaData(o.DropMetaData)
	return d
}
