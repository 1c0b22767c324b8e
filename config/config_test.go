package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/ids"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

// TestLoadDefaults tests that an empty environment yields the defaults.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, CheckEachRealDataFile, cfg.Input.DuplicateCheck())
	assert.Equal(t, RunsSubRunsAndEvents, cfg.Input.Processing())
	assert.Equal(t, ids.New(1, 0, 1), cfg.Input.OriginEventID())
	assert.Equal(t, DropNone, cfg.Output.DropMode())
}

// TestLoadFile tests decoding of a YAML job description.
func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
processName: reco
source:
  fileNames: [a.artio, b.artio]
  skipBadFiles: true
  firstRun: 5
  firstEvent: 3
  duplicateCheckMode: checkAllFilesOpened
  processingMode: RunsAndSubRuns
  inputCommands: ["keep *", "drop *_raw_*_*"]
  secondaryFileNames:
    - a: a.artio
      b: [a2.artio]
output:
  fileName: out.artio
  compression: lz4
  dropMetaData: PRIOR
  maxEvents: 100
  maxAge: 90s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "reco", cfg.ProcessName)
	assert.Equal(t, []string{"a.artio", "b.artio"}, cfg.Input.FileNames)
	assert.True(t, cfg.Input.SkipBadFiles)
	assert.Equal(t, ids.New(5, 0, 3), cfg.Input.OriginEventID())
	assert.Equal(t, CheckAllFilesOpened, cfg.Input.DuplicateCheck())
	assert.Equal(t, RunsAndSubRuns, cfg.Input.Processing())
	assert.Len(t, cfg.Input.InputCommands, 2)
	require.Len(t, cfg.Input.SecondaryFileNames, 1)
	assert.Equal(t, []string{"a2.artio"}, cfg.Input.SecondaryFileNames[0].B)
	assert.True(t, cfg.Input.DelayedReadEventProducts)

	assert.Equal(t, "out.artio", cfg.Output.FileName)
	ct, err := cfg.Output.CompressionType()
	require.NoError(t, err)
	assert.Equal(t, format.CompressionLZ4, ct)
	assert.Equal(t, DropPrior, cfg.Output.DropMode())
	assert.Equal(t, uint64(100), cfg.Output.MaxEvents)
	assert.Equal(t, 90*time.Second, cfg.Output.MaxAge)
}

// TestLoadEnv tests environment overrides.
func TestLoadEnv(t *testing.T) {
	t.Setenv("ARTIO_SOURCE_SKIPBADFILES", "true")
	t.Setenv("ARTIO_OUTPUT_FILENAME", "env.artio")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Input.SkipBadFiles)
	assert.Equal(t, "env.artio", cfg.Output.FileName)
}

// TestValidate tests rejection of illegal option combinations.
func TestValidate(t *testing.T) {
	one := uint32(1)
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"noEventSort with firstEvent", func(c *Config) { c.Input.NoEventSort = true; c.Input.FirstEvent = &one }},
		{"secondaries with threads", func(c *Config) {
			c.Input.Threads = 2
			c.Input.SecondaryFileNames = []SecondaryFiles{{A: "a", B: []string{"b"}}}
		}},
		{"empty primary name", func(c *Config) { c.Input.SecondaryFileNames = []SecondaryFiles{{B: []string{"b"}}} }},
		{"empty secondary name", func(c *Config) { c.Input.SecondaryFileNames = []SecondaryFiles{{A: "a", B: []string{""}}} }},
		{"unknown duplicate mode", func(c *Config) { c.Input.DuplicateCheckMode = "sometimes" }},
		{"noEventSort with duplicate check", func(c *Config) {
			c.Input.NoEventSort = true
			c.Input.DuplicateCheckMode = "checkEachFile"
		}},
		{"unknown processing mode", func(c *Config) { c.Input.ProcessingMode = "Events" }},
		{"unknown drop mode", func(c *Config) { c.Output.DropMetaData = "SOME" }},
		{"unknown compression", func(c *Config) { c.Output.Compression = "brotli" }},
		{"bad basket size", func(c *Config) { c.Output.BasketSize = 0 }},
		{"empty process name", func(c *Config) { c.ProcessName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.Configuration))
		})
	}

	t.Run("noEventSort alone", func(t *testing.T) {
		cfg := Default()
		cfg.Input.NoEventSort = true
		require.NoError(t, cfg.Validate())
		assert.Equal(t, NoDuplicateCheck, cfg.Input.DuplicateCheck())
	})

	t.Run("noEventSort with noDuplicateCheck", func(t *testing.T) {
		cfg := Default()
		cfg.Input.NoEventSort = true
		cfg.Input.DuplicateCheckMode = "noDuplicateCheck"
		require.NoError(t, cfg.Validate())
		assert.Equal(t, NoDuplicateCheck, cfg.Input.DuplicateCheck())
	})
}

// TestLoadMissingFile tests that an unreadable file is a configuration error.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.True(t, errs.Is(err, errs.Configuration))
}
