package output

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/artio/config"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/product"
	"github.com/arloliu/artio/sidestore"
)

// TestClosingCriteria tests each limit and that zero limits never trigger.
func TestClosingCriteria(t *testing.T) {
	tests := []struct {
		name string
		cc   ClosingCriteria
		fp   FileProperties
		want bool
	}{
		{name: "no limits", cc: ClosingCriteria{}, fp: FileProperties{Events: 1 << 40, Age: time.Hour}, want: false},
		{name: "events below", cc: ClosingCriteria{MaxEvents: 10}, fp: FileProperties{Events: 9}, want: false},
		{name: "events reached", cc: ClosingCriteria{MaxEvents: 10}, fp: FileProperties{Events: 10}, want: true},
		{name: "subruns", cc: ClosingCriteria{MaxSubRuns: 2}, fp: FileProperties{SubRuns: 3}, want: true},
		{name: "runs", cc: ClosingCriteria{MaxRuns: 1}, fp: FileProperties{Runs: 1}, want: true},
		{name: "input files", cc: ClosingCriteria{MaxInputFiles: 2}, fp: FileProperties{InputFiles: 1}, want: false},
		{name: "size", cc: ClosingCriteria{MaxSize: 1024}, fp: FileProperties{Size: 2048}, want: true},
		{name: "age", cc: ClosingCriteria{MaxAge: time.Minute}, fp: FileProperties{Age: time.Minute}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cc.ShouldClose(tt.fp))
		})
	}
}

// TestNewClosingCriteria tests that limits are copied from the output configuration.
func TestNewClosingCriteria(t *testing.T) {
	out := config.DefaultOutput()
	out.MaxEvents = 5
	out.MaxInputFiles = 2
	out.MaxAge = time.Hour

	cc := NewClosingCriteria(&out)
	assert.Equal(t, ClosingCriteria{MaxEvents: 5, MaxInputFiles: 2, MaxAge: time.Hour}, cc)
	assert.True(t, cc.SwitchesWithinInputFile())
	assert.False(t, ClosingCriteria{MaxInputFiles: 3}.SwitchesWithinInputFile())
}

// TestShouldFastClone tests the conditions that turn fast cloning off for
// the whole output file.
func TestShouldFastClone(t *testing.T) {
	tests := []struct {
		name          string
		requested     bool
		wantAllEvents bool
		cc            ClosingCriteria
		want          bool
		wantWarn      string
	}{
		{name: "not requested", requested: false, wantAllEvents: true, want: false},
		{name: "requested", requested: true, wantAllEvents: true, want: true},
		{name: "event selection", requested: true, wantAllEvents: false, want: false, wantWarn: "event selection"},
		{
			name: "switch at event", requested: true, wantAllEvents: true,
			cc: ClosingCriteria{MaxEvents: 100}, want: false, wantWarn: "output file switching",
		},
		{name: "switch between input files", requested: true, wantAllEvents: true, cc: ClosingCriteria{MaxInputFiles: 1}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			assert.Equal(t, tt.want, ShouldFastClone(tt.requested, tt.wantAllEvents, tt.cc, logger))
			assert.Contains(t, buf.String(), "initial fast cloning configuration")
			if tt.wantWarn != "" {
				assert.Contains(t, buf.String(), tt.wantWarn)
			} else {
				assert.NotContains(t, buf.String(), "level=WARN")
			}
		})
	}
}

// TestDummyCache tests that dummies are memoized, not present and default valued.
func TestDummyCache(t *testing.T) {
	types := testTypes(t)
	c := NewDummyCache(types)

	w1, err := c.Product("counter")
	require.NoError(t, err)
	w2, err := c.Product("counter")
	require.NoError(t, err)
	assert.Same(t, w1, w2)
	assert.False(t, w1.Present)
	assert.Equal(t, 1, c.Len())

	data, err := c.Encoded("counter")
	require.NoError(t, err)
	codec, err := types.Lookup("counter")
	require.NoError(t, err)
	w, err := product.DecodeWrapper(codec, data)
	require.NoError(t, err)
	assert.False(t, w.Present)
	assert.Equal(t, &counter{}, w.Value)

	_, err = c.Product("unknown")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.LogicError))

	_, err = NewDummyCache(nil).Encoded("counter")
	assert.ErrorIs(t, err, errs.ErrUnknownProductType)
}

// TestDedupeByName tests that a repeated name keeps its first position and
// its last value.
func TestDedupeByName(t *testing.T) {
	got := dedupeByName([]sidestore.MetadataEntry{
		{Name: "a", Value: "1"},
		{Name: "b", Value: "2"},
		{Name: "a", Value: "3"},
		{Name: "c", Value: "4"},
	})
	assert.Equal(t, []sidestore.MetadataEntry{
		{Name: "a", Value: "3"},
		{Name: "b", Value: "2"},
		{Name: "c", Value: "4"},
	}, got)
}
