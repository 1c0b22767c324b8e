package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/ids"
	"github.com/arloliu/artio/principal"
	"github.com/arloliu/artio/rangeset"
)

func subRunRange(begin, end ids.Number) rangeset.RangeSet {
	return rangeset.FromRanges(5, rangeset.EventRange{SubRun: 1, Begin: begin, End: end})
}

// readTally opens path and reads the tally of subrun 5:1 through a delayed reader.
func (fx *fixture) readTally(path string) (principal.Handle, *principal.Principal, error) {
	fx.t.Helper()
	f := fx.open(path, WithDelayedRead(format.InSubRun, true))
	p, err := f.ReadSubRunWithID(ids.ForSubRun(5, 1), true)
	require.NoError(fx.t, err)
	require.NotNil(fx.t, p)
	h, err := p.Get(fx.tally.ProductID)

	return h, p, err
}

// TestAggregateDisjointFragments tests that fragments covering disjoint
// events are combined and their range sets merged.
func TestAggregateDisjointFragments(t *testing.T) {
	fx := newFixture(t)
	path := fx.write("a.artio",
		subRun(5, 1, 3, subRunRange(1, 10)),
		subRun(5, 1, 4, subRunRange(10, 20)),
	)

	h, p, err := fx.readTally(path)
	require.NoError(t, err)
	require.True(t, h.IsValid())
	assert.Equal(t, 7, h.Value().(*counter).N)

	want := rangeset.FromRanges(5,
		rangeset.EventRange{SubRun: 1, Begin: 1, End: 10},
		rangeset.EventRange{SubRun: 1, Begin: 10, End: 20},
	)
	assert.True(t, rangeset.Same(want, h.RangeOfValidity()))
	assert.True(t, rangeset.Same(want, p.RangeSet()))
}

// TestAggregateAdoptsValidFragment tests that a dummy fragment is replaced
// wholesale by the first valid one.
func TestAggregateAdoptsValidFragment(t *testing.T) {
	fx := newFixture(t)
	path := fx.write("a.artio",
		subRun(5, 1, 9, rangeset.Invalid()),
		subRun(5, 1, 5, subRunRange(1, 20)),
	)

	h, _, err := fx.readTally(path)
	require.NoError(t, err)
	require.True(t, h.IsValid())
	assert.Equal(t, 5, h.Value().(*counter).N)
	assert.True(t, rangeset.Same(subRunRange(1, 20), h.RangeOfValidity()))
	require.NotNil(t, h.Provenance)
	assert.True(t, h.Provenance.Present())
}

// TestAggregateIgnoresTrailingDummy tests that a dummy fragment after a
// valid one changes nothing.
func TestAggregateIgnoresTrailingDummy(t *testing.T) {
	fx := newFixture(t)
	path := fx.write("a.artio",
		subRun(5, 1, 5, subRunRange(1, 20)),
		subRun(5, 1, 9, rangeset.Invalid()),
	)

	h, _, err := fx.readTally(path)
	require.NoError(t, err)
	assert.Equal(t, 5, h.Value().(*counter).N)
	assert.True(t, rangeset.Same(subRunRange(1, 20), h.RangeOfValidity()))
}

// TestAggregateIdenticalFragments tests that repeated fragments with the
// same range are counted once however many there are.
func TestAggregateIdenticalFragments(t *testing.T) {
	for _, n := range []int{1, 2, 3} {
		fx := newFixture(t)
		items := make([]item, 0, n)
		for range n {
			items = append(items, subRun(5, 1, 4, subRunRange(1, 10)))
		}

		h, _, err := fx.readTally(fx.write("a.artio", items...))
		require.NoError(t, err)
		assert.Equal(t, 4, h.Value().(*counter).N, "fragments: %d", n)
		assert.True(t, rangeset.Same(subRunRange(1, 10), h.RangeOfValidity()))
	}
}

// TestAggregateOverlappingFragments tests that overlapping ranges that are
// not identical cannot be aggregated.
func TestAggregateOverlappingFragments(t *testing.T) {
	fx := newFixture(t)
	path := fx.write("a.artio",
		subRun(5, 1, 3, subRunRange(1, 15)),
		subRun(5, 1, 4, subRunRange(10, 20)),
	)

	_, _, err := fx.readTally(path)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ProductCannotBeAggregated))
	assert.Contains(t, err.Error(), fx.tally.BranchName())
}

// TestAggregateNothingPresent tests that fragments which are all dummies
// yield the dummy without combining anything.
func TestAggregateNothingPresent(t *testing.T) {
	fx := newFixture(t)
	path := fx.write("a.artio",
		subRun(5, 1, 0, subRunRange(1, 10)),
		subRun(5, 1, 0, subRunRange(10, 20)),
	)

	h, _, err := fx.readTally(path)
	require.NoError(t, err)
	assert.False(t, h.IsValid())
	assert.Equal(t, &counter{}, h.Value())
}

// TestImmediateSubRunRead tests that an immediate read surfaces an
// aggregation failure when the record is read.
func TestImmediateSubRunRead(t *testing.T) {
	fx := newFixture(t)
	path := fx.write("a.artio",
		subRun(5, 1, 3, subRunRange(1, 15)),
		subRun(5, 1, 4, subRunRange(10, 20)),
	)

	f := fx.open(path)
	_, err := f.ReadSubRun()
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ProductCannotBeAggregated))
}
