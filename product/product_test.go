package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/rangeset"
)

type counter struct {
	N int `cbor:"1,keyasint"`
}

func counterType() *Type[counter] {
	return NewType("Counter", func(dst, src *counter) error {
		dst.N += src.N
		return nil
	})
}

// TestBranchDescription tests naming and validation of product identities.
func TestBranchDescription(t *testing.T) {
	bd, err := NewBranchDescription(format.InSubRun, "Counter", "tally", "", "SIM")
	require.NoError(t, err)
	assert.Equal(t, "Counter_tally__SIM.", bd.BranchName())
	assert.Equal(t, ComputeID(bd.BranchName()), bd.ProductID)
	assert.True(t, bd.Produced())
	assert.True(t, bd.Present())

	_, err = NewBranchDescription(format.InEvent, "Counter", "bad_label", "", "SIM")
	assert.True(t, errs.Is(err, errs.Configuration))
	_, err = NewBranchDescription(format.InEvent, "", "x", "", "SIM")
	assert.True(t, errs.Is(err, errs.Configuration))
}

// TestRegistry tests registration, ordering and ID verification.
func TestRegistry(t *testing.T) {
	r := NewRegistry()
	b, _ := NewBranchDescription(format.InEvent, "Counter", "b", "", "SIM")
	a, _ := NewBranchDescription(format.InEvent, "Counter", "a", "", "SIM")
	run, _ := NewBranchDescription(format.InRun, "Counter", "a", "", "SIM")

	require.NoError(t, r.Add(b))
	require.NoError(t, r.Add(a))
	require.NoError(t, r.Add(run))
	require.NoError(t, r.Add(a))
	assert.Equal(t, 3, r.Len())

	events := r.Descriptions(format.InEvent)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].ModuleLabel)

	r.SetValidity(a.ProductID, Dropped)
	got, ok := r.Get(a.ProductID)
	require.True(t, ok)
	assert.False(t, got.Present())

	forged := a
	forged.ModuleLabel = "c"
	err := r.Add(forged)
	assert.True(t, errs.Is(err, errs.DataCorruption))

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, format.InRun, all[2].BranchType)
}

// TestWrapperRoundTrip tests encoding a product value with its envelope.
func TestWrapperRoundTrip(t *testing.T) {
	c := counterType()
	w := NewWrapper(&counter{N: 4})
	w.RangeSetID = 3

	data, err := EncodeWrapper(c, w)
	require.NoError(t, err)
	got, err := DecodeWrapper(c, data)
	require.NoError(t, err)
	assert.True(t, got.Present)
	assert.Equal(t, uint32(3), got.RangeSetID)
	assert.Equal(t, &counter{N: 4}, got.Value)

	_, err = EncodeWrapper(c, &Wrapper{Value: 7})
	require.ErrorIs(t, err, errs.ErrProductTypeMismatch)
	assert.Equal(t, rangeset.InvalidID, NewWrapper(&counter{}).RangeSetID)
}

// TestCombine tests aggregation support of codecs.
func TestCombine(t *testing.T) {
	c := counterType()
	dst := &counter{N: 1}
	require.NoError(t, c.Combine(dst, &counter{N: 2}))
	assert.Equal(t, 3, dst.N)

	plain := NewType[counter]("Plain", nil)
	require.ErrorIs(t, plain.Combine(dst, &counter{}), errs.ErrProductNotCombinable)
}

// TestTypes tests codec lookup.
func TestTypes(t *testing.T) {
	types, err := NewTypes(counterType())
	require.NoError(t, err)

	c, err := types.Lookup("Counter")
	require.NoError(t, err)
	assert.IsType(t, &counter{}, c.New())

	_, err = types.Lookup("Missing")
	require.ErrorIs(t, err, errs.ErrUnknownProductType)
	require.ErrorIs(t, types.Register(counterType()), errs.ErrProductTypeExists)
}

// TestParentageAndHistory tests content-addressed IDs of provenance records.
func TestParentageAndHistory(t *testing.T) {
	p1 := NewParentage(3, 1, 3)
	p2 := NewParentage(1, 3)
	assert.Equal(t, []ID{1, 3}, p1.Parents)

	reg := NewParentageRegistry()
	id1, err := reg.Put(p1)
	require.NoError(t, err)
	id2, err := reg.Put(p2)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, reg.Len())
	assert.False(t, id1.IsZero())

	h := ProcessHistory{}.With(ProcessConfiguration{ProcessName: "SIM"})
	h2 := h.With(ProcessConfiguration{ProcessName: "RECO"})
	assert.True(t, h2.Contains("SIM"))
	assert.Len(t, h, 1)

	hreg := NewProcessHistoryRegistry()
	hid, err := hreg.Put(h2)
	require.NoError(t, err)
	got, ok := hreg.Get(hid)
	require.True(t, ok)
	assert.Equal(t, h2, got)
	assert.Len(t, hreg.Histories(), 1)
}

// TestDependencies tests transitive descendant collection.
func TestDependencies(t *testing.T) {
	d := Dependencies{}
	d.Insert(1, 2)
	d.Insert(2, 3)
	d.Insert(2, 3)
	d.Insert(4, 5)
	d.InsertEmpty(6)

	set := map[ID]struct{}{}
	d.AppendToDescendants(1, set)
	assert.Len(t, set, 3)
	assert.Contains(t, set, ID(3))
	assert.NotContains(t, set, ID(5))
	assert.Equal(t, []ID{1, 2, 4, 6}, d.Parents())

	p, ok := FindProvenance([]Provenance{NewProvenance(2, StatusPresent)}, 2)
	require.True(t, ok)
	assert.True(t, p.Present())
}
