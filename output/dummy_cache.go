package output

import (
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/product"
	"github.com/arloliu/artio/rangeset"
)

// DummyCache hands out one default-constructed, not-present product per
// type. The encoded form is memoized too, since every dummy of a type
// serializes to the same bytes.
type DummyCache struct {
	types   *product.Types
	dummies map[string]*product.Wrapper
	encoded map[string][]byte
}

// NewDummyCache creates a cache backed by types.
func NewDummyCache(types *product.Types) *DummyCache {
	return &DummyCache{
		types:   types,
		dummies: make(map[string]*product.Wrapper),
		encoded: make(map[string][]byte),
	}
}

// Product returns the dummy of typeName.
func (c *DummyCache) Product(typeName string) (*product.Wrapper, error) {
	if w, ok := c.dummies[typeName]; ok {
		return w, nil
	}
	codec, err := c.codec(typeName)
	if err != nil {
		return nil, err
	}
	w := &product.Wrapper{Value: codec.New(), RangeSetID: rangeset.InvalidID}
	c.dummies[typeName] = w

	return w, nil
}

// Encoded returns the serialized dummy of typeName.
func (c *DummyCache) Encoded(typeName string) ([]byte, error) {
	if b, ok := c.encoded[typeName]; ok {
		return b, nil
	}
	w, err := c.Product(typeName)
	if err != nil {
		return nil, err
	}
	codec, err := c.codec(typeName)
	if err != nil {
		return nil, err
	}
	b, err := product.EncodeWrapper(codec, w)
	if err != nil {
		return nil, errs.Wrap(errs.LogicError, "dummy "+typeName, err)
	}
	c.encoded[typeName] = b

	return b, nil
}

// Len returns the number of cached types.
func (c *DummyCache) Len() int {
	return len(c.dummies)
}

func (c *DummyCache) codec(typeName string) (product.Codec, error) {
	if c.types == nil {
		return nil, errs.Wrap(errs.LogicError, "dummy "+typeName, errs.ErrUnknownProductType)
	}
	codec, err := c.types.Lookup(typeName)
	if err != nil {
		return nil, errs.Wrap(errs.LogicError, "dummy "+typeName, err)
	}

	return codec, nil
}
