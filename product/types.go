package product

import (
	"fmt"
	"sync"

	"github.com/arloliu/artio/encoding"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/rangeset"
)

// Codec handles the values of one product type.
//
// Values are always pointers to the concrete type, as returned by New and
// Unmarshal.
type Codec interface {
	// TypeName returns the stable type identifier stored in branch descriptions.
	TypeName() string
	// New returns a default-constructed value, used for dummy products.
	New() any
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
	// Combine folds src into dst. Types that cannot be aggregated return
	// ErrProductNotCombinable.
	Combine(dst, src any) error
}

// Type is the Codec for values of type *T encoded as CBOR.
type Type[T any] struct {
	name    string
	combine func(dst, src *T) error
}

var _ Codec = (*Type[int])(nil)

// NewType creates a codec for T. combine may be nil when the type cannot be aggregated.
func NewType[T any](name string, combine func(dst, src *T) error) *Type[T] {
	return &Type[T]{name: name, combine: combine}
}

func (t *Type[T]) TypeName() string {
	return t.name
}

func (t *Type[T]) New() any {
	return new(T)
}

func (t *Type[T]) Marshal(v any) ([]byte, error) {
	p, err := t.cast(v)
	if err != nil {
		return nil, err
	}

	return encoding.MarshalRecord(p)
}

func (t *Type[T]) Unmarshal(data []byte) (any, error) {
	p := new(T)
	if err := encoding.UnmarshalRecord(data, p); err != nil {
		return nil, errs.Wrap(errs.DataCorruption, "decode "+t.name, err)
	}

	return p, nil
}

func (t *Type[T]) Combine(dst, src any) error {
	if t.combine == nil {
		return fmt.Errorf("%w: %s", errs.ErrProductNotCombinable, t.name)
	}
	d, err := t.cast(dst)
	if err != nil {
		return err
	}
	s, err := t.cast(src)
	if err != nil {
		return err
	}

	return t.combine(d, s)
}

func (t *Type[T]) cast(v any) (*T, error) {
	p, ok := v.(*T)
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %s got %T", errs.ErrProductTypeMismatch, t.name, v)
	}

	return p, nil
}

// Types is a table of codecs keyed by type name. It is safe for concurrent use.
type Types struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewTypes creates a table holding the given codecs.
func NewTypes(codecs ...Codec) (*Types, error) {
	t := &Types{codecs: make(map[string]Codec, len(codecs))}
	for _, c := range codecs {
		if err := t.Register(c); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Register adds c to the table.
func (t *Types) Register(c Codec) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.codecs[c.TypeName()]; ok {
		return fmt.Errorf("%w: %s", errs.ErrProductTypeExists, c.TypeName())
	}
	t.codecs[c.TypeName()] = c

	return nil
}

// Lookup returns the codec for name.
func (t *Types) Lookup(name string) (Codec, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.codecs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownProductType, name)
	}

	return c, nil
}

// Wrapper is a product value as stored in one record: the value, whether
// it holds real content, and the ID of its range set in the side-store.
type Wrapper struct {
	Value      any
	Present    bool
	RangeSetID uint32
}

// NewWrapper wraps a present value without a persisted range set.
func NewWrapper(v any) *Wrapper {
	return &Wrapper{Value: v, Present: true, RangeSetID: rangeset.InvalidID}
}

type envelope struct {
	Present    bool   `cbor:"1,keyasint"`
	RangeSetID uint32 `cbor:"2,keyasint"`
	Payload    []byte `cbor:"3,keyasint"`
}

// EncodeWrapper serializes w with its codec.
func EncodeWrapper(c Codec, w *Wrapper) ([]byte, error) {
	payload, err := c.Marshal(w.Value)
	if err != nil {
		return nil, err
	}

	return encoding.MarshalRecord(envelope{Present: w.Present, RangeSetID: w.RangeSetID, Payload: payload})
}

// DecodeWrapper reverses EncodeWrapper.
func DecodeWrapper(c Codec, data []byte) (*Wrapper, error) {
	var env envelope
	if err := encoding.UnmarshalRecord(data, &env); err != nil {
		return nil, errs.Wrap(errs.DataCorruption, "decode wrapper "+c.TypeName(), err)
	}
	v, err := c.Unmarshal(env.Payload)
	if err != nil {
		return nil, err
	}

	return &Wrapper{Value: v, Present: env.Present, RangeSetID: env.RangeSetID}, nil
}
