// Package pset holds the configuration records (parameter sets) that a
// processing step stores alongside its output.
//
// A ParameterSet is a tree of named values. Its canonical blob is the YAML
// rendering of the tree with sorted keys, and its ID is the BLAKE3 digest of
// that blob, so identical configurations share one stored row no matter
// which process wrote them.
package pset

import (
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/artio/errs"
)

// Well-known keys used to classify parameter sets.
const (
	KeyProcessName = "process_name"
	KeyModuleLabel = "module_label"
	KeyModuleType  = "module_type"
	KeyServiceType = "service_type"
	KeyServices    = "services"
)

// IDSize is the size of a parameter-set ID in bytes.
const IDSize = 32

// ID identifies a parameter set by the digest of its canonical blob.
type ID [IDSize]byte

// String returns the hex form used as the side-store key.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is unset.
func (id ID) IsZero() bool {
	return id == ID{}
}

// ParseID parses the hex form produced by String.
func ParseID(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != IDSize {
		return id, fmt.Errorf("invalid parameter set id %q", s)
	}
	copy(id[:], b)

	return id, nil
}

// ParameterSet is a tree of configuration values.
type ParameterSet map[string]any

// Encode returns the canonical YAML blob.
func (p ParameterSet) Encode() ([]byte, error) {
	if p == nil {
		p = ParameterSet{}
	}

	return yaml.Marshal(map[string]any(p))
}

// ID returns the digest of the canonical blob.
func (p ParameterSet) ID() (ID, error) {
	blob, err := p.Encode()
	if err != nil {
		return ID{}, err
	}

	return ID(blake3.Sum256(blob)), nil
}

// Decode parses a canonical blob.
func Decode(blob []byte) (ParameterSet, error) {
	var m map[string]any
	if err := yaml.Unmarshal(blob, &m); err != nil {
		return nil, errs.Wrap(errs.FileReadError, "pset.Decode", err)
	}
	if m == nil {
		m = map[string]any{}
	}

	return ParameterSet(m), nil
}

// Keys returns the top-level keys in sorted order.
func (p ParameterSet) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}

// GetString returns the value at key when it is a string.
func (p ParameterSet) GetString(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)

	return s, ok
}

// Table returns the nested parameter set at key.
func (p ParameterSet) Table(key string) (ParameterSet, bool) {
	switch v := p[key].(type) {
	case map[string]any:
		return ParameterSet(v), true
	case ParameterSet:
		return v, true
	default:
		return nil, false
	}
}

// IsProcess reports whether p is the top-level configuration of a process.
func (p ParameterSet) IsProcess() bool {
	_, ok := p.GetString(KeyProcessName)
	return ok
}

// IsModule reports whether p configures a module.
func (p ParameterSet) IsModule() bool {
	_, hasLabel := p.GetString(KeyModuleLabel)
	_, hasType := p.GetString(KeyModuleType)

	return hasLabel && hasType
}

// IsService reports whether p configures a service.
func (p ParameterSet) IsService() bool {
	_, ok := p.GetString(KeyServiceType)
	return ok
}

// Pretty renders p as indented YAML for display.
func (p ParameterSet) Pretty() string {
	blob, err := p.Encode()
	if err != nil {
		return fmt.Sprintf("<unprintable parameter set: %v>", err)
	}

	return string(blob)
}
