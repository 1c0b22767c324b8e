// Package product describes the products stored in a file: their identity,
// per-record provenance, parentage and the process history that made them.
//
// Products themselves are opaque values. A Codec registered in a Types
// table knows how to encode, decode, default-construct and combine the
// values of one product type.
package product

import (
	"fmt"
	"strings"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/internal/hash"
)

// ID is the stable identifier of a product, derived from its branch name.
type ID uint64

func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Validity records whether a described product has a physical column in the file.
type Validity uint8

const (
	// Produced marks a product made by the current process.
	Produced Validity = iota
	// PresentFromSource marks a product with a column in the input file.
	PresentFromSource
	// Dropped marks a product whose description survived but whose column did not.
	Dropped
)

func (v Validity) String() string {
	switch v {
	case Produced:
		return "Produced"
	case PresentFromSource:
		return "PresentFromSource"
	default:
		return "Dropped"
	}
}

// BranchDescription identifies a product and its on-disk column.
//
// ModuleLabel and ProcessName may not contain underscores, since the branch
// name joins the four identity fields with them.
type BranchDescription struct {
	BranchType   format.BranchType `cbor:"1,keyasint"`
	TypeName     string            `cbor:"2,keyasint"`
	ModuleLabel  string            `cbor:"3,keyasint"`
	InstanceName string            `cbor:"4,keyasint,omitempty"`
	ProcessName  string            `cbor:"5,keyasint"`
	ProductID    ID                `cbor:"6,keyasint"`

	// Transient state, never persisted.
	Validity  Validity `cbor:"-"`
	Transient bool     `cbor:"-"`
}

// NewBranchDescription creates a description for a product made by the current process.
func NewBranchDescription(bt format.BranchType, typeName, label, instance, process string) (BranchDescription, error) {
	bd := BranchDescription{
		BranchType:   bt,
		TypeName:     typeName,
		ModuleLabel:  label,
		InstanceName: instance,
		ProcessName:  process,
		Validity:     Produced,
	}
	if err := bd.Validate(); err != nil {
		return BranchDescription{}, err
	}
	bd.ProductID = ComputeID(bd.BranchName())

	return bd, nil
}

// ComputeID derives a product ID from a branch name.
func ComputeID(branchName string) ID {
	return ID(hash.Name(branchName))
}

// Validate checks that the identity fields can form an unambiguous branch name.
func (bd BranchDescription) Validate() error {
	switch {
	case bd.TypeName == "":
		return errs.New(errs.Configuration, "BranchDescription", "empty product type name")
	case bd.ModuleLabel == "":
		return errs.New(errs.Configuration, "BranchDescription", "empty module label for type %s", bd.TypeName)
	case bd.ProcessName == "":
		return errs.New(errs.Configuration, "BranchDescription", "empty process name for %s", bd.ModuleLabel)
	case strings.Contains(bd.ModuleLabel, "_"), strings.Contains(bd.ProcessName, "_"),
		strings.Contains(bd.InstanceName, "_"):
		return errs.New(errs.Configuration, "BranchDescription",
			"underscore in label %q, instance %q or process %q", bd.ModuleLabel, bd.InstanceName, bd.ProcessName)
	}

	return nil
}

// FriendlyTypeName returns the type name with characters that cannot
// appear in a branch name replaced.
func (bd BranchDescription) FriendlyTypeName() string {
	return strings.NewReplacer("_", "", ".", "", "[]", "s", "*", "p").Replace(bd.TypeName)
}

// BranchName returns the column name: type_label_instance_process.
func (bd BranchDescription) BranchName() string {
	return bd.FriendlyTypeName() + "_" + bd.ModuleLabel + "_" + bd.InstanceName + "_" + bd.ProcessName + "."
}

// Produced reports whether the current process made the product.
func (bd BranchDescription) Produced() bool {
	return bd.Validity == Produced
}

// Present reports whether the product has a readable column.
func (bd BranchDescription) Present() bool {
	return bd.Validity != Dropped
}

// Less orders descriptions by branch name.
func (bd BranchDescription) Less(o BranchDescription) bool {
	return bd.BranchName() < o.BranchName()
}

func (bd BranchDescription) String() string {
	return fmt.Sprintf("%s (%s, id %s)", bd.BranchName(), bd.BranchType, bd.ProductID)
}
