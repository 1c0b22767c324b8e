package errs

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Category classifies fatal errors by how the caller is expected to react.
type Category uint8

const (
	// Configuration is an illegal combination of options, detected at startup.
	Configuration Category = iota + 1
	// FileOpenError is a file that is missing or unreadable at the OS level.
	FileOpenError
	// FileReadError is a file missing an expected table, column or side-store row.
	FileReadError
	// DataCorruption is an internal consistency check failure.
	DataCorruption
	// LogicError is a caller contract violation or an unreachable state.
	LogicError
	// ProductCannotBeAggregated is a pair of overlapping, non-identical range sets.
	ProductCannotBeAggregated
	// InvalidNumber is a run, subrun or event number outside the legal range.
	InvalidNumber
	// FatalRootError is a failure of the underlying columnar store.
	FatalRootError
)

// Category sentinels so that errors.Is works on a category.
var (
	ErrConfiguration             = errors.New("Configuration")
	ErrFileOpen                  = errors.New("FileOpenError")
	ErrFileRead                  = errors.New("FileReadError")
	ErrDataCorruption            = errors.New("DataCorruption")
	ErrLogic                     = errors.New("LogicError")
	ErrProductCannotBeAggregated = errors.New("ProductCannotBeAggregated")
	ErrInvalidNumber             = errors.New("InvalidNumber")
	ErrFatalRoot                 = errors.New("FatalRootError")
)

var categorySentinels = map[Category]error{
	Configuration:             ErrConfiguration,
	FileOpenError:             ErrFileOpen,
	FileReadError:             ErrFileRead,
	DataCorruption:            ErrDataCorruption,
	LogicError:                ErrLogic,
	ProductCannotBeAggregated: ErrProductCannotBeAggregated,
	InvalidNumber:             ErrInvalidNumber,
	FatalRootError:            ErrFatalRoot,
}

func (c Category) String() string {
	if s, ok := categorySentinels[c]; ok {
		return s.Error()
	}

	return "Unknown"
}

// Error is a categorized error raised by an operation.
type Error struct {
	Category Category
	Op       string
	Err      error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Category, e.Err)
	}

	return fmt.Sprintf("%s in %s: %v", e.Category, e.Op, e.Err)
}

// Unwrap exposes both the category sentinel and the wrapped cause.
func (e *Error) Unwrap() []error {
	return []error{categorySentinels[e.Category], e.Err}
}

// New creates a categorized error with a formatted message.
func New(cat Category, op string, format string, args ...any) error {
	return &Error{Category: cat, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a category to err. A nil err stays nil, and an error that
// already carries a category keeps it.
func Wrap(cat Category, op string, err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	return &Error{Category: cat, Op: op, Err: err}
}

// Is reports whether err carries the given category.
func Is(err error, cat Category) bool {
	s, ok := categorySentinels[cat]
	if !ok {
		return false
	}

	return errors.Is(err, s)
}

// CategoryOf returns the category carried by err, or 0 if there is none.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}

	return 0
}

// Append accumulates errors, skipping nils.
func Append(err error, errs ...error) *multierror.Error {
	return multierror.Append(err, errs...)
}

// ErrorOrNil returns nil when the accumulated error holds nothing.
func ErrorOrNil(merr *multierror.Error) error {
	return merr.ErrorOrNil()
}
