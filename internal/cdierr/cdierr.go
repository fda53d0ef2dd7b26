// Package cdierr defines the error taxonomy shared by the sector, volume,
// and extraction layers.
package cdierr

import "github.com/pkg/errors"

// Kind classifies the failure category of a KindError, letting callers
// branch on error category without string matching.
type Kind int

const (
	// NotFound indicates the sector sync pattern was never located in the
	// input. (A directory or file missing from the catalog is reported as a
	// false bool return, not as an error.)
	NotFound Kind = iota
	// IoError indicates a read/write failure against the underlying image
	// or destination filesystem.
	IoError
	// Corruption indicates the on-disc structure violates an expected
	// invariant (bad disc label record type, truncated path table entry, and
	// so on).
	Corruption
	// InvalidOption indicates a caller-supplied option failed validation.
	InvalidOption
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case IoError:
		return "i/o error"
	case Corruption:
		return "corruption"
	case InvalidOption:
		return "invalid option"
	default:
		return "unknown"
	}
}

// KindError pairs a Kind with the underlying cause, if any.
type KindError struct {
	Kind  Kind
	cause error
}

func (e *KindError) Error() string {
	if e.cause == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.cause.Error()
}

// Unwrap exposes the wrapped cause so errors.Is/errors.As compose normally.
func (e *KindError) Unwrap() error {
	return e.cause
}

// New creates a KindError whose cause is a new error carrying message.
func New(kind Kind, message string) error {
	return &KindError{Kind: kind, cause: errors.New(message)}
}

// Wrap annotates err with message and classifies it under kind. Returns nil
// if err is nil.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &KindError{Kind: kind, cause: errors.Wrap(err, message)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &KindError{Kind: kind, cause: errors.Wrapf(err, format, args...)}
}

// Is reports whether err is a KindError of the given kind.
func Is(err error, kind Kind) bool {
	var ke *KindError
	if !errors.As(err, &ke) {
		return false
	}
	return ke.Kind == kind
}
