/*
Package perr provides the tagged error kinds used across pxforest to tell
a caller whether a failure is worth aborting training for (InvalidInput,
NotFound), worth logging and continuing past (IO, during checkpoints) or
worth logging and rethrowing (Allocation).
*/
package perr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// Unclassified is the zero value for errors that do not carry a Kind.
	Unclassified Kind = iota
	// InvalidInput marks shape mismatches, out-of-range configuration or
	// malformed images.
	InvalidInput
	// NotFound marks a requested image index or candidate index outside
	// its valid range.
	NotFound
	// IO marks image decode or checkpoint write failures.
	IO
	// Allocation marks memory exhaustion while decoding an image.
	Allocation
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case NotFound:
		return "not_found"
	case IO:
		return "io"
	case Allocation:
		return "allocation"
	default:
		return "unclassified"
	}
}

type kindedError struct {
	kind Kind
	err  error
}

func (e *kindedError) Error() string {
	return e.err.Error()
}

func (e *kindedError) Unwrap() error {
	return e.err
}

// New returns an error of the given Kind with a formatted message and a
// stack trace attached by github.com/pkg/errors.
func New(k Kind, format string, a ...interface{}) error {
	return &kindedError{kind: k, err: errors.New(fmt.Sprintf(format, a...))}
}

// Wrap annotates err with a message and tags it with the given Kind. It
// returns nil if err is nil.
func Wrap(err error, k Kind, message string) error {
	if err == nil {
		return nil
	}
	return &kindedError{kind: k, err: errors.Wrap(err, message)}
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, k Kind, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	return &kindedError{kind: k, err: errors.Wrap(err, fmt.Sprintf(format, a...))}
}

// KindOf returns the Kind tagged on err, or Unclassified if err (or any
// error it wraps) was never tagged via New/Wrap/Wrapf.
func KindOf(err error) Kind {
	var ke *kindedError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return Unclassified
}

// Is reports whether err is tagged with Kind k.
func Is(err error, k Kind) bool {
	return KindOf(err) == k
}
