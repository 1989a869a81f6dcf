package instrument

import (
	"github.com/pkg/errors"

	"github.com/mewspring/brcov/cursor"
	"github.com/mewspring/brcov/toolchain"
)

// Failure classes of a run. Every failure is fatal to the run.
var (
	// ErrInputNotFound is returned when the source file does not exist.
	ErrInputNotFound = errors.New("input file not found")
	// ErrParse is returned when no AST can be produced for the source file.
	ErrParse = cursor.ErrParse
	// ErrIO is returned when a source or output file cannot be read or
	// written.
	ErrIO = errors.New("I/O failure")
	// ErrToolchainUnavailable is returned when no host C compiler can be
	// determined.
	ErrToolchainUnavailable = toolchain.ErrUnavailable
	// ErrBuild is returned when the host C compiler fails on the instrumented
	// source.
	ErrBuild = toolchain.ErrBuild
)

// Error is a failure of the given class, caused by Err.
type Error struct {
	Class error
	Err   error
}

func (e *Error) Error() string {
	return e.Class.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the failure class of e.
func (e *Error) Is(target error) bool {
	return target == e.Class
}

// ioError returns an I/O failure caused by err, or nil if err is nil.
func ioError(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Class: ErrIO, Err: errors.WithStack(err)}
}

// Kind returns the name of the failure class of err; "" if err is nil or of
// no known class.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputNotFound):
		return "InputNotFound"
	case errors.Is(err, ErrParse):
		return "ParseFailure"
	case errors.Is(err, ErrToolchainUnavailable):
		return "ToolchainUnavailable"
	case errors.Is(err, ErrBuild):
		return "BuildFailure"
	case errors.Is(err, ErrIO):
		return "IOFailure"
	default:
		return ""
	}
}
