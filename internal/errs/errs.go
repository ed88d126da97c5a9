// Package errs defines the error kinds surfaced by the tile pyramid
// engine (spec §7). A single exported type keeps call sites able to both
// errors.Is/As against a Kind and read a human message, without pulling
// in a third-party error-kind package — see DESIGN.md for why none of
// the example corpus's options fit here.
package errs

import "fmt"

// Kind is one of the error categories in spec §7.
type Kind string

const (
	EIO            Kind = "EIO"
	EBadInput      Kind = "EBadInput"
	EUnalignedInput Kind = "EUnalignedInput"
	ERangeScale    Kind = "ERangeScale"
	EBadResolution Kind = "EBadResolution"
	EInternal      Kind = "EInternal"
)

// Error wraps an underlying cause with a Kind so callers can branch on
// category (errors.As) while logging or propagating the original cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error around an existing cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if ok := asError(err, &e); !ok {
		return false
	}
	return e.Kind == kind
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
