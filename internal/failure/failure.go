package failure

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation did not complete.
type Kind int

const (
	// KindPrecondition means the operation cannot be attempted at all.
	KindPrecondition Kind = iota + 1
	// KindValidation means an operator value failed a domain predicate.
	KindValidation
	// KindTimeout means no new transaction was observed within the polling budget.
	KindTimeout
	// KindPostcondition means a transaction landed but the expected field did not change.
	KindPostcondition
	// KindDecode means a ledger response did not have the expected shape.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindValidation:
		return "validation"
	case KindTimeout:
		return "timeout"
	case KindPostcondition:
		return "postcondition_mismatch"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the single error type carried across the console for classified failures.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	prefix := e.Kind.String()
	if e.Op != "" {
		prefix = e.Op + ": " + prefix
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether err (or anything it wraps) is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

func newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Precondition(op, format string, args ...any) *Error {
	return newf(KindPrecondition, op, format, args...)
}

func Validation(op, format string, args ...any) *Error {
	return newf(KindValidation, op, format, args...)
}

func Timeout(op, format string, args ...any) *Error {
	return newf(KindTimeout, op, format, args...)
}

func Postcondition(op, format string, args ...any) *Error {
	return newf(KindPostcondition, op, format, args...)
}

func Decode(op, format string, args ...any) *Error {
	return newf(KindDecode, op, format, args...)
}

// Wrap classifies an existing error.
func Wrap(err error, kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}
