package motor

import (
	"errors"
	"fmt"
)

// Kind identifies one of the engine's distinct, testable error categories.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnsupportedFormat
	KindIoError
	KindInvalidCursor
	KindNotApplicable
	KindRecordTooLarge
	KindUnknownSession
	KindUnknownTask
	KindTaskCancelled
	KindUnimplemented
	KindUnsupportedCombination
	KindTooManyTasks
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "UnsupportedFormat"
	case KindIoError:
		return "IoError"
	case KindInvalidCursor:
		return "InvalidCursor"
	case KindNotApplicable:
		return "NotApplicable"
	case KindRecordTooLarge:
		return "RecordTooLarge"
	case KindUnknownSession:
		return "UnknownSession"
	case KindUnknownTask:
		return "UnknownTask"
	case KindTaskCancelled:
		return "TaskCancelled"
	case KindUnimplemented:
		return "Unimplemented"
	case KindUnsupportedCombination:
		return "UnsupportedCombination"
	case KindTooManyTasks:
		return "TooManyTasks"
	default:
		return "Unknown"
	}
}

// Error is the engine's single exported error type. Every public operation
// returns a *Error (or nil) rather than an ad hoc wrapped error, so callers
// across the wire boundary can switch on Kind instead of parsing messages.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an *Error of the given kind wrapping cause (which may be nil).
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err, returning KindUnknown if err is nil or
// not one of ours.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is makes errors.Is(err, target) true whenever target is also an *Error of
// the same Kind; messages and causes are not compared.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
