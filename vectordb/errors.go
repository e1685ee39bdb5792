package vectordb

import "fmt"

// Kind enumerates the core's structured error categories. These are
// the only error kinds the engine surfaces; it never panics on
// caller-supplied input.
type Kind int

const (
	DimensionMismatch Kind = iota
	DuplicateId
	UnknownId
	LengthMismatch
	EmptyCollection
	InvalidConfig
	RebuildFailed
	StorageCorrupt
	IoFailure
)

func (k Kind) String() string {
	switch k {
	case DimensionMismatch:
		return "DimensionMismatch"
	case DuplicateId:
		return "DuplicateId"
	case UnknownId:
		return "UnknownId"
	case LengthMismatch:
		return "LengthMismatch"
	case EmptyCollection:
		return "EmptyCollection"
	case InvalidConfig:
		return "InvalidConfig"
	case RebuildFailed:
		return "RebuildFailed"
	case StorageCorrupt:
		return "StorageCorrupt"
	case IoFailure:
		return "IoFailure"
	default:
		return "Unknown"
	}
}

// Error is the structured error every core operation returns in
// place of panicking. It always carries a Kind plus a human-readable
// message, and optionally wraps an underlying cause.
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

func newErr(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapErr(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error,
// reporting ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var ve *Error
	if err == nil {
		return 0, false
	}
	if e, ok := err.(*Error); ok {
		ve = e
	} else if u, ok := err.(interface{ Unwrap() error }); ok {
		return KindOf(u.Unwrap())
	}
	if ve == nil {
		return 0, false
	}
	return ve.Kind, true
}
