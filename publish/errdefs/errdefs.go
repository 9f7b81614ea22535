package errdefs

import (
	"errors"
	"fmt"
)

// Kind classifies an input error so the pipeline can
// render an actionable message.
type Kind int

const (
	// KindInvalidInput marks malformed action input
	// (bad repository URL, missing required field).
	KindInvalidInput Kind = iota + 1
	// KindConfiguration marks a missing integration or
	// token for the target host.
	KindConfiguration
	// KindContainment marks a target path escaping the
	// workspace root.
	KindContainment
	// KindRemoteCreate marks a rejected issue or merge
	// request creation.
	KindRemoteCreate
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindConfiguration:
		return "configuration"
	case KindContainment:
		return "containment"
	case KindRemoteCreate:
		return "remote create"
	default:
		return "unknown"
	}
}

// InputError is a user-actionable failure. Anything that
// is not an InputError is reported as a generic step
// failure.
type InputError struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error implements error.
func (e *InputError) Error() string {
	if e.Err == nil {
		return e.Msg
	}

	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

// Unwrap returns the underlying cause.
func (e *InputError) Unwrap() error {
	return e.Err
}

// New returns an InputError of the given kind.
func New(kind Kind, format string, args ...any) error {
	return &InputError{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Wrap returns an InputError of the given kind carrying
// cause. A nil cause yields a plain InputError.
func Wrap(
	kind Kind,
	cause error,
	format string,
	args ...any,
) error {
	return &InputError{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
		Err:  cause,
	}
}

// IsInputError reports whether err, or any error it
// wraps, is an InputError.
func IsInputError(err error) bool {
	var ie *InputError

	return errors.As(err, &ie)
}

// KindOf returns the kind of the first InputError in the
// chain, or zero when err is not classified.
func KindOf(err error) Kind {
	var ie *InputError
	if errors.As(err, &ie) {
		return ie.Kind
	}

	return 0
}
