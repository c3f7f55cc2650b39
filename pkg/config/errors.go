package config

import (
	"errors"
	"fmt"
)

// ErrMissingTemplate is wrapped by the Error returned when the drafter
// options do not define a top-level template.
var ErrMissingTemplate = errors.New("no template configured")

// Error reports invalid drafter options. It is raised while the options are
// resolved, before any release is touched.
type Error struct {
	// Option is the offending option key, e.g. "sort-direction"
	Option string
	// Reason describes what is wrong
	Reason string
	// Err is the underlying cause, if any
	Err error
}

// Error returns the error message
func (e *Error) Error() string {
	msg := "invalid configuration"
	if e.Option != "" {
		msg = fmt.Sprintf("invalid configuration option %q", e.Option)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if err is or wraps an *Error.
func IsConfigError(err error) bool {
	var cfgErr *Error
	return errors.As(err, &cfgErr)
}
