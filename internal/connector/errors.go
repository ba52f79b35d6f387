package connector

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed connection descriptor. It is
// raised before any connection is attempted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConnectionError reports a failure to reach or authenticate against the data
// source. The message is scrubbed of the descriptor's password.
type ConnectionError struct {
	Driver string
	msg    string
	err    error
}

// NewConnectionError wraps err, redacting d's password from its message.
func NewConnectionError(driver string, d Descriptor, err error) *ConnectionError {
	return &ConnectionError{Driver: driver, msg: d.Redact(err.Error()), err: err}
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s connect: %s", e.Driver, e.msg)
}

func (e *ConnectionError) Unwrap() error { return e.err }

// QueryError reports a rejected or failing metadata query.
type QueryError struct {
	Driver string
	Op     string
	msg    string
	err    error
}

// NewQueryError wraps err for the named operation, redacting d's password.
func NewQueryError(driver, op string, d Descriptor, err error) *QueryError {
	return &QueryError{Driver: driver, Op: op, msg: d.Redact(err.Error()), err: err}
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Driver, e.Op, e.msg)
}

func (e *QueryError) Unwrap() error { return e.err }

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConnection reports whether err is, or wraps, a ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsQuery reports whether err is, or wraps, a QueryError.
func IsQuery(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}
