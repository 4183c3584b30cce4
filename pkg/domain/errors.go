package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownHandle = errors.New("handle not found")

type rateLimitedError struct {
	Until   time.Time
	Tripped bool
}

func (e *rateLimitedError) Error() string {
	if e.Tripped {
		return fmt.Sprintf("rate limit exceeded, suspended until %s", e.Until.Format(time.RFC3339))
	}
	return fmt.Sprintf("sender suspended until %s", e.Until.Format(time.RFC3339))
}

func NewRateLimitedError(until time.Time, tripped bool) error {
	return &rateLimitedError{Until: until, Tripped: tripped}
}

func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var rateLimited *rateLimitedError
	return errors.As(err, &rateLimited)
}

type MalformedReason int

const (
	MissingParts MalformedReason = iota
	NonNumericHandle
)

type malformedCommandError struct {
	Command string
	Reason  MalformedReason
}

func (e *malformedCommandError) Error() string {
	switch e.Reason {
	case NonNumericHandle:
		return fmt.Sprintf("malformed %s command: handle is not a number", e.Command)
	default:
		return fmt.Sprintf("malformed %s command: missing arguments", e.Command)
	}
}

func NewMalformedCommandError(command string, reason MalformedReason) error {
	return &malformedCommandError{Command: command, Reason: reason}
}

func IsMalformedCommand(err error) bool {
	if err == nil {
		return false
	}
	var malformed *malformedCommandError
	return errors.As(err, &malformed)
}

// MalformedReasonOf returns the reason of a malformed command error.
func MalformedReasonOf(err error) (MalformedReason, bool) {
	var malformed *malformedCommandError
	if !errors.As(err, &malformed) {
		return 0, false
	}
	return malformed.Reason, true
}

func IsUnknownHandle(err error) bool {
	return errors.Is(err, ErrUnknownHandle)
}

type transportFailureError struct {
	Op  string
	Err error
}

func (e *transportFailureError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *transportFailureError) Unwrap() error {
	return e.Err
}

func NewTransportFailureError(op string, err error) error {
	return &transportFailureError{Op: op, Err: err}
}

func IsTransportFailure(err error) bool {
	if err == nil {
		return false
	}
	var failure *transportFailureError
	return errors.As(err, &failure)
}
