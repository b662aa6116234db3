package errorsx

import "errors"

// ReasonedError carries a stable reason code alongside the underlying
// error, so transports and metrics can classify a failed chat turn
// without string matching.
type ReasonedError struct {
	Err    error
	Reason ReasonCode
}

func (e ReasonedError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return e.Err.Error()
}

func (e ReasonedError) Unwrap() error {
	return e.Err
}

// Wrap attaches a reason code to err. The first reason on a chain
// wins: re-wrapping deeper in the stack never overwrites the code the
// failing layer assigned.
func Wrap(err error, reason ReasonCode) error {
	if err == nil {
		return nil
	}
	var re ReasonedError
	if errors.As(err, &re) {
		return err
	}
	return ReasonedError{Err: err, Reason: reason}
}

// Reason returns the code on err's chain, or ReasonUnknown.
func Reason(err error) ReasonCode {
	if err == nil {
		return ReasonUnknown
	}
	var re ReasonedError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ReasonUnknown
}

// HasReason reports whether err's chain carries the given code.
func HasReason(err error, reason ReasonCode) bool {
	return Reason(err) == reason
}
