package client

import (
	"errors"
	"fmt"
)

// ErrTransport matches every *TransportError via errors.Is.
var ErrTransport = errors.New("bulk api transport failure")

// TransportError is the single fault category of a Bulk API call: the call
// could not be completed or its body could not be decoded. The run cannot
// continue past it.
type TransportError struct {
	// Op is the failed step: "post", "read" or "decode".
	Op string

	// StatusCode is the HTTP status, 0 when no response arrived.
	StatusCode int

	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("bulk api %s failed (http %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("bulk api %s failed: %v", e.Op, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports ErrTransport as a match.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
