package ovsdb

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrClosed is returned by calls issued on, or outstanding when
	// the session is closed locally.
	ErrClosed = errors.New("connection closed")

	// ErrTimeout is returned when a call's deadline elapses before
	// the response arrives. The late response is discarded.
	ErrTimeout = errors.New("call timed out")

	// ErrCancelled is returned when a call's context is cancelled.
	ErrCancelled = errors.New("call cancelled")
)

// TransportError reports the socket failure that tore the session
// down. All calls pending at that moment fail with it, and every
// active monitor receives it through its failure callback.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport failure: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// RPCError is a request-level error returned by the server in the
// error member of a response. Transaction operation failures are not
// RPCErrors; those travel in the result array.
type RPCError struct {
	Name    string `json:"error"`
	Details string `json:"details"`
	Syntax  string `json:"syntax"`
}

func (e *RPCError) Error() string {
	msg := e.Name
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Syntax != "" {
		msg += fmt.Sprintf(" (%s)", e.Syntax)
	}
	return msg
}
