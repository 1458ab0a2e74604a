// Package common defines shared constants and the error taxonomy used by the
// client layers. Callers should use errors.Is / errors.As to match them.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth means the credentials were rejected and no session was established.
	ErrAuth = errors.New("authentication failed")

	// ErrNoSession is returned by write operations attempted while logged out.
	ErrNoSession = fmt.Errorf("%w: no active session", ErrAuth)

	// ErrStaleSession is returned when a write-back targets a Session that
	// no longer belongs to the user the operation started from.
	ErrStaleSession = fmt.Errorf("%w: session changed during operation", ErrNoSession)

	// ErrAuthorization means a stored credential was rejected by an
	// authenticated call. The session is no longer usable.
	ErrAuthorization = errors.New("authorization rejected")

	// ErrValidation covers malformed or missing required fields.
	ErrValidation = errors.New("validation error")

	// ErrConcurrentOperation is returned when a toggle for the same movie is
	// already in flight.
	ErrConcurrentOperation = errors.New("toggle already in progress")

	// ErrNoChanges reports a profile save that had nothing to send.
	ErrNoChanges = errors.New("no changes")

	// ErrNotFound is returned when the remote service does not know the resource.
	ErrNotFound = errors.New("not found")
)

// TransportError is a network or server failure. Message is the
// human-readable text surfaced to the user, StatusCode is zero when no HTTP
// response was received.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Message extracts the user-facing text from err. For a TransportError it is
// the server message without the status suffix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var te *TransportError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return err.Error()
}

// StatusCode returns the HTTP status carried by err, or zero.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}
