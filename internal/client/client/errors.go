package client

import "errors"

var (
	// ErrUnavailable marks failures where no usable response was received:
	// network errors, timeouts and 5xx statuses.
	ErrUnavailable = errors.New("server unavailable")

	// ErrMalformedResponse marks a 2xx response whose body could not be
	// normalised.
	ErrMalformedResponse = errors.New("malformed response")
)
