package adapter

import "errors"

// Sentinel errors mapped from HTTP status codes.
var (
	ErrBadRequest         = errors.New("bad request")
	ErrUnauthorized       = errors.New("client unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrServerUnavailable  = errors.New("server unavailable")
	ErrUnexpectedResponse = errors.New("unexpected response")

	// ErrTransport wraps failures that happened before a response arrived:
	// refused connections, DNS errors, timeouts.
	ErrTransport = errors.New("transport failure")
)
