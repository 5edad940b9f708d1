package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrBadRequest, body)
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body)
	case code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, body)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, body)
	case code == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, body)
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return fmt.Errorf("%w: %s", ErrTooManyRequests, body)
	case code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: http %d: %s", ErrServerUnavailable, code, body)
	default:
		return fmt.Errorf("%w: http %d: %s", ErrUnexpectedResponse, code, body)
	}
}

// Class is how the sync coordinator reacts to a failed request.
type Class int

const (
	// ClassNone is returned for a nil error.
	ClassNone Class = iota
	// ClassTransient failures are retried with backoff.
	ClassTransient
	// ClassAuthFailure halts syncing until credentials are refreshed.
	ClassAuthFailure
	// ClassRejected requests will never succeed as sent.
	ClassRejected
	// ClassNotFound means the addressed record does not exist.
	ClassNotFound
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTransient:
		return "transient"
	case ClassAuthFailure:
		return "auth_failure"
	case ClassRejected:
		return "rejected"
	case ClassNotFound:
		return "not_found"
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// Classify sorts err into a [Class]. Anything unrecognised, including
// timeouts and network errors, is transient.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrUnauthorized):
		return ClassAuthFailure
	case errors.Is(err, ErrNotFound):
		return ClassNotFound
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrConflict):
		return ClassRejected
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrTransport),
		errors.Is(err, ErrServerUnavailable),
		errors.Is(err, ErrTooManyRequests):
		return ClassTransient
	}
	return ClassTransient
}
