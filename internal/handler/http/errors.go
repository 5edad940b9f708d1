// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors of request parsing. Callers can match against them with
// [errors.Is].
var (
	// ErrEmptyAuthorizationHeader is returned by the auth middleware when the
	// incoming request does not include an "Authorization" header at all.
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	// ErrNoUserInContext is returned when a protected handler runs without
	// the owner id the auth middleware stores.
	ErrNoUserInContext = errors.New("no user id in request context")

	// ErrInvalidTimestamp is returned when the pull timestamp is not RFC 3339.
	ErrInvalidTimestamp = errors.New("timestamp must be RFC 3339")

	// ErrInvalidJSON is returned when a request body cannot be decoded.
	ErrInvalidJSON = errors.New("invalid JSON was passed")
)
