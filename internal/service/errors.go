package service

import "errors"

var (
	ErrInvalidDataProvided = errors.New("invalid data provided")
	ErrWrongPassword       = errors.New("wrong password")

	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrVersionIsNotSpecified   = errors.New("app version is not specified")

	// ErrForbidden is returned when a user addresses a note owned by someone
	// else.
	ErrForbidden = errors.New("note belongs to another user")
	// ErrNoteNotFound is returned by the remote store for unknown note ids.
	ErrNoteNotFound = errors.New("note not found")
	// ErrStaleUpdate is returned when an update lost the last-write-wins
	// comparison.
	ErrStaleUpdate = errors.New("note was changed on the server more recently")
)

// Client side errors.
var (
	ErrRegisterOnServer = errors.New("registration on server failed")
	ErrLoginOnServer    = errors.New("login on server failed")
	ErrNotLoggedIn      = errors.New("not logged in")

	// ErrSyncInFlight is returned by SyncNow when a cycle is already running.
	ErrSyncInFlight = errors.New("sync cycle already in flight")
	// ErrOffline is returned by SyncNow while the remote store is unreachable.
	ErrOffline = errors.New("remote store is offline")
	// ErrAuthRequired is returned while syncing is halted until the user logs
	// in again.
	ErrAuthRequired = errors.New("re-authentication required")
	// ErrCoordinatorClosed is returned by SyncNow after Close.
	ErrCoordinatorClosed = errors.New("sync coordinator closed")
)
