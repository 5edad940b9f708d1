package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrNoteNotFound is returned when no local note matches the lookup.
	ErrNoteNotFound = errors.New("note was not found")

	// ErrDuplicateRemoteID is returned when a write would give a second local
	// note the remote id already held by another one.
	ErrDuplicateRemoteID = errors.New("remote id is already bound to another note")

	// ErrLocalSessionNotFound is returned when no credential is cached locally.
	ErrLocalSessionNotFound = errors.New("local session not found")

	// ErrInvalidQueueEntry is returned when an entry with an unknown action, or
	// a delete without a remote id, is enqueued.
	ErrInvalidQueueEntry = errors.New("invalid sync queue entry")

	// ErrUnknownEngine is returned when the configured storage engine is not
	// supported.
	ErrUnknownEngine = errors.New("unknown storage engine")
)

// Errors of the remote store repositories.
var (
	// ErrLoginAlreadyExists is returned when an attempt to register a new user
	// fails because a user with the same login already exists.
	ErrLoginAlreadyExists = errors.New("login already exists")

	// ErrNoUserWasFound is returned when a query expected to match a user
	// record produces an empty result set.
	ErrNoUserWasFound = errors.New("no user was found")

	// ErrRemoteNoteNotFound is returned when no server note has the given id.
	ErrRemoteNoteNotFound = errors.New("remote note was not found")

	// ErrRetryable marks database failures that may succeed if attempted
	// again, as classified by [PostgresErrorClassifier].
	ErrRetryable = errors.New("retryable database error")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning column values from a result
	// row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when iterating a result set fails midway.
	ErrScanningRows = errors.New("failed to scan rows")
)
