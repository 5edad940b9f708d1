package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")

	// ErrInvalidField wraps every failed field rule.
	ErrInvalidField = errors.New("invalid field")

	ErrEmptyNotes           = errors.New("notes list cannot be empty")
	ErrTooManyNotes         = errors.New("too many notes in one request")
	ErrLastModifiedRequired = errors.New("lastModified is required")
)
