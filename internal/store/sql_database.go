package store

import (
	"database/sql"
	"fmt"

	"github.com/mars-alien/NoteTakingApp/internal/logger"
)

// DB wraps a database/sql connection pool together with the error
// classifier of its driver.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// wrapDBError tags driver errors the classifier considers transient with
// [ErrRetryable] so callers can answer with a retriable status.
func (db *DB) wrapDBError(kind, err error) error {
	if db.errorClassificator != nil && db.errorClassificator.Classify(err) == Retryable {
		return fmt.Errorf("%w: %w: %w", kind, ErrRetryable, err)
	}
	return fmt.Errorf("%w: %w", kind, err)
}
