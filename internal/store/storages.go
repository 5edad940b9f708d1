package store

import (
	"context"
	"fmt"

	"github.com/mars-alien/NoteTakingApp/internal/config"
	"github.com/mars-alien/NoteTakingApp/internal/logger"
)

// Storages groups the repositories of the remote store.
type Storages struct {
	UserRepository UserRepository
	NoteRepository NoteRepository

	closer func() error
}

// Close releases the database connection, if any.
func (s *Storages) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// NewStorages connects to PostgreSQL when cfg.DB.DSN is set and falls back
// to in-memory repositories otherwise.
func NewStorages(ctx context.Context, cfg config.Storage, logger *logger.Logger) (*Storages, error) {
	if cfg.DB.DSN == "" {
		logger.Warn().Msg("no database DSN configured, using in-memory storage")
		return &Storages{
			UserRepository: NewMemoryUserRepository(),
			NoteRepository: NewMemoryNoteRepository(),
		}, nil
	}

	db, err := NewConnectPostgres(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	return &Storages{
		UserRepository: NewUserRepository(db, logger),
		NoteRepository: NewNoteRepository(db, logger),
		closer:         db.Close,
	}, nil
}
