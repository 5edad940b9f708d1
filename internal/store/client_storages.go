package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/mars-alien/NoteTakingApp/internal/config"
	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/utils"
)

// ClientStorages groups the repositories of the local durable store.
type ClientStorages struct {
	Notes LocalNoteRepository
	Queue SyncQueueRepository
	Meta  SyncMetaRepository
	Users LocalUserRepository

	closer func() error
	edits  sync.Mutex
}

// EditLock serializes read-modify-write sequences over Notes and Queue. The
// edit path and the reconciler take it so neither writes over a note the
// other has read but not yet written.
func (c *ClientStorages) EditLock() sync.Locker {
	return &c.edits
}

// Close releases the underlying database.
func (c *ClientStorages) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// NewClientStorages opens the engine selected by cfg.Engine at cfg.DB.DSN:
// "sqlite" (migrated with goose) or "bolt".
func NewClientStorages(ctx context.Context, cfg config.Storage, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Str("engine", cfg.Engine).Msg("creating new storages...")
	ids := utils.NewUUIDGenerator()

	switch cfg.Engine {
	case config.EngineSQLite, "":
		db, err := NewConnectSQLite(ctx, cfg.DB, logger)
		if err != nil {
			return nil, fmt.Errorf("sqlite connection error: %w", err)
		}

		return &ClientStorages{
			Notes:  NewLocalNoteRepository(db, ids, logger),
			Queue:  NewSyncQueueRepository(db, logger),
			Meta:   NewSyncMetaRepository(db),
			Users:  NewLocalUserRepository(db),
			closer: db.Close,
		}, nil

	case config.EngineBolt:
		bs, err := OpenBolt(cfg.DB.DSN, ids, logger)
		if err != nil {
			return nil, fmt.Errorf("bolt open error: %w", err)
		}

		return &ClientStorages{
			Notes:  bs.Notes(),
			Queue:  bs.Queue(),
			Meta:   bs.Meta(),
			Users:  bs.Users(),
			closer: bs.Close,
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine)
}
