package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/models"
)

// syncQueueRepository is the SQLite-backed [SyncQueueRepository]. Entry ids
// come from an AUTOINCREMENT column and are never reused.
type syncQueueRepository struct {
	*DB
	now    func() time.Time
	logger *logger.Logger
}

func NewSyncQueueRepository(db *DB, logger *logger.Logger) SyncQueueRepository {
	return &syncQueueRepository{
		DB:     db,
		now:    time.Now,
		logger: logger,
	}
}

func (s *syncQueueRepository) Enqueue(ctx context.Context, localID string, action models.Action, payload models.MutationPayload) (int64, error) {
	log := logger.FromContext(ctx)

	if err := validateEntry(action, payload); err != nil {
		return 0, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode mutation payload: %w", err)
	}

	res, err := s.DB.ExecContext(ctx, enqueueEntry, nullString(localID), string(action), string(data), toUnixNano(s.now()))
	if err != nil {
		log.Err(err).
			Str("func", "syncQueueRepository.Enqueue").
			Str("local_id", localID).
			Str("action", string(action)).
			Msg("failed to enqueue mutation")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return res.LastInsertId()
}

func (s *syncQueueRepository) DrainOrdered(ctx context.Context) ([]models.QueueEntry, error) {
	log := logger.FromContext(ctx)

	rows, err := s.DB.QueryContext(ctx, getOrderedEntries)
	if err != nil {
		log.Err(err).Str("func", "syncQueueRepository.DrainOrdered").Msg("failed to query sync queue")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	entries := make([]models.QueueEntry, 0)
	for rows.Next() {
		var (
			entry      models.QueueEntry
			localID    sql.NullString
			action     string
			payload    string
			enqueuedAt int64
		)
		if err = rows.Scan(&entry.EntryID, &localID, &action, &payload, &enqueuedAt, &entry.RetryCount); err != nil {
			log.Err(err).Str("func", "syncQueueRepository.DrainOrdered").Msg("failed to scan queue row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		if err = json.Unmarshal([]byte(payload), &entry.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload of entry %d: %w", entry.EntryID, err)
		}
		entry.LocalID = localID.String
		entry.Action = models.Action(action)
		entry.EnqueuedAt = fromUnixNano(enqueuedAt)
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return entries, nil
}

func (s *syncQueueRepository) RemoveEntries(ctx context.Context, entryIDs ...int64) error {
	return s.execEach(ctx, "syncQueueRepository.RemoveEntries", deleteEntry, entryIDs)
}

func (s *syncQueueRepository) IncrementRetry(ctx context.Context, entryIDs ...int64) error {
	return s.execEach(ctx, "syncQueueRepository.IncrementRetry", incrementEntryRetry, entryIDs)
}

// execEach runs query once per id inside a single transaction.
func (s *syncQueueRepository) execEach(ctx context.Context, fn, query string, entryIDs []int64) error {
	if len(entryIDs) == 0 {
		return nil
	}
	log := logger.FromContext(ctx)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	for _, id := range entryIDs {
		if _, err = tx.ExecContext(ctx, query, id); err != nil {
			log.Err(err).Str("func", fn).Int64("entry_id", id).Msg("failed to execute statement")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	return nil
}

func (s *syncQueueRepository) RemoveByLocalID(ctx context.Context, localID string) error {
	if localID == "" {
		return nil
	}
	if _, err := s.DB.ExecContext(ctx, deleteEntriesByLocalID, localID); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "syncQueueRepository.RemoveByLocalID").
			Str("local_id", localID).
			Msg("failed to remove entries")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (s *syncQueueRepository) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, countEntries).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return n, nil
}

func validateEntry(action models.Action, payload models.MutationPayload) error {
	if !action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidQueueEntry, action)
	}
	if action == models.ActionDelete && payload.RemoteID == "" {
		return fmt.Errorf("%w: delete without remote id", ErrInvalidQueueEntry)
	}
	return nil
}
