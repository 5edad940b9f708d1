package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/models"
)

type syncMetaRepository struct {
	*DB
}

func NewSyncMetaRepository(db *DB) SyncMetaRepository {
	return &syncMetaRepository{DB: db}
}

func (s *syncMetaRepository) GetWatermark(ctx context.Context) (time.Time, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, getMetaValue, metaKeyWatermark).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return parseWatermark(value)
}

func (s *syncMetaRepository) SetWatermark(ctx context.Context, at time.Time) error {
	if _, err := s.DB.ExecContext(ctx, setMetaValue, metaKeyWatermark, formatWatermark(at)); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "syncMetaRepository.SetWatermark").Msg("failed to store watermark")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func formatWatermark(at time.Time) string {
	return at.UTC().Format(time.RFC3339Nano)
}

func parseWatermark(value string) (time.Time, error) {
	at, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupted watermark %q: %w", value, err)
	}
	return at.UTC(), nil
}

// localUserRepository keeps the cached credential as a single row.
type localUserRepository struct {
	*DB
}

func NewLocalUserRepository(db *DB) LocalUserRepository {
	return &localUserRepository{DB: db}
}

func (l *localUserRepository) SaveCredential(ctx context.Context, cred models.Credential) error {
	_, err := l.DB.ExecContext(ctx, saveCredential, cred.UserID, cred.Login, cred.Token, toUnixNano(cred.At))
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localUserRepository.SaveCredential").Msg("failed to save credential")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (l *localUserRepository) GetCredential(ctx context.Context) (models.Credential, error) {
	var (
		cred models.Credential
		at   int64
	)
	err := l.DB.QueryRowContext(ctx, getCredential).Scan(&cred.UserID, &cred.Login, &cred.Token, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Credential{}, ErrLocalSessionNotFound
	}
	if err != nil {
		return models.Credential{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	cred.At = fromUnixNano(at)
	return cred, nil
}

func (l *localUserRepository) ClearCredential(ctx context.Context) error {
	if _, err := l.DB.ExecContext(ctx, clearCredential); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}
