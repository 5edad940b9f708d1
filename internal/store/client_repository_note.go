package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/utils"
	"github.com/mars-alien/NoteTakingApp/models"
)

// localNoteRepository is the SQLite-backed [LocalNoteRepository].
type localNoteRepository struct {
	*DB
	ids    utils.IDGenerator
	logger *logger.Logger
}

func NewLocalNoteRepository(db *DB, ids utils.IDGenerator, logger *logger.Logger) LocalNoteRepository {
	return &localNoteRepository{
		DB:     db,
		ids:    ids,
		logger: logger,
	}
}

func (l *localNoteRepository) GetNote(ctx context.Context, localID string) (models.Note, error) {
	return l.getOne(ctx, "localNoteRepository.GetNote", getNoteByLocalID, localID)
}

func (l *localNoteRepository) FindByRemoteID(ctx context.Context, remoteID string) (models.Note, error) {
	if remoteID == "" {
		return models.Note{}, ErrNoteNotFound
	}
	return l.getOne(ctx, "localNoteRepository.FindByRemoteID", getNoteByRemoteID, remoteID)
}

func (l *localNoteRepository) FindByClientToken(ctx context.Context, token string) (models.Note, error) {
	if token == "" {
		return models.Note{}, ErrNoteNotFound
	}
	return l.getOne(ctx, "localNoteRepository.FindByClientToken", getNoteByClientToken, token)
}

func (l *localNoteRepository) FindUnsyncedByTitle(ctx context.Context, title string) (models.Note, error) {
	return l.getOne(ctx, "localNoteRepository.FindUnsyncedByTitle", getUnsyncedNoteByTitle, title)
}

func (l *localNoteRepository) getOne(ctx context.Context, fn, query string, arg any) (models.Note, error) {
	log := logger.FromContext(ctx)

	note, err := scanNote(l.DB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, ErrNoteNotFound
	}
	if err != nil {
		log.Err(err).Str("func", fn).Any("key", arg).Msg("failed to scan note row")
		return models.Note{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return note, nil
}

// UpsertNote checks remote id injectivity and writes the note in one
// transaction.
func (l *localNoteRepository) UpsertNote(ctx context.Context, note models.Note) (string, error) {
	log := logger.FromContext(ctx)

	if note.LocalID == "" {
		note.LocalID = l.ids.Generate()
	}

	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "localNoteRepository.UpsertNote").Msg("failed to begin transaction")
		return "", fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if note.RemoteID != "" {
		var holder string
		err = tx.QueryRowContext(ctx, getRemoteIDOwner, note.RemoteID, note.LocalID).Scan(&holder)
		switch {
		case err == nil:
			log.Warn().
				Str("func", "localNoteRepository.UpsertNote").
				Str("local_id", note.LocalID).
				Str("remote_id", note.RemoteID).
				Str("holder", holder).
				Msg("remote id is already bound to another note")
			return "", ErrDuplicateRemoteID
		case !errors.Is(err, sql.ErrNoRows):
			return "", fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
	}

	_, err = tx.ExecContext(ctx, upsertNote,
		note.LocalID,
		nullString(note.RemoteID),
		note.ClientToken,
		note.Title,
		note.Content,
		toUnixNano(note.LastModified),
		note.Synced,
		note.OwnerID,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return "", ErrDuplicateRemoteID
		}
		log.Err(err).
			Str("func", "localNoteRepository.UpsertNote").
			Str("local_id", note.LocalID).
			Msg("failed to upsert note")
		return "", fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return note.LocalID, nil
}

func (l *localNoteRepository) DeleteNote(ctx context.Context, localID string) error {
	if _, err := l.DB.ExecContext(ctx, deleteNote, localID); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localNoteRepository.DeleteNote").
			Str("local_id", localID).
			Msg("failed to delete note")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (l *localNoteRepository) ListNotes(ctx context.Context) ([]models.Note, error) {
	log := logger.FromContext(ctx)

	rows, err := l.DB.QueryContext(ctx, getAllNotes)
	if err != nil {
		log.Err(err).Str("func", "localNoteRepository.ListNotes").Msg("failed to query notes")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	notes := make([]models.Note, 0)
	for rows.Next() {
		note, scanErr := scanNote(rows)
		if scanErr != nil {
			log.Err(scanErr).Str("func", "localNoteRepository.ListNotes").Msg("failed to scan note row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		notes = append(notes, note)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return notes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (models.Note, error) {
	var (
		note         models.Note
		remoteID     sql.NullString
		lastModified int64
	)

	err := row.Scan(
		&note.LocalID,
		&remoteID,
		&note.ClientToken,
		&note.Title,
		&note.Content,
		&lastModified,
		&note.Synced,
		&note.OwnerID,
	)
	if err != nil {
		return models.Note{}, err
	}

	note.RemoteID = remoteID.String
	note.LastModified = fromUnixNano(lastModified)
	return note, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Timestamps are stored as UTC unix nanoseconds; the zero time maps to 0.
func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
