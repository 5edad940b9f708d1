package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"

	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/models"
)

// noteRepository is the PostgreSQL-backed [NoteRepository]. updated_at is
// always assigned by the database clock.
type noteRepository struct {
	*DB
	logger *logger.Logger
}

func NewNoteRepository(db *DB, logger *logger.Logger) NoteRepository {
	logger.Debug().Msg("creating note repository")
	return &noteRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *noteRepository) GetNote(ctx context.Context, id string) (models.RemoteNote, error) {
	query, args, err := buildGetRemoteNoteQuery(id)
	if err != nil {
		return models.RemoteNote{}, err
	}
	return r.queryOne(ctx, "noteRepository.GetNote", query, args)
}

func (r *noteRepository) FindByClientToken(ctx context.Context, ownerID, clientToken string) (models.RemoteNote, error) {
	if clientToken == "" {
		return models.RemoteNote{}, ErrRemoteNoteNotFound
	}
	query, args, err := buildFindByClientTokenQuery(ownerID, clientToken)
	if err != nil {
		return models.RemoteNote{}, err
	}
	return r.queryOne(ctx, "noteRepository.FindByClientToken", query, args)
}

func (r *noteRepository) InsertNote(ctx context.Context, note models.RemoteNote) (models.RemoteNote, error) {
	query, args, err := buildInsertRemoteNoteQuery(note)
	if err != nil {
		return models.RemoteNote{}, err
	}
	return r.queryOne(ctx, "noteRepository.InsertNote", query, args)
}

func (r *noteRepository) UpdateNote(ctx context.Context, note models.RemoteNote) (models.RemoteNote, error) {
	query, args, err := buildUpdateRemoteNoteQuery(note)
	if err != nil {
		return models.RemoteNote{}, err
	}
	return r.queryOne(ctx, "noteRepository.UpdateNote", query, args)
}

func (r *noteRepository) ChangedSince(ctx context.Context, ownerID string, since time.Time) ([]models.RemoteNote, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildChangedSinceQuery(ownerID, since)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "noteRepository.ChangedSince").
			Str("owner_id", ownerID).
			Time("since", since).
			Msg("failed to query changed notes")
		return nil, r.wrapDBError(ErrExecutingQuery, err)
	}
	defer rows.Close()

	notes := make([]models.RemoteNote, 0)
	for rows.Next() {
		note, scanErr := scanRemoteNote(rows)
		if scanErr != nil {
			log.Err(scanErr).Str("func", "noteRepository.ChangedSince").Msg("failed to scan note row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		notes = append(notes, note)
	}

	if err = rows.Err(); err != nil {
		log.Err(err).Str("func", "noteRepository.ChangedSince").Msg("error occurred during rows iteration")
		return nil, r.wrapDBError(ErrScanningRows, err)
	}

	return notes, nil
}

func (r *noteRepository) queryOne(ctx context.Context, fn, query string, args []any) (models.RemoteNote, error) {
	log := logger.FromContext(ctx)

	note, err := scanRemoteNote(r.DB.QueryRowContext(ctx, query, args...))
	switch {
	case err == nil:
		return note, nil
	case errors.Is(err, sql.ErrNoRows):
		return models.RemoteNote{}, ErrRemoteNoteNotFound
	case postgresError(err) == pgerrcode.InvalidTextRepresentation:
		// malformed uuid can not match any row
		return models.RemoteNote{}, ErrRemoteNoteNotFound
	}

	log.Err(err).Str("func", fn).Msg("failed to execute note query")
	return models.RemoteNote{}, r.wrapDBError(ErrExecutingQuery, err)
}

func scanRemoteNote(row rowScanner) (models.RemoteNote, error) {
	var note models.RemoteNote
	err := row.Scan(
		&note.ID,
		&note.OwnerID,
		&note.ClientToken,
		&note.Title,
		&note.Content,
		&note.LastModified,
		&note.UpdatedAt,
		&note.Deleted,
	)
	if err != nil {
		return models.RemoteNote{}, err
	}

	note.LastModified = note.LastModified.UTC()
	note.UpdatedAt = note.UpdatedAt.UTC()
	return note, nil
}
