package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/metrics"
	"github.com/mars-alien/NoteTakingApp/internal/store"
	"github.com/mars-alien/NoteTakingApp/internal/utils"
	"github.com/mars-alien/NoteTakingApp/models"
)

type notesService struct {
	notes   store.NoteRepository
	ids     utils.IDGenerator
	now     func() time.Time
	metrics *metrics.ServerMetrics
}

func NewNotesService(notes store.NoteRepository, ids utils.IDGenerator, m *metrics.ServerMetrics) NotesService {
	return &notesService{notes: notes, ids: ids, now: time.Now, metrics: m}
}

func (s *notesService) CreateNote(ctx context.Context, ownerID string, payload models.NotePayload) (models.RemoteNote, error) {
	payload.ID = ""

	record, rejection, err := s.apply(ctx, ownerID, payload)
	if err != nil {
		return models.RemoteNote{}, err
	}
	if rejection != nil && rejection.ServerNote != nil {
		// a retried create that lost to a newer write returns the newer note
		return *rejection.ServerNote, nil
	}
	if rejection != nil {
		return models.RemoteNote{}, fmt.Errorf("%w: %s", ErrStaleUpdate, rejection.Reason)
	}
	return record, nil
}

func (s *notesService) UpdateNote(ctx context.Context, ownerID, id string, payload models.NotePayload) (models.RemoteNote, *models.SyncRejection, error) {
	payload.ID = id

	record, rejection, err := s.apply(ctx, ownerID, payload)
	if err != nil {
		return models.RemoteNote{}, nil, err
	}
	if rejection == nil {
		return record, nil, nil
	}

	switch rejection.Reason {
	case models.ReasonNotFound:
		return models.RemoteNote{}, nil, ErrNoteNotFound
	case models.ReasonForbidden:
		return models.RemoteNote{}, nil, ErrForbidden
	}
	return models.RemoteNote{}, rejection, ErrStaleUpdate
}

func (s *notesService) DeleteNote(ctx context.Context, ownerID, id string) error {
	log := logger.FromContext(ctx).With().Str("func", "notesService.DeleteNote").Str("note_id", id).Logger()

	stored, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if stored.Deleted {
		return nil
	}

	stored.Deleted = true
	stored.Title = ""
	stored.Content = ""
	stored.LastModified = s.now().UTC().Truncate(time.Microsecond)

	if _, err = s.notes.UpdateNote(ctx, stored); err != nil {
		log.Err(err).Msg("writing tombstone failed")
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	return nil
}

func (s *notesService) Sync(ctx context.Context, ownerID string, req models.SyncRequest) (models.SyncResponse, error) {
	resp := models.SyncResponse{
		Created:   make([]models.RemoteNote, 0),
		Updated:   make([]models.RemoteNote, 0),
		Conflicts: make([]models.SyncRejection, 0),
	}

	for _, payload := range req.Notes {
		record, rejection, err := s.apply(ctx, ownerID, payload)
		if err != nil {
			return models.SyncResponse{}, err
		}

		switch {
		case rejection != nil:
			resp.Conflicts = append(resp.Conflicts, *rejection)
		case payload.ID == "":
			resp.Created = append(resp.Created, record)
		default:
			resp.Updated = append(resp.Updated, record)
		}
	}

	return resp, nil
}

func (s *notesService) ChangesSince(ctx context.Context, ownerID string, since time.Time) ([]models.RemoteNote, error) {
	notes, err := s.notes.ChangedSince(ctx, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("changes since %s: %w", since.Format(time.RFC3339Nano), err)
	}
	return notes, nil
}

// apply writes one pushed note. Outcomes that are not applied come back as
// a rejection; err is reserved for storage failures.
func (s *notesService) apply(ctx context.Context, ownerID string, payload models.NotePayload) (models.RemoteNote, *models.SyncRejection, error) {
	if payload.ID == "" {
		if payload.ClientToken != "" {
			existing, err := s.notes.FindByClientToken(ctx, ownerID, payload.ClientToken)
			if err == nil {
				return s.overwrite(ctx, existing, payload)
			}
			if !errors.Is(err, store.ErrRemoteNoteNotFound) {
				return models.RemoteNote{}, nil, fmt.Errorf("find by client token: %w", err)
			}
		}

		created, err := s.notes.InsertNote(ctx, models.RemoteNote{
			ID:           s.ids.Generate(),
			ClientToken:  payload.ClientToken,
			Title:        payload.Title,
			Content:      payload.Content,
			LastModified: payload.LastModified.UTC(),
			OwnerID:      ownerID,
		})
		if err != nil {
			return models.RemoteNote{}, nil, fmt.Errorf("insert note: %w", err)
		}
		return created, nil, nil
	}

	stored, err := s.owned(ctx, ownerID, payload.ID)
	switch {
	case errors.Is(err, ErrNoteNotFound):
		return models.RemoteNote{}, s.reject(payload, models.ReasonNotFound, nil), nil
	case errors.Is(err, ErrForbidden):
		return models.RemoteNote{}, s.reject(payload, models.ReasonForbidden, nil), nil
	case err != nil:
		return models.RemoteNote{}, nil, err
	}

	return s.overwrite(ctx, stored, payload)
}

// overwrite applies last-write-wins of payload against stored.
func (s *notesService) overwrite(ctx context.Context, stored models.RemoteNote, payload models.NotePayload) (models.RemoteNote, *models.SyncRejection, error) {
	if payload.ID == "" {
		payload.ID = stored.ID
	}
	if stored.Deleted {
		return models.RemoteNote{}, s.reject(payload, models.ReasonDeleted, &stored), nil
	}
	if ResolveConflict(payload.LastModified, stored.LastModified) == WinnerServer {
		return models.RemoteNote{}, s.reject(payload, models.ReasonStale, &stored), nil
	}

	stored.Title = payload.Title
	stored.Content = payload.Content
	stored.LastModified = payload.LastModified.UTC()

	updated, err := s.notes.UpdateNote(ctx, stored)
	if err != nil {
		return models.RemoteNote{}, nil, fmt.Errorf("update note %s: %w", stored.ID, err)
	}
	return updated, nil, nil
}

// owned loads a note and checks it belongs to ownerID.
func (s *notesService) owned(ctx context.Context, ownerID, id string) (models.RemoteNote, error) {
	stored, err := s.notes.GetNote(ctx, id)
	if errors.Is(err, store.ErrRemoteNoteNotFound) {
		return models.RemoteNote{}, ErrNoteNotFound
	}
	if err != nil {
		return models.RemoteNote{}, fmt.Errorf("get note %s: %w", id, err)
	}
	if stored.OwnerID != ownerID {
		return models.RemoteNote{}, ErrForbidden
	}
	return stored, nil
}

func (s *notesService) reject(payload models.NotePayload, reason string, server *models.RemoteNote) *models.SyncRejection {
	s.metrics.Rejected(reason)
	return &models.SyncRejection{
		ID:          payload.ID,
		ClientToken: payload.ClientToken,
		Reason:      reason,
		ServerNote:  server,
	}
}
