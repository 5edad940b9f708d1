package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/validators"
	"github.com/mars-alien/NoteTakingApp/models"
)

// NotesValidationService checks payloads before they reach the wrapped
// NotesService. Invalid notes of a batch are turned into "invalid"
// conflicts instead of failing the batch.
type NotesValidationService struct {
	inner     NotesService
	validator validators.Validator
}

func NewNotesValidationService() NotesServiceWrapper {
	return &NotesValidationService{validator: validators.NewNoteValidator()}
}

func (v *NotesValidationService) Wrap(inner NotesService) NotesService {
	v.inner = inner
	return v
}

func (v *NotesValidationService) CreateNote(ctx context.Context, ownerID string, note models.NotePayload) (models.RemoteNote, error) {
	if err := v.validator.Validate(ctx, note); err != nil {
		return models.RemoteNote{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}
	return v.inner.CreateNote(ctx, ownerID, note)
}

func (v *NotesValidationService) UpdateNote(ctx context.Context, ownerID, id string, note models.NotePayload) (models.RemoteNote, *models.SyncRejection, error) {
	if err := v.validator.Validate(ctx, note); err != nil {
		return models.RemoteNote{}, nil, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}
	return v.inner.UpdateNote(ctx, ownerID, id, note)
}

func (v *NotesValidationService) DeleteNote(ctx context.Context, ownerID, id string) error {
	if id == "" {
		return ErrInvalidDataProvided
	}
	return v.inner.DeleteNote(ctx, ownerID, id)
}

func (v *NotesValidationService) Sync(ctx context.Context, ownerID string, req models.SyncRequest) (models.SyncResponse, error) {
	if err := v.validator.Validate(ctx, req); err != nil {
		return models.SyncResponse{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	valid := models.SyncRequest{Notes: make([]models.NotePayload, 0, len(req.Notes))}
	var invalid []models.SyncRejection
	for _, note := range req.Notes {
		if err := v.validator.Validate(ctx, note); err != nil {
			logger.FromContext(ctx).Debug().Err(err).Str("id", note.ID).Msg("rejecting invalid note")
			invalid = append(invalid, models.SyncRejection{
				ID:          note.ID,
				ClientToken: note.ClientToken,
				Reason:      models.ReasonInvalid + ": " + err.Error(),
			})
			continue
		}
		valid.Notes = append(valid.Notes, note)
	}

	resp := models.SyncResponse{
		Created:   make([]models.RemoteNote, 0),
		Updated:   make([]models.RemoteNote, 0),
		Conflicts: make([]models.SyncRejection, 0),
	}
	if len(valid.Notes) > 0 {
		var err error
		if resp, err = v.inner.Sync(ctx, ownerID, valid); err != nil {
			return models.SyncResponse{}, err
		}
	}
	resp.Conflicts = append(resp.Conflicts, invalid...)
	return resp, nil
}

func (v *NotesValidationService) ChangesSince(ctx context.Context, ownerID string, since time.Time) ([]models.RemoteNote, error) {
	return v.inner.ChangesSince(ctx, ownerID, since)
}
