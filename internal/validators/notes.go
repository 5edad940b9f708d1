package validators

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mars-alien/NoteTakingApp/models"
)

// MaxNotesPerSync bounds the batch size of a single push.
const MaxNotesPerSync = 500

// NoteValidator implements [Validator] for users, note payloads and sync
// requests. Both value and pointer forms are accepted.
type NoteValidator struct {
	validate *validator.Validate
}

func NewNoteValidator() Validator {
	return &NoteValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *NoteValidator) Validate(ctx context.Context, obj any) error {
	switch value := obj.(type) {
	case models.NotePayload:
		return v.validateNote(ctx, value)
	case *models.NotePayload:
		return v.validateNote(ctx, *value)

	case models.SyncRequest:
		return v.validateSyncRequest(ctx, value)
	case *models.SyncRequest:
		return v.validateSyncRequest(ctx, *value)

	case models.User:
		return v.structRules(ctx, value)
	case *models.User:
		return v.structRules(ctx, *value)
	}

	return fmt.Errorf("%w: %T", ErrUnsupportedType, obj)
}

func (v *NoteValidator) validateNote(ctx context.Context, note models.NotePayload) error {
	if note.LastModified.IsZero() {
		return ErrLastModifiedRequired
	}
	return v.structRules(ctx, note)
}

func (v *NoteValidator) validateSyncRequest(ctx context.Context, req models.SyncRequest) error {
	switch {
	case len(req.Notes) == 0:
		return ErrEmptyNotes
	case len(req.Notes) > MaxNotesPerSync:
		return fmt.Errorf("%w: %d > %d", ErrTooManyNotes, len(req.Notes), MaxNotesPerSync)
	}
	return nil
}

// structRules runs the tag rules and flattens the result into one error.
func (v *NoteValidator) structRules(ctx context.Context, obj any) error {
	err := v.validate.StructCtx(ctx, obj)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidField, strings.Join(parts, ", "))
}
