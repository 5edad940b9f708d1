package store

import (
	"context"
	"time"

	"github.com/mars-alien/NoteTakingApp/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// UserRepository stores accounts of the remote store.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
}

// NoteRepository stores the authoritative notes of the remote store,
// including tombstones of deleted ones.
type NoteRepository interface {
	// GetNote returns the note with the given id regardless of owner, so the
	// caller can tell a missing note from a foreign one.
	GetNote(ctx context.Context, id string) (models.RemoteNote, error)
	FindByClientToken(ctx context.Context, ownerID, clientToken string) (models.RemoteNote, error)
	InsertNote(ctx context.Context, note models.RemoteNote) (models.RemoteNote, error)
	UpdateNote(ctx context.Context, note models.RemoteNote) (models.RemoteNote, error)
	// ChangedSince returns the owner's notes, tombstones included, with
	// UpdatedAt at or after since, oldest first.
	ChangedSince(ctx context.Context, ownerID string, since time.Time) ([]models.RemoteNote, error)
}

// ErrorClassificator decides whether a failed database operation may be
// retried.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
