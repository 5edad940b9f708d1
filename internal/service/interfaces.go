package service

import (
	"context"
	"time"

	"github.com/mars-alien/NoteTakingApp/models"
)

// NotesService is the note store of the reference remote store. Every
// method acts on behalf of ownerID.
type NotesService interface {
	// CreateNote inserts a note. A create repeating a known client token
	// returns the existing note, updated when the payload is not older.
	CreateNote(ctx context.Context, ownerID string, note models.NotePayload) (models.RemoteNote, error)

	// UpdateNote applies last-write-wins against the stored note. A loss is
	// returned as ErrStaleUpdate together with the rejection.
	UpdateNote(ctx context.Context, ownerID, id string, note models.NotePayload) (models.RemoteNote, *models.SyncRejection, error)

	// DeleteNote replaces the note with a tombstone. Deleting a tombstone
	// succeeds.
	DeleteNote(ctx context.Context, ownerID, id string) error

	// Sync applies a batch of creates and updates. Notes that are not applied
	// are reported as conflicts; only storage failures fail the whole batch.
	Sync(ctx context.Context, ownerID string, req models.SyncRequest) (models.SyncResponse, error)

	// ChangesSince returns the owner's notes, tombstones included, written at
	// or after since.
	ChangesSince(ctx context.Context, ownerID string, since time.Time) ([]models.RemoteNote, error)
}

type AuthService interface {
	RegisterUser(ctx context.Context, user models.User) (models.User, error)
	Login(ctx context.Context, user models.User) (models.User, error)
	CreateToken(ctx context.Context, user models.User) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}

// NotesServiceWrapper defines middleware composition for NotesService.
// Implementations wrap an existing NotesService to add behavior such as
// validation.
type NotesServiceWrapper interface {
	Wrap(NotesService) NotesService
}
