package store

import (
	"context"
	"time"

	"github.com/mars-alien/NoteTakingApp/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// LocalNoteRepository is the durable collection of notes on this device.
//
// At most one note may carry a given non-empty remote id; a write that would
// break this fails with [ErrDuplicateRemoteID] and leaves the store unchanged.
type LocalNoteRepository interface {
	GetNote(ctx context.Context, localID string) (models.Note, error)
	FindByRemoteID(ctx context.Context, remoteID string) (models.Note, error)
	FindByClientToken(ctx context.Context, token string) (models.Note, error)
	// FindUnsyncedByTitle returns the oldest note with the exact title that
	// has no remote id and is not synced.
	FindUnsyncedByTitle(ctx context.Context, title string) (models.Note, error)
	// UpsertNote inserts or replaces the note keyed by LocalID. An empty
	// LocalID gets a fresh one, which is returned.
	UpsertNote(ctx context.Context, note models.Note) (string, error)
	DeleteNote(ctx context.Context, localID string) error
	// ListNotes returns all notes, most recently modified first.
	ListNotes(ctx context.Context) ([]models.Note, error)
}

// SyncQueueRepository is the durable, ordered log of pending mutations.
type SyncQueueRepository interface {
	Enqueue(ctx context.Context, localID string, action models.Action, payload models.MutationPayload) (int64, error)
	// DrainOrdered returns a snapshot of all entries ordered by enqueue time,
	// ties broken by entry id. Entries are not removed.
	DrainOrdered(ctx context.Context) ([]models.QueueEntry, error)
	RemoveEntries(ctx context.Context, entryIDs ...int64) error
	RemoveByLocalID(ctx context.Context, localID string) error
	IncrementRetry(ctx context.Context, entryIDs ...int64) error
	Len(ctx context.Context) (int, error)
}

// SyncMetaRepository keeps the pull watermark.
type SyncMetaRepository interface {
	// GetWatermark returns the zero time when no pull has completed yet.
	GetWatermark(ctx context.Context) (time.Time, error)
	SetWatermark(ctx context.Context, at time.Time) error
}

// LocalUserRepository caches the single session credential of this device.
type LocalUserRepository interface {
	SaveCredential(ctx context.Context, cred models.Credential) error
	GetCredential(ctx context.Context) (models.Credential, error)
	ClearCredential(ctx context.Context) error
}
