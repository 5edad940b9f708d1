package service

import (
	"context"
	"time"

	"github.com/mars-alien/NoteTakingApp/models"
)

// TriggerReason names what asked the coordinator to start a cycle.
type TriggerReason string

const (
	TriggerOnline     TriggerReason = "online"
	TriggerPeriodic   TriggerReason = "periodic"
	TriggerSave       TriggerReason = "save"
	TriggerRetry      TriggerReason = "retry"
	TriggerCredential TriggerReason = "credential"
	TriggerManual     TriggerReason = "manual"
)

// SyncTrigger asks for a sync cycle. Implementations decide whether the
// request is honoured; a refused trigger is not an error.
type SyncTrigger interface {
	Trigger(reason TriggerReason)
}

// ConnectivitySink receives online/offline transitions.
type ConnectivitySink interface {
	SetOnline(online bool)
}

// ClientNoteService is the local edit path. Every write is persisted and
// queued before the call returns; the network is never touched.
type ClientNoteService interface {
	// Create stores a new unsynced note and queues its creation.
	Create(ctx context.Context, title, content string) (models.Note, error)

	// Update rewrites the note content and queues the update.
	// Returns store.ErrNoteNotFound for unknown ids.
	Update(ctx context.Context, localID, title, content string) (models.Note, error)

	// Delete removes the note locally. A note the server knows about gets a
	// delete mutation; pending mutations of a never-synced note are dropped.
	Delete(ctx context.Context, localID string) error

	Get(ctx context.Context, localID string) (models.Note, error)

	// List returns all notes, most recently modified first.
	List(ctx context.Context) ([]models.Note, error)

	// Close cancels a save-triggered sync that has not fired yet.
	Close()
}

// ClientAuthService obtains and caches the session credential.
type ClientAuthService interface {
	// Register creates an account on the server and caches the issued token.
	Register(ctx context.Context, login, password string) (models.Credential, error)

	// Login authenticates against the server and caches the issued token.
	Login(ctx context.Context, login, password string) (models.Credential, error)

	// RestoreSession loads the cached credential and hands its token to the
	// server adapter. Returns store.ErrLocalSessionNotFound if none is cached.
	RestoreSession(ctx context.Context) (models.Credential, error)

	// Logout drops the cached credential.
	Logout(ctx context.Context) error
}

// ClientSyncJob is a background worker that periodically asks for a sync.
type ClientSyncJob interface {
	// Start launches the background goroutine. It triggers every interval,
	// defaulting to 5 minutes if interval is zero or negative. Any previously
	// running job is stopped before the new one begins.
	Start(ctx context.Context, interval time.Duration)

	// Stop signals the background goroutine to exit and blocks until it has
	// fully terminated.
	Stop()

	// Run starts the job and blocks until ctx is done.
	Run(ctx context.Context, interval time.Duration) error
}
