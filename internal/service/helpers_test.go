package service

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mars-alien/NoteTakingApp/internal/adapter"
	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/store"
	"github.com/mars-alien/NoteTakingApp/internal/utils"
	"github.com/mars-alien/NoteTakingApp/models"
)

// newTestStorages открывает bolt-хранилище во временной директории теста.
func newTestStorages(t *testing.T) *store.ClientStorages {
	t.Helper()

	bs, err := store.OpenBolt(filepath.Join(t.TempDir(), "notes.db"), utils.NewUUIDGenerator(), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bs.Close() })

	return &store.ClientStorages{
		Notes: bs.Notes(),
		Queue: bs.Queue(),
		Meta:  bs.Meta(),
		Users: bs.Users(),
	}
}

// fakeRemote — адаптер, работающий напрямую с серверным NotesService поверх
// памяти. Ошибку можно подменить через failWith: пока она задана, все сетевые
// вызовы возвращают её.
type fakeRemote struct {
	notes NotesService
	owner string

	mu       sync.Mutex
	token    string
	failWith error
	pushes   [][]models.NotePayload
	deletes  []string

	pulls atomic.Int64
}

func newFakeRemote(owner string) *fakeRemote {
	return &fakeRemote{
		notes: NewNotesService(store.NewMemoryNoteRepository(), utils.NewUUIDGenerator(), nil),
		owner: owner,
	}
}

func (f *fakeRemote) fail(err error) {
	f.mu.Lock()
	f.failWith = err
	f.mu.Unlock()
}

func (f *fakeRemote) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failWith
}

func (f *fakeRemote) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

func (f *fakeRemote) deleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deletes)
}

func (f *fakeRemote) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeRemote) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeRemote) Register(context.Context, string, string) (models.Session, error) {
	return models.Session{UserID: f.owner, Token: "token"}, f.err()
}

func (f *fakeRemote) Login(context.Context, string, string) (models.Session, error) {
	return models.Session{UserID: f.owner, Token: "token"}, f.err()
}

func (f *fakeRemote) Ping(context.Context) error {
	return f.err()
}

func (f *fakeRemote) CreateNote(ctx context.Context, note models.NotePayload) (models.RemoteNote, error) {
	if err := f.err(); err != nil {
		return models.RemoteNote{}, err
	}
	return f.notes.CreateNote(ctx, f.owner, note)
}

func (f *fakeRemote) UpdateNote(ctx context.Context, remoteID string, note models.NotePayload) (models.RemoteNote, *models.SyncRejection, error) {
	if err := f.err(); err != nil {
		return models.RemoteNote{}, nil, err
	}
	return f.notes.UpdateNote(ctx, f.owner, remoteID, note)
}

func (f *fakeRemote) DeleteNote(ctx context.Context, remoteID string) error {
	if err := f.err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.deletes = append(f.deletes, remoteID)
	f.mu.Unlock()

	if err := f.notes.DeleteNote(ctx, f.owner, remoteID); err != nil {
		return adapter.ErrNotFound
	}
	return nil
}

func (f *fakeRemote) PushNotes(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error) {
	if err := f.err(); err != nil {
		return models.SyncResponse{}, err
	}
	f.mu.Lock()
	f.pushes = append(f.pushes, req.Notes)
	f.mu.Unlock()

	return f.notes.Sync(ctx, f.owner, req)
}

func (f *fakeRemote) PullChanges(ctx context.Context, since time.Time) ([]models.RemoteNote, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	f.pulls.Add(1)
	return f.notes.ChangesSince(ctx, f.owner, since)
}

// serverWrite пишет заметку на сервер в обход клиента, как это сделало бы
// другое устройство.
func (f *fakeRemote) serverWrite(t *testing.T, payload models.NotePayload) models.RemoteNote {
	t.Helper()

	ctx := context.Background()
	if payload.ID == "" {
		note, err := f.notes.CreateNote(ctx, f.owner, payload)
		require.NoError(t, err)
		return note
	}
	note, _, err := f.notes.UpdateNote(ctx, f.owner, payload.ID, payload)
	require.NoError(t, err)
	return note
}

// countingTrigger считает вызовы Trigger по причинам.
type countingTrigger struct {
	mu      sync.Mutex
	reasons []TriggerReason
}

func (c *countingTrigger) Trigger(reason TriggerReason) {
	c.mu.Lock()
	c.reasons = append(c.reasons, reason)
	c.mu.Unlock()
}

func (c *countingTrigger) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reasons)
}

// ts возвращает фиксированный момент со смещением в секундах.
func ts(sec int) time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(sec) * time.Second)
}
