package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mars-alien/NoteTakingApp/models"
)

// MemoryNoteRepository is an in-process [NoteRepository] used when the remote
// store runs without a database and in end-to-end tests.
type MemoryNoteRepository struct {
	mu    sync.RWMutex
	notes map[string]models.RemoteNote
	now   func() time.Time
	last  time.Time
}

func NewMemoryNoteRepository() *MemoryNoteRepository {
	return &MemoryNoteRepository{
		notes: make(map[string]models.RemoteNote),
		now:   time.Now,
	}
}

// tick returns a strictly increasing server timestamp. Callers hold mu.
func (m *MemoryNoteRepository) tick() time.Time {
	t := m.now().UTC().Truncate(time.Microsecond)
	if !t.After(m.last) {
		t = m.last.Add(time.Microsecond)
	}
	m.last = t
	return t
}

func (m *MemoryNoteRepository) GetNote(_ context.Context, id string) (models.RemoteNote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	note, ok := m.notes[id]
	if !ok {
		return models.RemoteNote{}, ErrRemoteNoteNotFound
	}
	return note, nil
}

func (m *MemoryNoteRepository) FindByClientToken(_ context.Context, ownerID, clientToken string) (models.RemoteNote, error) {
	if clientToken == "" {
		return models.RemoteNote{}, ErrRemoteNoteNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, note := range m.notes {
		if note.OwnerID == ownerID && note.ClientToken == clientToken {
			return note, nil
		}
	}
	return models.RemoteNote{}, ErrRemoteNoteNotFound
}

func (m *MemoryNoteRepository) InsertNote(_ context.Context, note models.RemoteNote) (models.RemoteNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	note.UpdatedAt = m.tick()
	m.notes[note.ID] = note
	return note, nil
}

func (m *MemoryNoteRepository) UpdateNote(_ context.Context, note models.RemoteNote) (models.RemoteNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.notes[note.ID]
	if !ok || stored.OwnerID != note.OwnerID {
		return models.RemoteNote{}, ErrRemoteNoteNotFound
	}

	stored.Title = note.Title
	stored.Content = note.Content
	stored.LastModified = note.LastModified
	stored.Deleted = note.Deleted
	stored.UpdatedAt = m.tick()
	m.notes[note.ID] = stored
	return stored, nil
}

func (m *MemoryNoteRepository) ChangedSince(_ context.Context, ownerID string, since time.Time) ([]models.RemoteNote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	notes := make([]models.RemoteNote, 0)
	for _, note := range m.notes {
		if note.OwnerID == ownerID && !note.UpdatedAt.Before(since) {
			notes = append(notes, note)
		}
	}

	slices.SortFunc(notes, func(a, b models.RemoteNote) int {
		if c := a.UpdatedAt.Compare(b.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return notes, nil
}

// MemoryUserRepository is the in-process [UserRepository].
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]models.User)}
}

func (m *MemoryUserRepository) CreateUser(_ context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.Login]; exists {
		return models.User{}, ErrLoginAlreadyExists
	}

	user.Password = ""
	user.CreatedAt = time.Now().UTC()
	m.users[user.Login] = user
	return user, nil
}

func (m *MemoryUserRepository) FindUserByLogin(_ context.Context, login string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[login]
	if !ok {
		return models.User{}, ErrNoUserWasFound
	}
	return user, nil
}
