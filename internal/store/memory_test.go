package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mars-alien/NoteTakingApp/models"
)

func TestMemoryNoteRepository_UpdatedAtStrictlyIncreases(t *testing.T) {
	repo := NewMemoryNoteRepository()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }
	ctx := context.Background()

	a, err := repo.InsertNote(ctx, models.RemoteNote{ID: "a", OwnerID: "o"})
	require.NoError(t, err)
	b, err := repo.InsertNote(ctx, models.RemoteNote{ID: "b", OwnerID: "o"})
	require.NoError(t, err)

	assert.True(t, b.UpdatedAt.After(a.UpdatedAt))
}

func TestMemoryNoteRepository_ChangedSince(t *testing.T) {
	repo := NewMemoryNoteRepository()
	ctx := context.Background()

	a, err := repo.InsertNote(ctx, models.RemoteNote{ID: "a", OwnerID: "o"})
	require.NoError(t, err)
	_, err = repo.InsertNote(ctx, models.RemoteNote{ID: "x", OwnerID: "other"})
	require.NoError(t, err)
	b, err := repo.UpdateNote(ctx, models.RemoteNote{ID: "a", OwnerID: "o", Title: "t", Deleted: true})
	require.NoError(t, err)

	all, err := repo.ChangedSince(ctx, "o", time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Deleted)

	inclusive, err := repo.ChangedSince(ctx, "o", b.UpdatedAt)
	require.NoError(t, err)
	assert.Len(t, inclusive, 1)

	assert.True(t, b.UpdatedAt.After(a.UpdatedAt))
}

func TestMemoryNoteRepository_UpdateForeign(t *testing.T) {
	repo := NewMemoryNoteRepository()
	ctx := context.Background()

	_, err := repo.InsertNote(ctx, models.RemoteNote{ID: "a", OwnerID: "o"})
	require.NoError(t, err)

	_, err = repo.UpdateNote(ctx, models.RemoteNote{ID: "a", OwnerID: "intruder"})
	assert.ErrorIs(t, err, ErrRemoteNoteNotFound)
}

func TestMemoryNoteRepository_FindByClientToken(t *testing.T) {
	repo := NewMemoryNoteRepository()
	ctx := context.Background()

	_, err := repo.InsertNote(ctx, models.RemoteNote{ID: "a", OwnerID: "o", ClientToken: "tok"})
	require.NoError(t, err)

	got, err := repo.FindByClientToken(ctx, "o", "tok")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	_, err = repo.FindByClientToken(ctx, "other", "tok")
	assert.ErrorIs(t, err, ErrRemoteNoteNotFound)
}

func TestMemoryUserRepository(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, models.User{UserID: "u1", Login: "alice", Password: "plain", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Empty(t, created.Password)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = repo.CreateUser(ctx, models.User{UserID: "u2", Login: "alice"})
	assert.ErrorIs(t, err, ErrLoginAlreadyExists)

	found, err := repo.FindUserByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.UserID)

	_, err = repo.FindUserByLogin(ctx, "bob")
	assert.ErrorIs(t, err, ErrNoUserWasFound)
}
