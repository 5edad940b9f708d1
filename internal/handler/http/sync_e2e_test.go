package http

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mars-alien/NoteTakingApp/internal/adapter"
	"github.com/mars-alien/NoteTakingApp/internal/config"
	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/service"
	"github.com/mars-alien/NoteTakingApp/internal/store"
	"github.com/mars-alien/NoteTakingApp/internal/utils"
	"github.com/mars-alien/NoteTakingApp/models"
)

// client — устройство, синхронизирующееся с тестовым сервером по HTTP.
type client struct {
	coordinator *service.SyncCoordinator
	auth        service.ClientAuthService
	notes       service.ClientNoteService
}

func newClient(t *testing.T, serverURL, engine string) *client {
	t.Helper()
	ctx := context.Background()

	storages, err := store.NewClientStorages(ctx, config.Storage{
		Engine: engine,
		DB:     config.DB{DSN: filepath.Join(t.TempDir(), "notes.db")},
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = storages.Close() })

	remote, err := adapter.NewHTTPServerAdapter(config.Adapter{HTTPAddress: serverURL, RequestTimeout: 5 * time.Second}, logger.Nop())
	require.NoError(t, err)

	// таймер повтора не должен срабатывать во время теста
	coordinator := service.NewSyncCoordinator(storages, remote, config.Sync{
		BackoffFloor:   time.Minute,
		BackoffCeiling: time.Minute,
	}, nil, logger.Nop())
	t.Cleanup(coordinator.Close)

	return &client{
		coordinator: coordinator,
		auth:        service.NewClientAuthService(storages, remote, coordinator),
		notes:       service.NewClientNoteService(storages, utils.NewUUIDGenerator(), nil, 0),
	}
}

func (c *client) online(t *testing.T) {
	t.Helper()
	c.coordinator.SetOnline(true)
	require.Eventually(t, func() bool {
		return !c.coordinator.Status().SyncInFlight
	}, 5*time.Second, 10*time.Millisecond)
}

func (c *client) sync(t *testing.T) {
	t.Helper()
	require.NoError(t, c.coordinator.SyncNow(context.Background()))
}

func (c *client) list(t *testing.T) []models.Note {
	t.Helper()
	notes, err := c.notes.List(context.Background())
	require.NoError(t, err)
	return notes
}

func TestSyncOverHTTP_TwoDevicesConverge(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	laptop := newClient(t, srv.URL, config.EngineSQLite)
	phone := newClient(t, srv.URL, config.EngineBolt)

	_, err := laptop.auth.Register(ctx, "alice", "secret1")
	require.NoError(t, err)
	_, err = phone.auth.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	// офлайн правки копятся в очереди
	created, err := laptop.notes.Create(ctx, "groceries", "milk")
	require.NoError(t, err)

	laptop.online(t)
	assert.Equal(t, models.PhaseIdle, laptop.coordinator.Status().Phase)
	assert.Empty(t, laptop.coordinator.Status().LastError)

	synced, err := laptop.notes.Get(ctx, created.LocalID)
	require.NoError(t, err)
	require.True(t, synced.HasRemote())
	assert.True(t, synced.Synced)

	phone.online(t)
	onPhone := phone.list(t)
	require.Len(t, onPhone, 1)
	assert.Equal(t, "milk", onPhone[0].Content)
	assert.Equal(t, synced.RemoteID, onPhone[0].RemoteID)

	_, err = phone.notes.Update(ctx, onPhone[0].LocalID, "groceries", "milk, eggs")
	require.NoError(t, err)
	phone.sync(t)

	laptop.sync(t)
	onLaptop := laptop.list(t)
	require.Len(t, onLaptop, 1)
	assert.Equal(t, "milk, eggs", onLaptop[0].Content)

	require.NoError(t, laptop.notes.Delete(ctx, onLaptop[0].LocalID))
	laptop.sync(t)
	phone.sync(t)
	assert.Empty(t, phone.list(t))
	assert.Empty(t, laptop.list(t))
}

func TestSyncOverHTTP_StaleEditLosesToServer(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	laptop := newClient(t, srv.URL, config.EngineBolt)
	phone := newClient(t, srv.URL, config.EngineBolt)

	_, err := laptop.auth.Register(ctx, "alice", "secret1")
	require.NoError(t, err)
	_, err = phone.auth.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	_, err = laptop.notes.Create(ctx, "plan", "v1")
	require.NoError(t, err)
	laptop.online(t)
	phone.online(t)

	onLaptop := laptop.list(t)
	onPhone := phone.list(t)
	require.Len(t, onPhone, 1)

	// правка телефона старше правки ноутбука
	_, err = phone.notes.Update(ctx, onPhone[0].LocalID, "plan", "phone")
	require.NoError(t, err)
	_, err = laptop.notes.Update(ctx, onLaptop[0].LocalID, "plan", "laptop")
	require.NoError(t, err)

	laptop.sync(t)
	phone.sync(t)

	final := phone.list(t)
	require.Len(t, final, 1)
	assert.Equal(t, "laptop", final[0].Content)

	conflicts := phone.coordinator.Status().Conflicts
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ReasonStale, conflicts[0].Reason)
	assert.Equal(t, models.ResolutionServerWins, conflicts[0].Resolution)
}

func TestSyncOverHTTP_ExpiredSessionHaltsUntilLogin(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	laptop := newClient(t, srv.URL, config.EngineBolt)
	_, err := laptop.auth.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	require.NoError(t, laptop.auth.Logout(ctx))
	_, err = laptop.notes.Create(ctx, "offline", "draft")
	require.NoError(t, err)

	laptop.online(t)
	assert.True(t, laptop.coordinator.Status().AuthRequired)
	assert.ErrorIs(t, laptop.coordinator.SyncNow(ctx), service.ErrAuthRequired)

	// вход снимает остановку и запускает цикл
	_, err = laptop.auth.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		st := laptop.coordinator.Status()
		return !st.AuthRequired && !st.SyncInFlight && !st.LastSyncAt.IsZero()
	}, 5*time.Second, 10*time.Millisecond)

	notes := laptop.list(t)
	require.Len(t, notes, 1)
	assert.True(t, notes[0].Synced)
}
