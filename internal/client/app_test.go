package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mars-alien/NoteTakingApp/internal/config"
	handlerhttp "github.com/mars-alien/NoteTakingApp/internal/handler/http"
	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/service"
	"github.com/mars-alien/NoteTakingApp/internal/store"
)

// newRemote поднимает сервер заметок на хранилище в памяти.
func newRemote(t *testing.T) *httptest.Server {
	t.Helper()

	storages, err := store.NewStorages(context.Background(), config.Storage{}, logger.Nop())
	require.NoError(t, err)

	services, err := service.NewServices(storages, &config.ServerConfig{
		App:  config.App{Version: "test"},
		Auth: config.Auth{TokenSignKey: "k", TokenIssuer: "notes-test", TokenDuration: time.Hour},
	}, nil, logger.Nop())
	require.NoError(t, err)

	srv := httptest.NewServer(handlerhttp.NewHandler(services, nil, nil, logger.Nop()).Init())
	t.Cleanup(srv.Close)
	return srv
}

func testClientConfig(t *testing.T, serverURL string) *config.ClientConfig {
	return &config.ClientConfig{
		Storage: config.Storage{
			Engine: config.EngineBolt,
			DB:     config.DB{DSN: filepath.Join(t.TempDir(), "notes.bolt")},
		},
		Adapter: config.Adapter{HTTPAddress: serverURL, RequestTimeout: 2 * time.Second},
		Sync: config.Sync{
			Interval:       time.Hour,
			ProbeInterval:  50 * time.Millisecond,
			ProbeTimeout:   50 * time.Millisecond,
			BackoffFloor:   time.Minute,
			BackoffCeiling: time.Minute,
		},
	}
}

func newTestApp(t *testing.T, cfg *config.ClientConfig) *App {
	t.Helper()
	app, err := NewApp(context.Background(), cfg, nil, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestApp_SyncOnce(t *testing.T) {
	srv := newRemote(t)
	ctx := context.Background()
	app := newTestApp(t, testClientConfig(t, srv.URL))

	_, err := app.Services.AuthService.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	note, err := app.Services.NoteService.Create(ctx, "title", "body")
	require.NoError(t, err)

	pending, err := app.PendingMutations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	require.NoError(t, app.SyncOnce(ctx))

	pending, err = app.PendingMutations(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	synced, err := app.Services.NoteService.Get(ctx, note.LocalID)
	require.NoError(t, err)
	assert.True(t, synced.Synced)
	assert.True(t, synced.HasRemote())
	assert.True(t, app.Services.Coordinator.Status().Online)
}

func TestApp_SyncOnce_Offline(t *testing.T) {
	srv := newRemote(t)
	cfg := testClientConfig(t, srv.URL)
	srv.Close()

	app := newTestApp(t, cfg)
	assert.ErrorIs(t, app.SyncOnce(context.Background()), service.ErrOffline)
}

func TestApp_RestoresSession(t *testing.T) {
	srv := newRemote(t)
	ctx := context.Background()
	cfg := testClientConfig(t, srv.URL)

	first, err := NewApp(ctx, cfg, nil, logger.Nop())
	require.NoError(t, err)
	_, err = first.Services.AuthService.Register(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// новый процесс работает с сохранённой сессией
	second := newTestApp(t, cfg)
	_, err = second.Services.NoteService.Create(ctx, "t", "c")
	require.NoError(t, err)
	require.NoError(t, second.SyncOnce(ctx))
	assert.False(t, second.Services.Coordinator.Status().AuthRequired)
}

func TestApp_RunGoesOnlineAndStops(t *testing.T) {
	srv := newRemote(t)
	app := newTestApp(t, testClientConfig(t, srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		return app.Services.Coordinator.Status().Online
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestNewApp_BadConfig(t *testing.T) {
	cfg := testClientConfig(t, "http://127.0.0.1:1")
	cfg.Storage.Engine = "leveldb"

	_, err := NewApp(context.Background(), cfg, nil, logger.Nop())
	assert.ErrorIs(t, err, store.ErrUnknownEngine)
}
