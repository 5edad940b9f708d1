package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mars-alien/NoteTakingApp/internal/adapter"
	"github.com/mars-alien/NoteTakingApp/internal/config"
	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/metrics"
	"github.com/mars-alien/NoteTakingApp/internal/service"
	"github.com/mars-alien/NoteTakingApp/internal/store"
	"github.com/mars-alien/NoteTakingApp/internal/workers"
)

// idlePollInterval is how often SyncOnce checks for a finished background
// cycle.
const idlePollInterval = 20 * time.Millisecond

type App struct {
	Services *service.ClientServices

	storages *store.ClientStorages
	cfg      config.Sync
	logger   *logger.Logger
}

// NewApp opens the local store and wires the sync engine. A cached session
// is restored so that commands work without logging in again. reg may be nil.
func NewApp(ctx context.Context, cfg *config.ClientConfig, reg prometheus.Registerer, log *logger.Logger) (*App, error) {
	storages, err := store.NewClientStorages(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.Adapter, log)
	if err != nil {
		_ = storages.Close()
		return nil, fmt.Errorf("create server adapter: %w", err)
	}

	return newApp(ctx, storages, serverAdapter, cfg.Sync, metrics.NewSyncMetrics(reg), log)
}

func newApp(
	ctx context.Context,
	storages *store.ClientStorages,
	serverAdapter adapter.ServerAdapter,
	cfg config.Sync,
	m *metrics.SyncMetrics,
	log *logger.Logger,
) (*App, error) {
	services := service.NewClientServices(storages, serverAdapter, cfg, m, log)

	cred, err := services.AuthService.RestoreSession(ctx)
	switch {
	case errors.Is(err, store.ErrLocalSessionNotFound):
		log.Info().Msg("no cached session, login required")
	case err != nil:
		services.Coordinator.Close()
		_ = storages.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	default:
		log.Info().Str("login", cred.Login).Msg("session restored")
	}

	return &App{
		Services: services,
		storages: storages,
		cfg:      cfg,
		logger:   log,
	}, nil
}

// Run keeps the device in sync until ctx is cancelled: the connectivity
// observer drives online/offline transitions and the periodic job triggers
// cycles while online.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info().Dur("interval", a.cfg.Interval).Msg("sync daemon started")

	w := workers.NewWorkers(
		workers.WorkerFunc(a.Services.Connectivity.Run),
		workers.WorkerFunc(func(ctx context.Context) error {
			return a.Services.SyncJob.Run(ctx, a.cfg.Interval)
		}),
	)

	err := w.Run(ctx)
	a.logger.Info().Msg("sync daemon stopped")
	return err
}

// SyncOnce probes the server and runs one full cycle. It returns
// service.ErrOffline when the server cannot be reached.
func (a *App) SyncOnce(ctx context.Context) error {
	if !a.Services.Connectivity.Probe(ctx) {
		return service.ErrOffline
	}

	// going online starts a cycle in the background
	if err := a.waitIdle(ctx); err != nil {
		return err
	}

	err := a.Services.Coordinator.SyncNow(ctx)
	if errors.Is(err, service.ErrSyncInFlight) {
		return a.waitIdle(ctx)
	}
	return err
}

func (a *App) waitIdle(ctx context.Context) error {
	t := time.NewTicker(idlePollInterval)
	defer t.Stop()

	for a.Services.Coordinator.Status().SyncInFlight {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

// PendingMutations returns the number of queued local changes.
func (a *App) PendingMutations(ctx context.Context) (int, error) {
	return a.storages.Queue.Len(ctx)
}

// Close stops the sync engine and releases the local store.
func (a *App) Close() error {
	a.Services.NoteService.Close()
	a.Services.Coordinator.Close()
	return a.storages.Close()
}
