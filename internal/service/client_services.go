package service

import (
	"github.com/mars-alien/NoteTakingApp/internal/adapter"
	"github.com/mars-alien/NoteTakingApp/internal/config"
	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/metrics"
	"github.com/mars-alien/NoteTakingApp/internal/store"
	"github.com/mars-alien/NoteTakingApp/internal/utils"
)

// ClientServices is the wired sync engine of one device.
type ClientServices struct {
	NoteService  ClientNoteService
	AuthService  ClientAuthService
	Coordinator  *SyncCoordinator
	Connectivity *ConnectivityObserver
	SyncJob      ClientSyncJob
}

func NewClientServices(
	localStore *store.ClientStorages,
	serverAdapter adapter.ServerAdapter,
	cfg config.Sync,
	m *metrics.SyncMetrics,
	logger *logger.Logger,
) *ClientServices {
	coordinator := NewSyncCoordinator(localStore, serverAdapter, cfg, m, logger)

	return &ClientServices{
		NoteService:  NewClientNoteService(localStore, utils.NewUUIDGenerator(), coordinator, cfg.SaveDebounce),
		AuthService:  NewClientAuthService(localStore, serverAdapter, coordinator),
		Coordinator:  coordinator,
		Connectivity: NewConnectivityObserver(serverAdapter, coordinator, cfg, logger),
		SyncJob:      NewClientSyncJob(coordinator),
	}
}
