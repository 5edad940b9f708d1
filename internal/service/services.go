package service

import (
	"github.com/mars-alien/NoteTakingApp/internal/config"
	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/metrics"
	"github.com/mars-alien/NoteTakingApp/internal/store"
	"github.com/mars-alien/NoteTakingApp/internal/utils"
)

type Services struct {
	AuthService    AuthService
	NotesService   NotesService
	AppInfoService AppInfoService
}

func NewServices(storages *store.Storages, cfg *config.ServerConfig, m *metrics.ServerMetrics, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg.App)
	if err != nil {
		return nil, err
	}

	notes := NewNotesValidationService().Wrap(
		NewNotesService(storages.NoteRepository, utils.NewUUIDGenerator(), m),
	)

	return &Services{
		AuthService:    NewAuthService(storages.UserRepository, cfg.Auth, logger),
		NotesService:   notes,
		AppInfoService: appInfo,
	}, nil
}
