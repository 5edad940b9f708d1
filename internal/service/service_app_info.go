package service

import (
	"context"

	"github.com/mars-alien/NoteTakingApp/internal/config"
)

type appInfoService struct {
	appVersion string
}

func NewAppInfoService(cfg config.App) (AppInfoService, error) {
	if cfg.Version == "" {
		return nil, ErrVersionIsNotSpecified
	}

	return &appInfoService{appVersion: cfg.Version}, nil
}

func (s *appInfoService) GetAppVersion(ctx context.Context) string {
	return s.appVersion
}
