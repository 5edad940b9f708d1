package http

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/metrics"
	"github.com/mars-alien/NoteTakingApp/internal/service"
)

type Handler struct {
	services *service.Services

	// metrics and gatherer may be nil; /metrics is served only with a gatherer
	metrics  *metrics.ServerMetrics
	gatherer prometheus.Gatherer

	logger *logger.Logger
}

func NewHandler(services *service.Services, m *metrics.ServerMetrics, gatherer prometheus.Gatherer, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services: services,
		metrics:  m,
		gatherer: gatherer,
		logger:   logger,
	}
}
