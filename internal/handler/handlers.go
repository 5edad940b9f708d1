package handler

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mars-alien/NoteTakingApp/internal/config"
	"github.com/mars-alien/NoteTakingApp/internal/handler/http"
	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/metrics"
	"github.com/mars-alien/NoteTakingApp/internal/service"
)

type Handlers struct {
	HTTP *http.Handler
}

// NewHandlers builds the transport handlers of the remote store. m and
// gatherer may be nil, which disables request metrics and /metrics.
func NewHandlers(services *service.Services, cfg config.Server, m *metrics.ServerMetrics, gatherer prometheus.Gatherer, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	if cfg.HTTPAddress == "" {
		return nil, errNoHandlersAreCreated
	}

	return &Handlers{
		HTTP: http.NewHandler(services, m, gatherer, logger),
	}, nil
}
