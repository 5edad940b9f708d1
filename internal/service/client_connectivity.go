package service

import (
	"context"
	"sync"
	"time"

	"github.com/mars-alien/NoteTakingApp/internal/config"
	"github.com/mars-alien/NoteTakingApp/internal/logger"
)

// Pinger probes the remote store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectivityObserver maps connectivity signals to online/offline
// transitions of a [ConnectivitySink]. Only transitions are forwarded; the
// first signal counts as a transition only when it reports online.
type ConnectivityObserver struct {
	pinger   Pinger
	sink     ConnectivitySink
	interval time.Duration
	timeout  time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	online bool
}

func NewConnectivityObserver(pinger Pinger, sink ConnectivitySink, cfg config.Sync, log *logger.Logger) *ConnectivityObserver {
	interval := cfg.ProbeInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	timeout := cfg.ProbeTimeout
	if timeout <= 0 || timeout > interval {
		timeout = interval
	}

	return &ConnectivityObserver{
		pinger:   pinger,
		sink:     sink,
		interval: interval,
		timeout:  timeout,
		logger:   log,
	}
}

// Online returns the last observed state.
func (o *ConnectivityObserver) Online() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.online
}

// Report feeds an external connectivity signal.
func (o *ConnectivityObserver) Report(online bool) {
	o.mu.Lock()
	changed := o.online != online
	o.online = online
	o.mu.Unlock()

	if !changed {
		return
	}
	o.logger.Debug().Str("func", "ConnectivityObserver.Report").Bool("online", online).Msg("connectivity transition")
	o.sink.SetOnline(online)
}

// Probe pings the remote store once and reports the result. A timed out
// probe counts as offline.
func (o *ConnectivityObserver) Probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	err := o.pinger.Ping(probeCtx)
	if err != nil && ctx.Err() != nil {
		// shutting down, not a connectivity signal
		return o.Online()
	}
	if err != nil {
		o.logger.Debug().Err(err).Str("func", "ConnectivityObserver.Probe").Msg("probe failed")
	}

	o.Report(err == nil)
	return err == nil
}

// Run probes immediately and then every interval until ctx is done.
func (o *ConnectivityObserver) Run(ctx context.Context) error {
	o.Probe(ctx)

	t := time.NewTicker(o.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			o.Probe(ctx)
		}
	}
}
