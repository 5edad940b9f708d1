package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mars-alien/NoteTakingApp/internal/config"
	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/mock"
)

// recordingSink запоминает переходы, переданные наблюдателем.
type recordingSink struct {
	mu          sync.Mutex
	transitions []bool
}

func (r *recordingSink) SetOnline(online bool) {
	r.mu.Lock()
	r.transitions = append(r.transitions, online)
	r.mu.Unlock()
}

func (r *recordingSink) got() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.transitions...)
}

func TestConnectivityObserver_ReportForwardsTransitionsOnly(t *testing.T) {
	sink := &recordingSink{}
	o := NewConnectivityObserver(nil, sink, config.Sync{}, logger.Nop())

	o.Report(false) // начальное состояние — offline, перехода нет
	o.Report(true)
	o.Report(true)
	o.Report(false)
	o.Report(false)
	o.Report(true)

	assert.Equal(t, []bool{true, false, true}, sink.got())
	assert.True(t, o.Online())
}

func TestConnectivityObserver_Probe(t *testing.T) {
	ctrl := gomock.NewController(t)
	pinger := mock.NewMockServerAdapter(ctrl)
	sink := &recordingSink{}
	o := NewConnectivityObserver(pinger, sink, config.Sync{ProbeInterval: time.Second, ProbeTimeout: 100 * time.Millisecond}, logger.Nop())
	ctx := context.Background()

	gomock.InOrder(
		pinger.EXPECT().Ping(gomock.Any()).Return(nil),
		pinger.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused")),
	)

	assert.True(t, o.Probe(ctx))
	assert.False(t, o.Probe(ctx))
	assert.Equal(t, []bool{true, false}, sink.got())
}

func TestConnectivityObserver_ProbeTimeoutIsOffline(t *testing.T) {
	ctrl := gomock.NewController(t)
	pinger := mock.NewMockServerAdapter(ctrl)
	sink := &recordingSink{}
	o := NewConnectivityObserver(pinger, sink, config.Sync{ProbeInterval: time.Second, ProbeTimeout: 20 * time.Millisecond}, logger.Nop())
	o.Report(true)

	pinger.EXPECT().Ping(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.False(t, o.Probe(context.Background()))
	assert.Equal(t, []bool{true, false}, sink.got())
}

func TestConnectivityObserver_RunStopsWithContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	pinger := mock.NewMockServerAdapter(ctrl)
	sink := &recordingSink{}
	o := NewConnectivityObserver(pinger, sink, config.Sync{ProbeInterval: 10 * time.Millisecond}, logger.Nop())

	pinger.EXPECT().Ping(gomock.Any()).Return(nil).MinTimes(2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	require.Eventually(t, o.Online, time.Second, 5*time.Millisecond)
	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run не завершился после отмены контекста")
	}
	assert.Equal(t, []bool{true}, sink.got())
}
