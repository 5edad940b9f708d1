package service

import (
	"context"
	"sync"
	"time"
)

type clientSyncJob struct {
	trigger SyncTrigger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClientSyncJob creates a clientSyncJob that asks trigger for a periodic
// sync on a ticker. The job is idle until Start is called.
func NewClientSyncJob(trigger SyncTrigger) ClientSyncJob {
	return &clientSyncJob{trigger: trigger}
}

// Start implements ClientSyncJob. The goroutine exits when ctx is cancelled or
// Stop is called.
func (j *clientSyncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.trigger.Trigger(TriggerPeriodic)
			}
		}
	}()
}

// Stop implements ClientSyncJob. Safe to call when the job is not running.
func (j *clientSyncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

// Run starts the job and blocks until ctx is done, so the job can be run as
// a worker.
func (j *clientSyncJob) Run(ctx context.Context, interval time.Duration) error {
	j.Start(ctx, interval)
	<-ctx.Done()
	j.Stop()
	return nil
}
