// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Start / Stop ─────────────────────────────────────────────────────────────

func TestClientSyncJob_Start_TriggersPeriodically(t *testing.T) {
	trigger := &countingTrigger{}
	job := NewClientSyncJob(trigger)

	// Интервал 10ms — за 55ms должно быть ~5 тиков
	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(55 * time.Millisecond)
	job.Stop()

	assert.GreaterOrEqual(t, trigger.count(), 3, "Trigger должен быть вызван несколько раз")

	trigger.mu.Lock()
	defer trigger.mu.Unlock()
	for _, reason := range trigger.reasons {
		assert.Equal(t, TriggerPeriodic, reason)
	}
}

func TestClientSyncJob_Stop_StopsGoroutine(t *testing.T) {
	trigger := &countingTrigger{}
	job := NewClientSyncJob(trigger)

	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	job.Stop()

	callsAfterStop := trigger.count()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, callsAfterStop, trigger.count(), "после Stop новых вызовов быть не должно")
}

func TestClientSyncJob_Stop_BeforeStart_NoPanic(t *testing.T) {
	job := NewClientSyncJob(&countingTrigger{})

	assert.NotPanics(t, func() { job.Stop() })
	assert.NotPanics(t, func() { job.Stop() })
}

func TestClientSyncJob_Start_DefaultInterval(t *testing.T) {
	trigger := &countingTrigger{}
	job := NewClientSyncJob(trigger)

	// interval <= 0 → дефолт 5 минут, за 20ms вызовов быть не должно
	job.Start(context.Background(), -time.Second)
	time.Sleep(20 * time.Millisecond)
	job.Stop()

	assert.Zero(t, trigger.count())
}

func TestClientSyncJob_Restart_StopsPrevious(t *testing.T) {
	trigger := &countingTrigger{}
	job := NewClientSyncJob(trigger).(*clientSyncJob)
	ctx := context.Background()

	job.Start(ctx, 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	// второй Start останавливает первую горутину
	job.Start(ctx, time.Hour)
	callsAfterRestart := trigger.count()
	time.Sleep(30 * time.Millisecond)
	job.Stop()

	assert.Equal(t, callsAfterRestart, trigger.count())
}

func TestClientSyncJob_ContextCancel_StopsJob(t *testing.T) {
	job := NewClientSyncJob(&countingTrigger{})
	ctx, cancel := context.WithCancel(context.Background())

	job.Start(ctx, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		job.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop завис после отмены контекста")
	}
}

// ── Run ──────────────────────────────────────────────────────────────────────

func TestClientSyncJob_Run_BlocksUntilCancel(t *testing.T) {
	trigger := &countingTrigger{}
	job := NewClientSyncJob(trigger)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- job.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool { return trigger.count() > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run не вернулся после отмены")
	}
}
