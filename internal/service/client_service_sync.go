package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mars-alien/NoteTakingApp/internal/adapter"
	"github.com/mars-alien/NoteTakingApp/internal/config"
	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/metrics"
	"github.com/mars-alien/NoteTakingApp/internal/store"
	"github.com/mars-alien/NoteTakingApp/internal/validators"
	"github.com/mars-alien/NoteTakingApp/models"
)

// maxKeptConflicts bounds the conflict history exposed through Status.
const maxKeptConflicts = 100

// syncState is the coordinator state. online is written only through
// SetOnline; inFlight only by the coordinator itself.
type syncState struct {
	online       bool
	inFlight     bool
	backoff      time.Duration
	phase        models.SyncPhase
	authRequired bool
	closed       bool

	lastSyncAt time.Time
	lastError  string
	conflicts  []models.SyncConflict
}

// SyncCoordinator drives sync cycles: it drains the mutation queue, pushes
// deletes and the collapsed upsert batch, reconciles the responses, pulls the
// change feed and advances the watermark. At most one cycle runs at a time.
type SyncCoordinator struct {
	notes   store.LocalNoteRepository
	queue   store.SyncQueueRepository
	meta    store.SyncMetaRepository
	adapter adapter.ServerAdapter

	reconciler *Reconciler
	metrics    *metrics.SyncMetrics
	logger     *logger.Logger

	floor   time.Duration
	ceiling time.Duration

	lifeCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu         sync.Mutex
	state      syncState
	retryTimer *time.Timer
}

func NewSyncCoordinator(
	storages *store.ClientStorages,
	serverAdapter adapter.ServerAdapter,
	cfg config.Sync,
	m *metrics.SyncMetrics,
	log *logger.Logger,
) *SyncCoordinator {
	floor := cfg.BackoffFloor
	if floor <= 0 {
		floor = time.Second
	}
	ceiling := cfg.BackoffCeiling
	if ceiling < floor {
		ceiling = floor
	}

	ctx, cancel := context.WithCancel(log.WithContext(context.Background()))

	return &SyncCoordinator{
		notes:      storages.Notes,
		queue:      storages.Queue,
		meta:       storages.Meta,
		adapter:    serverAdapter,
		reconciler: NewReconciler(storages),
		metrics:    m,
		logger:     log,
		floor:      floor,
		ceiling:    ceiling,
		lifeCtx:    ctx,
		cancel:     cancel,
		state:      syncState{backoff: floor, phase: models.PhaseIdle},
	}
}

// Status returns a snapshot of the coordinator state.
func (c *SyncCoordinator) Status() models.SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	conflicts := make([]models.SyncConflict, len(c.state.conflicts))
	copy(conflicts, c.state.conflicts)

	return models.SyncStatus{
		Online:         c.state.online,
		SyncInFlight:   c.state.inFlight,
		CurrentBackoff: c.state.backoff,
		Phase:          c.state.phase,
		AuthRequired:   c.state.authRequired,
		LastSyncAt:     c.state.lastSyncAt,
		LastError:      c.state.lastError,
		Conflicts:      conflicts,
	}
}

// ClearConflicts forgets the reported conflicts.
func (c *SyncCoordinator) ClearConflicts() {
	c.mu.Lock()
	c.state.conflicts = nil
	c.mu.Unlock()
}

// SetOnline records a connectivity transition. Going online resets the
// backoff, cancels a pending retry and triggers a cycle. Going offline only
// updates the state; an in-flight cycle is left to finish.
func (c *SyncCoordinator) SetOnline(online bool) {
	c.mu.Lock()
	wasOnline := c.state.online
	c.state.online = online
	if online && !wasOnline {
		c.state.backoff = c.floor
		c.stopRetryLocked()
		if c.state.phase == models.PhaseBackoffWait {
			c.state.phase = models.PhaseIdle
		}
	}
	backoff := c.state.backoff
	c.mu.Unlock()

	c.metrics.Online(online)
	c.metrics.Backoff(backoff)
	c.logger.Info().Bool("online", online).Msg("connectivity changed")

	if online && !wasOnline {
		c.Trigger(TriggerOnline)
	}
}

// CredentialRefreshed lifts an authorization halt after a successful login
// and triggers a cycle.
func (c *SyncCoordinator) CredentialRefreshed() {
	c.mu.Lock()
	c.state.authRequired = false
	c.state.backoff = c.floor
	c.mu.Unlock()

	c.Trigger(TriggerCredential)
}

// Trigger starts a cycle in the background. It is a no-op while offline,
// halted for re-authentication or with a cycle in flight. While waiting for
// a retry only the retry timer and the online transition may start a cycle.
func (c *SyncCoordinator) Trigger(reason TriggerReason) {
	if err := c.acquire(reason); err != nil {
		c.logger.Debug().Str("reason", string(reason)).Err(err).Msg("sync trigger ignored")
		return
	}

	go func() {
		defer c.wg.Done()
		_ = c.execute(c.lifeCtx, reason)
	}()
}

// SyncNow runs one cycle in the calling goroutine and returns its error.
func (c *SyncCoordinator) SyncNow(ctx context.Context) error {
	if err := c.acquire(TriggerManual); err != nil {
		return err
	}
	defer c.wg.Done()

	return c.execute(c.logger.WithContext(ctx), TriggerManual)
}

// Close cancels a pending retry, refuses new cycles and waits for the
// in-flight one to finish.
func (c *SyncCoordinator) Close() {
	c.mu.Lock()
	c.state.closed = true
	c.stopRetryLocked()
	c.mu.Unlock()

	c.wg.Wait()
	c.cancel()
}

// acquire sets inFlight before any suspension point of the cycle and
// registers the cycle with the lifecycle wait group.
func (c *SyncCoordinator) acquire(reason TriggerReason) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.state.closed:
		return ErrCoordinatorClosed
	case c.state.inFlight:
		return ErrSyncInFlight
	case !c.state.online:
		return ErrOffline
	case c.state.authRequired:
		return ErrAuthRequired
	case c.state.phase == models.PhaseBackoffWait &&
		reason != TriggerRetry && reason != TriggerOnline && reason != TriggerManual:
		return fmt.Errorf("waiting %s before retrying", c.state.backoff)
	}

	c.state.inFlight = true
	c.state.phase = models.PhaseSyncing
	c.stopRetryLocked()
	c.wg.Add(1)
	return nil
}

func (c *SyncCoordinator) execute(ctx context.Context, reason TriggerReason) (err error) {
	started := time.Now()
	log := logger.FromContext(ctx).With().Str("func", "SyncCoordinator.execute").Str("reason", string(reason)).Logger()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sync cycle panic: %v", p)
		}
		c.release(err, started)
	}()

	log.Debug().Msg("sync cycle started")
	if err = c.runCycle(log.WithContext(ctx)); err != nil {
		log.Warn().Err(err).Msg("sync cycle failed")
		return err
	}
	log.Debug().Dur("took", time.Since(started)).Msg("sync cycle finished")
	return nil
}

// release clears inFlight and moves to the next phase.
func (c *SyncCoordinator) release(err error, started time.Time) {
	result := metrics.ResultSuccess

	c.mu.Lock()
	c.state.inFlight = false
	switch {
	case err == nil:
		c.state.backoff = c.floor
		c.state.phase = models.PhaseIdle
		c.state.lastSyncAt = time.Now().UTC()
		c.state.lastError = ""

	case errors.Is(err, ErrAuthRequired):
		result = metrics.ResultAuth
		c.state.authRequired = true
		c.state.phase = models.PhaseIdle
		c.state.lastError = err.Error()

	default:
		result = metrics.ResultTransient
		c.state.backoff = min(c.state.backoff*2, c.ceiling)
		c.state.lastError = err.Error()
		if c.state.closed {
			c.state.phase = models.PhaseIdle
			break
		}
		c.state.phase = models.PhaseBackoffWait
		c.retryTimer = time.AfterFunc(c.state.backoff, c.onRetryTimer)
	}
	backoff := c.state.backoff
	c.mu.Unlock()

	c.metrics.CycleFinished(result, time.Since(started))
	c.metrics.Backoff(backoff)
}

func (c *SyncCoordinator) onRetryTimer() {
	c.mu.Lock()
	c.retryTimer = nil
	if !c.state.online || c.state.closed {
		// resumed by the next online transition
		if c.state.phase == models.PhaseBackoffWait {
			c.state.phase = models.PhaseIdle
		}
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.Trigger(TriggerRetry)
}

func (c *SyncCoordinator) stopRetryLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

func (c *SyncCoordinator) addConflicts(conflicts ...models.SyncConflict) {
	if len(conflicts) == 0 {
		return
	}
	for _, conflict := range conflicts {
		c.metrics.Conflict(conflict.Reason)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.conflicts = append(c.state.conflicts, conflicts...)
	if extra := len(c.state.conflicts) - maxKeptConflicts; extra > 0 {
		c.state.conflicts = c.state.conflicts[extra:]
	}
}

// runCycle performs steps (1) to (7) of a sync cycle.
func (c *SyncCoordinator) runCycle(ctx context.Context) error {
	log := logger.FromContext(ctx)

	// (1) snapshot and collapse the queue
	entries, err := c.queue.DrainOrdered(ctx)
	if err != nil {
		return fmt.Errorf("drain sync queue: %w", err)
	}
	c.metrics.QueueDepth(len(entries))

	notes, err := c.loadNotes(ctx, entries)
	if err != nil {
		return err
	}
	plan := BuildPushPlan(entries, notes)

	cycle := &cycleResult{}
	cycle.confirm(plan.Discard...)

	// (2) deletes first
	pushErr := c.pushDeletes(ctx, plan.Deletes, cycle)

	// (3)-(4) collapsed upsert batch and reconciliation of the response
	if pushErr == nil {
		pushErr = c.pushUpserts(ctx, plan.Upserts, cycle)
	}

	// (5) drop confirmed entries
	if len(cycle.confirmed) > 0 {
		if err = c.queue.RemoveEntries(ctx, cycle.confirmed...); err != nil {
			return fmt.Errorf("remove confirmed entries: %w", err)
		}
	}
	c.metrics.Pushed(cycle.pushed)
	c.addConflicts(cycle.conflicts...)

	if pushErr != nil {
		if !errors.Is(pushErr, ErrAuthRequired) {
			if unconfirmed := cycle.unconfirmed(plan); len(unconfirmed) > 0 {
				if err = c.queue.IncrementRetry(ctx, unconfirmed...); err != nil {
					log.Err(err).Msg("increment retry count failed")
				}
			}
		}
		return pushErr
	}

	// (6)-(7) pull and advance the watermark
	return c.pull(ctx)
}

// loadNotes loads the current local state of every note referenced by the
// snapshot. Deleted notes are absent from the result.
func (c *SyncCoordinator) loadNotes(ctx context.Context, entries []models.QueueEntry) (map[string]models.Note, error) {
	notes := make(map[string]models.Note)
	for _, e := range entries {
		if e.LocalID == "" {
			continue
		}
		if _, seen := notes[e.LocalID]; seen {
			continue
		}
		note, err := c.notes.GetNote(ctx, e.LocalID)
		if errors.Is(err, store.ErrNoteNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load note %s: %w", e.LocalID, err)
		}
		notes[e.LocalID] = note
	}
	return notes, nil
}

func (c *SyncCoordinator) pushDeletes(ctx context.Context, ops []DeleteOp, cycle *cycleResult) error {
	for _, op := range ops {
		err := c.adapter.DeleteNote(ctx, op.RemoteID)

		switch adapter.Classify(err) {
		case adapter.ClassNone, adapter.ClassNotFound:
			cycle.confirm(op.EntryIDs...)
			cycle.pushed++

		case adapter.ClassAuthFailure:
			return fmt.Errorf("%w: delete %s: %w", ErrAuthRequired, op.RemoteID, err)

		case adapter.ClassRejected:
			cycle.confirm(op.EntryIDs...)
			cycle.conflicts = append(cycle.conflicts, models.SyncConflict{
				LocalID:    op.LocalID,
				RemoteID:   op.RemoteID,
				Reason:     rejectionReason(err),
				Resolution: models.ResolutionDropped,
				At:         time.Now().UTC(),
			})

		default:
			return fmt.Errorf("delete %s: %w", op.RemoteID, err)
		}
	}
	return nil
}

// pushUpserts sends ops in batches the server accepts. Entries of a batch are
// confirmed as its response is reconciled, so a later failing batch does not
// resend earlier ones.
func (c *SyncCoordinator) pushUpserts(ctx context.Context, ops []UpsertOp, cycle *cycleResult) error {
	for start := 0; start < len(ops); start += validators.MaxNotesPerSync {
		end := min(start+validators.MaxNotesPerSync, len(ops))
		if err := c.pushBatch(ctx, ops[start:end], cycle); err != nil {
			return err
		}
	}
	return nil
}

func (c *SyncCoordinator) pushBatch(ctx context.Context, ops []UpsertOp, cycle *cycleResult) error {
	req := models.SyncRequest{Notes: make([]models.NotePayload, 0, len(ops))}
	for _, op := range ops {
		req.Notes = append(req.Notes, op.NotePayload())
	}

	resp, err := c.adapter.PushNotes(ctx, req)
	if err != nil {
		switch {
		// a 403 on the batch as a whole is an authorization failure
		case adapter.Classify(err) == adapter.ClassAuthFailure || errors.Is(err, adapter.ErrForbidden):
			return fmt.Errorf("%w: push: %w", ErrAuthRequired, err)

		case adapter.Classify(err) == adapter.ClassRejected:
			// resending the same batch gets the same answer
			logger.FromContext(ctx).Warn().Err(err).Int("notes", len(ops)).Msg("push batch rejected")
			now := time.Now().UTC()
			for _, op := range ops {
				cycle.confirm(op.EntryIDs...)
				cycle.conflicts = append(cycle.conflicts, models.SyncConflict{
					LocalID:    op.LocalID,
					RemoteID:   op.RemoteID,
					Reason:     rejectionReason(err),
					Resolution: models.ResolutionDropped,
					At:         now,
				})
			}
			return nil
		}
		return fmt.Errorf("push: %w", err)
	}

	matcher := newOpMatcher(ops)
	for _, record := range append(resp.Created, resp.Updated...) {
		idx, ok := matcher.match(record.ID, record.ClientToken, record.Title)
		if !ok {
			logger.FromContext(ctx).Warn().Str("remote_id", record.ID).Msg("acknowledged record matches no pushed note")
			continue
		}
		op := ops[idx]
		if err = c.applyAck(ctx, record, op); err != nil {
			return err
		}
		cycle.confirm(op.EntryIDs...)
		cycle.pushed++
	}

	for _, rejection := range resp.Conflicts {
		idx, ok := matcher.match(rejection.ID, rejection.ClientToken, "")
		if !ok {
			logger.FromContext(ctx).Warn().Str("remote_id", rejection.ID).Msg("rejection matches no pushed note")
			continue
		}
		op := ops[idx]
		conflict, err := c.reconciler.ApplyConflict(ctx, rejection, op)
		if err != nil {
			return fmt.Errorf("apply conflict for %s: %w", op.LocalID, err)
		}
		cycle.confirm(op.EntryIDs...)
		cycle.conflicts = append(cycle.conflicts, conflict)
	}

	if matcher.pending() > 0 {
		return fmt.Errorf("push: %d notes missing from the response", matcher.pending())
	}
	return nil
}

// applyAck folds an acknowledged record into the store. A create whose note
// was deleted locally meanwhile gets a delete for the new remote id.
func (c *SyncCoordinator) applyAck(ctx context.Context, record models.RemoteNote, op UpsertOp) error {
	outcome, err := c.reconciler.ApplyRemote(ctx, record, ReconcileOptions{
		Source:  SourcePushAck,
		LocalID: op.LocalID,
		Sent:    op.Payload,
	})
	if err != nil {
		return fmt.Errorf("reconcile ack for %s: %w", op.LocalID, err)
	}

	if outcome == OutcomeOrphaned && op.RemoteID == "" {
		_, err = c.queue.Enqueue(ctx, op.LocalID, models.ActionDelete, models.MutationPayload{
			RemoteID:     record.ID,
			ClientToken:  record.ClientToken,
			LastModified: time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("enqueue delete for orphaned %s: %w", record.ID, err)
		}
	}
	return nil
}

// pull reconciles the change feed since the watermark and advances the
// watermark to the newest server timestamp seen.
func (c *SyncCoordinator) pull(ctx context.Context) error {
	watermark, err := c.meta.GetWatermark(ctx)
	if err != nil {
		return fmt.Errorf("get watermark: %w", err)
	}

	changes, err := c.adapter.PullChanges(ctx, watermark)
	if err != nil {
		if adapter.Classify(err) == adapter.ClassAuthFailure || errors.Is(err, adapter.ErrForbidden) {
			return fmt.Errorf("%w: pull: %w", ErrAuthRequired, err)
		}
		return fmt.Errorf("pull: %w", err)
	}

	next := watermark
	for _, record := range changes {
		if _, err = c.reconciler.ApplyRemote(ctx, record, ReconcileOptions{Source: SourcePull}); err != nil {
			return fmt.Errorf("reconcile pulled %s: %w", record.ID, err)
		}
		if record.UpdatedAt.After(next) {
			next = record.UpdatedAt
		}
	}
	c.metrics.Pulled(len(changes))

	if next.After(watermark) {
		if err = c.meta.SetWatermark(ctx, next); err != nil {
			return fmt.Errorf("set watermark: %w", err)
		}
	}
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, adapter.ErrForbidden):
		return models.ReasonForbidden
	case errors.Is(err, adapter.ErrBadRequest):
		return models.ReasonInvalid
	}
	return err.Error()
}

// cycleResult accumulates what a cycle settled.
type cycleResult struct {
	confirmed []int64
	conflicts []models.SyncConflict
	pushed    int
}

func (r *cycleResult) confirm(ids ...int64) {
	r.confirmed = append(r.confirmed, ids...)
}

func (r *cycleResult) unconfirmed(plan PushPlan) []int64 {
	done := make(map[int64]struct{}, len(r.confirmed))
	for _, id := range r.confirmed {
		done[id] = struct{}{}
	}

	var ids []int64
	collect := func(entryIDs []int64) {
		for _, id := range entryIDs {
			if _, ok := done[id]; !ok {
				ids = append(ids, id)
			}
		}
	}
	for _, op := range plan.Deletes {
		collect(op.EntryIDs)
	}
	for _, op := range plan.Upserts {
		collect(op.EntryIDs)
	}
	return ids
}

// opMatcher pairs response items with the pushed ops: by remote id, then by
// client token, then by title among creates.
type opMatcher struct {
	byRemote map[string]int
	byToken  map[string]int
	ops      []UpsertOp
	used     map[int]bool
}

func newOpMatcher(ops []UpsertOp) *opMatcher {
	m := &opMatcher{
		byRemote: make(map[string]int),
		byToken:  make(map[string]int),
		ops:      ops,
		used:     make(map[int]bool),
	}
	for i, op := range ops {
		if op.RemoteID != "" {
			m.byRemote[op.RemoteID] = i
		}
		if op.Payload.ClientToken != "" {
			m.byToken[op.Payload.ClientToken] = i
		}
	}
	return m
}

func (m *opMatcher) match(remoteID, token, title string) (int, bool) {
	if i, ok := m.byRemote[remoteID]; ok && remoteID != "" && !m.used[i] {
		m.used[i] = true
		return i, true
	}
	if i, ok := m.byToken[token]; ok && token != "" && !m.used[i] {
		m.used[i] = true
		return i, true
	}
	if title == "" {
		return 0, false
	}
	for i, op := range m.ops {
		if !m.used[i] && op.RemoteID == "" && op.Payload.ClientToken == "" && op.Payload.Title == title {
			m.used[i] = true
			return i, true
		}
	}
	return 0, false
}

func (m *opMatcher) pending() int {
	return len(m.ops) - len(m.used)
}
