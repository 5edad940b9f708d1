// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/store"
	"github.com/mars-alien/NoteTakingApp/models"
)

// Winner is the outcome of a last-write-wins comparison.
type Winner int

const (
	WinnerClient Winner = iota
	WinnerServer
)

func (w Winner) String() string {
	if w == WinnerClient {
		return "client"
	}
	return "server"
}

// ResolveConflict applies last-write-wins: the client version is kept iff
// clientT is not strictly earlier than serverT. Ties go to the client.
func ResolveConflict(clientT, serverT time.Time) Winner {
	if clientT.Before(serverT) {
		return WinnerServer
	}
	return WinnerClient
}

// ReconcileSource tells the reconciler where a remote record came from.
type ReconcileSource int

const (
	// SourcePull is a record of the change feed.
	SourcePull ReconcileSource = iota
	// SourcePushAck is the server copy of a mutation this device just sent.
	SourcePushAck
)

// ReconcileOptions qualifies a call to [Reconciler.ApplyRemote].
type ReconcileOptions struct {
	Source ReconcileSource

	// LocalID is the note the acknowledged mutation was sent for. Push
	// acknowledgements only.
	LocalID string

	// Sent is the payload that was transmitted. A local note modified after
	// Sent.LastModified keeps its content and only adopts the identity.
	Sent models.MutationPayload
}

// Outcome describes what ApplyRemote did to the local store.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeInserted
	OutcomeUpdated
	OutcomeIdentityAdopted
	OutcomeDeleted
	// OutcomeOrphaned means the acknowledged note was deleted locally while
	// its mutation was in flight.
	OutcomeOrphaned
)

// Reconciler folds authoritative remote records into the local store.
// Applying the same record twice leaves the store as applying it once.
// Every match-decide-write runs under the store edit lock, so a local edit
// lands either before the decision or after the write.
type Reconciler struct {
	notes store.LocalNoteRepository
	queue store.SyncQueueRepository
	edits sync.Locker
	now   func() time.Time
}

func NewReconciler(storages *store.ClientStorages) *Reconciler {
	return &Reconciler{
		notes: storages.Notes,
		queue: storages.Queue,
		edits: storages.EditLock(),
		now:   time.Now,
	}
}

// ApplyRemote matches remote against the local store and writes the result.
//
// Identity matching runs in order: by remote id, by the echoed client token
// (or for a push acknowledgement by the note it was sent for), then by exact
// title among unsynced notes without a remote id. An unmatched live record is
// inserted as a new note; an unmatched tombstone is ignored.
func (r *Reconciler) ApplyRemote(ctx context.Context, remote models.RemoteNote, opts ReconcileOptions) (Outcome, error) {
	r.edits.Lock()
	defer r.edits.Unlock()

	return r.applyRemote(ctx, remote, opts)
}

func (r *Reconciler) applyRemote(ctx context.Context, remote models.RemoteNote, opts ReconcileOptions) (Outcome, error) {
	log := logger.FromContext(ctx).With().Str("func", "Reconciler.ApplyRemote").Str("remote_id", remote.ID).Logger()

	local, found, err := r.match(ctx, remote, opts)
	if err != nil {
		return OutcomeUnchanged, err
	}

	if !found {
		if opts.Source == SourcePushAck && opts.LocalID != "" {
			return OutcomeOrphaned, nil
		}
		if remote.Deleted {
			return OutcomeUnchanged, nil
		}
		_, err = r.notes.UpsertNote(ctx, models.Note{
			RemoteID:     remote.ID,
			ClientToken:  remote.ClientToken,
			Title:        remote.Title,
			Content:      remote.Content,
			LastModified: remote.LastModified,
			Synced:       true,
			OwnerID:      remote.OwnerID,
		})
		if err != nil {
			return OutcomeUnchanged, fmt.Errorf("insert remote note %s: %w", remote.ID, err)
		}
		log.Debug().Msg("inserted note created elsewhere")
		return OutcomeInserted, nil
	}

	if remote.Deleted {
		if err = r.notes.DeleteNote(ctx, local.LocalID); err != nil {
			return OutcomeUnchanged, fmt.Errorf("delete local note %s: %w", local.LocalID, err)
		}
		if err = r.queue.RemoveByLocalID(ctx, local.LocalID); err != nil {
			return OutcomeDeleted, fmt.Errorf("drop queue entries of %s: %w", local.LocalID, err)
		}
		log.Debug().Str("local_id", local.LocalID).Msg("applied server tombstone")
		return OutcomeDeleted, nil
	}

	if r.keepLocalContent(local, remote, opts) {
		if local.RemoteID == remote.ID && (local.ClientToken != "" || remote.ClientToken == "") {
			return OutcomeUnchanged, nil
		}
		local.RemoteID = remote.ID
		if local.ClientToken == "" {
			local.ClientToken = remote.ClientToken
		}
		if _, err = r.notes.UpsertNote(ctx, local); err != nil {
			return OutcomeUnchanged, fmt.Errorf("adopt identity %s: %w", remote.ID, err)
		}
		log.Debug().Str("local_id", local.LocalID).Msg("adopted remote identity, local edits kept")
		return OutcomeIdentityAdopted, nil
	}

	next := local
	next.RemoteID = remote.ID
	next.Title = remote.Title
	next.Content = remote.Content
	next.LastModified = remote.LastModified
	next.Synced = true
	if remote.ClientToken != "" {
		next.ClientToken = remote.ClientToken
	}
	if remote.OwnerID != "" {
		next.OwnerID = remote.OwnerID
	}
	if sameNote(local, next) {
		return OutcomeUnchanged, nil
	}

	if _, err = r.notes.UpsertNote(ctx, next); err != nil {
		return OutcomeUnchanged, fmt.Errorf("update local note %s: %w", local.LocalID, err)
	}
	return OutcomeUpdated, nil
}

// keepLocalContent reports whether the local note carries edits that must not
// be overwritten by remote.
func (r *Reconciler) keepLocalContent(local models.Note, remote models.RemoteNote, opts ReconcileOptions) bool {
	if local.Synced {
		return false
	}
	switch opts.Source {
	case SourcePushAck:
		return local.LastModified.After(opts.Sent.LastModified)
	default:
		// a pending local edit survives unless the server copy is strictly newer
		return !remote.LastModified.After(local.LastModified)
	}
}

func (r *Reconciler) match(ctx context.Context, remote models.RemoteNote, opts ReconcileOptions) (models.Note, bool, error) {
	note, err := r.notes.FindByRemoteID(ctx, remote.ID)
	if err == nil {
		return note, true, nil
	}
	if !errors.Is(err, store.ErrNoteNotFound) {
		return models.Note{}, false, fmt.Errorf("find by remote id %s: %w", remote.ID, err)
	}

	if opts.Source == SourcePushAck && opts.LocalID != "" {
		note, err = r.notes.GetNote(ctx, opts.LocalID)
		return lookupResult(note, err, "get acknowledged note")
	}

	if remote.ClientToken != "" {
		note, err = r.notes.FindByClientToken(ctx, remote.ClientToken)
		if err == nil {
			return note, true, nil
		}
		if !errors.Is(err, store.ErrNoteNotFound) {
			return models.Note{}, false, fmt.Errorf("find by client token: %w", err)
		}
		return models.Note{}, false, nil
	}

	// records without a client token come from peers that predate it
	note, err = r.notes.FindUnsyncedByTitle(ctx, remote.Title)
	return lookupResult(note, err, "find unsynced by title")
}

func lookupResult(note models.Note, err error, op string) (models.Note, bool, error) {
	switch {
	case err == nil:
		return note, true, nil
	case errors.Is(err, store.ErrNoteNotFound):
		return models.Note{}, false, nil
	}
	return models.Note{}, false, fmt.Errorf("%s: %w", op, err)
}

// ApplyConflict resolves a rejection of a pushed mutation and returns the
// user-visible record of it.
//
// A stale rejection carrying the server version writes that version locally
// as synced, unless the note was edited again after op was sent, in which
// case only the identity is adopted and the newer edit stays queued. The
// discarded content is kept as a patch from the server text. A deleted
// rejection applies the tombstone. Other reasons leave the note in place;
// not_found additionally detaches it from the unknown remote id.
func (r *Reconciler) ApplyConflict(ctx context.Context, rejection models.SyncRejection, op UpsertOp) (models.SyncConflict, error) {
	r.edits.Lock()
	defer r.edits.Unlock()

	conflict := models.SyncConflict{
		LocalID:    op.LocalID,
		RemoteID:   rejection.ID,
		Reason:     rejection.Reason,
		Resolution: models.ResolutionDropped,
		At:         r.now().UTC(),
	}
	if conflict.RemoteID == "" {
		conflict.RemoteID = op.RemoteID
	}

	switch {
	case rejection.Reason == models.ReasonStale && rejection.ServerNote != nil:
		server := *rejection.ServerNote
		conflict.Resolution = models.ResolutionServerWins
		conflict.RemoteID = server.ID
		conflict.DiscardedPatch = discardedPatch(server.Content, op.Payload.Content)

		if ResolveConflict(op.Payload.LastModified, server.LastModified) == WinnerClient {
			// the server disagrees with our clock; its copy is still authoritative
			logger.FromContext(ctx).Warn().
				Str("func", "Reconciler.ApplyConflict").
				Str("remote_id", server.ID).
				Msg("stale rejection for a mutation that is not older than the server copy")
		}

		_, err := r.applyRemote(ctx, server, ReconcileOptions{Source: SourcePushAck, LocalID: op.LocalID, Sent: op.Payload})
		if err != nil {
			return conflict, err
		}
		return conflict, nil

	case rejection.Reason == models.ReasonDeleted:
		conflict.Resolution = models.ResolutionServerWins
		if op.LocalID == "" {
			return conflict, nil
		}
		if err := r.dropLocal(ctx, op.LocalID); err != nil {
			return conflict, err
		}
		return conflict, nil

	case rejection.Reason == models.ReasonNotFound && op.LocalID != "":
		note, err := r.notes.GetNote(ctx, op.LocalID)
		if errors.Is(err, store.ErrNoteNotFound) {
			return conflict, nil
		}
		if err != nil {
			return conflict, fmt.Errorf("get note %s: %w", op.LocalID, err)
		}
		note.RemoteID = ""
		note.Synced = false
		if _, err = r.notes.UpsertNote(ctx, note); err != nil {
			return conflict, fmt.Errorf("detach note %s: %w", op.LocalID, err)
		}
	}

	return conflict, nil
}

func (r *Reconciler) dropLocal(ctx context.Context, localID string) error {
	if err := r.notes.DeleteNote(ctx, localID); err != nil && !errors.Is(err, store.ErrNoteNotFound) {
		return fmt.Errorf("delete local note %s: %w", localID, err)
	}
	return nil
}

// discardedPatch returns a textual patch turning the server content into the
// discarded local content.
func discardedPatch(serverText, localText string) string {
	if serverText == localText {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(serverText, localText, true)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.PatchToText(dmp.PatchMake(serverText, diffs))
}

func sameNote(a, b models.Note) bool {
	return a.LocalID == b.LocalID &&
		a.RemoteID == b.RemoteID &&
		a.ClientToken == b.ClientToken &&
		a.Title == b.Title &&
		a.Content == b.Content &&
		a.LastModified.Equal(b.LastModified) &&
		a.Synced == b.Synced &&
		a.OwnerID == b.OwnerID
}
