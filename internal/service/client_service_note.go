package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/store"
	"github.com/mars-alien/NoteTakingApp/internal/utils"
	"github.com/mars-alien/NoteTakingApp/models"
)

type clientNoteService struct {
	notes store.LocalNoteRepository
	queue store.SyncQueueRepository
	users store.LocalUserRepository

	// edits is shared with the reconciler of the same store.
	edits sync.Locker

	ids      utils.IDGenerator
	now      func() time.Time
	debounce *debouncer
}

// NewClientNoteService constructs the local edit path. Saves ask trigger for
// a sync after saveDebounce has passed without further saves; trigger may be
// nil when nothing should be started.
func NewClientNoteService(storages *store.ClientStorages, ids utils.IDGenerator, trigger SyncTrigger, saveDebounce time.Duration) ClientNoteService {
	if trigger == nil {
		trigger = nopTrigger{}
	}

	return &clientNoteService{
		notes:    storages.Notes,
		queue:    storages.Queue,
		users:    storages.Users,
		edits:    storages.EditLock(),
		ids:      ids,
		now:      time.Now,
		debounce: newDebouncer(saveDebounce, func() { trigger.Trigger(TriggerSave) }),
	}
}

// timestamp is the last-write-wins clock of local edits. Microsecond
// precision survives the round trip through the remote store.
func (s *clientNoteService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *clientNoteService) Create(ctx context.Context, title, content string) (models.Note, error) {
	log := logger.FromContext(ctx)

	note := models.Note{
		LocalID:      s.ids.Generate(),
		ClientToken:  s.ids.Generate(),
		Title:        title,
		Content:      content,
		LastModified: s.timestamp(),
		OwnerID:      s.ownerID(ctx),
	}

	s.edits.Lock()
	defer s.edits.Unlock()

	if _, err := s.notes.UpsertNote(ctx, note); err != nil {
		log.Err(err).Str("func", "clientNoteService.Create").Msg("saving new note failed")
		return models.Note{}, fmt.Errorf("save note: %w", err)
	}

	_, err := s.queue.Enqueue(ctx, note.LocalID, models.ActionCreate, mutationOf(note))
	if err != nil {
		log.Err(err).Str("func", "clientNoteService.Create").Msg("queueing new note failed")
		if delErr := s.notes.DeleteNote(ctx, note.LocalID); delErr != nil {
			err = errors.Join(err, delErr)
		}
		return models.Note{}, fmt.Errorf("enqueue create: %w", err)
	}

	s.debounce.Call()
	return note, nil
}

func (s *clientNoteService) Update(ctx context.Context, localID, title, content string) (models.Note, error) {
	log := logger.FromContext(ctx)

	s.edits.Lock()
	defer s.edits.Unlock()

	prev, err := s.notes.GetNote(ctx, localID)
	if err != nil {
		return models.Note{}, fmt.Errorf("get note %s: %w", localID, err)
	}

	note := prev
	note.Title = title
	note.Content = content
	note.LastModified = s.timestamp()
	note.Synced = false

	if _, err = s.notes.UpsertNote(ctx, note); err != nil {
		log.Err(err).Str("func", "clientNoteService.Update").Str("local_id", localID).Msg("saving note failed")
		return models.Note{}, fmt.Errorf("save note: %w", err)
	}

	if _, err = s.queue.Enqueue(ctx, note.LocalID, models.ActionUpdate, mutationOf(note)); err != nil {
		log.Err(err).Str("func", "clientNoteService.Update").Str("local_id", localID).Msg("queueing update failed")
		if _, restoreErr := s.notes.UpsertNote(ctx, prev); restoreErr != nil {
			err = errors.Join(err, restoreErr)
		}
		return models.Note{}, fmt.Errorf("enqueue update: %w", err)
	}

	s.debounce.Call()
	return note, nil
}

func (s *clientNoteService) Delete(ctx context.Context, localID string) error {
	log := logger.FromContext(ctx).With().Str("func", "clientNoteService.Delete").Str("local_id", localID).Logger()

	s.edits.Lock()
	defer s.edits.Unlock()

	note, err := s.notes.GetNote(ctx, localID)
	if err != nil {
		return fmt.Errorf("get note %s: %w", localID, err)
	}

	if err = s.notes.DeleteNote(ctx, localID); err != nil {
		log.Err(err).Msg("deleting note failed")
		return fmt.Errorf("delete note: %w", err)
	}

	if !note.HasRemote() {
		// never synced: the server has nothing to delete. Leftover entries
		// point at a missing note and are discarded by the next cycle.
		if err = s.queue.RemoveByLocalID(ctx, localID); err != nil {
			log.Warn().Err(err).Msg("dropping pending mutations failed")
		}
		return nil
	}

	payload := mutationOf(note)
	payload.LastModified = s.timestamp()
	if _, err = s.queue.Enqueue(ctx, localID, models.ActionDelete, payload); err != nil {
		log.Err(err).Msg("queueing delete failed")
		if _, restoreErr := s.notes.UpsertNote(ctx, note); restoreErr != nil {
			err = errors.Join(err, restoreErr)
		}
		return fmt.Errorf("enqueue delete: %w", err)
	}

	s.debounce.Call()
	return nil
}

func (s *clientNoteService) Get(ctx context.Context, localID string) (models.Note, error) {
	return s.notes.GetNote(ctx, localID)
}

func (s *clientNoteService) List(ctx context.Context) ([]models.Note, error) {
	return s.notes.ListNotes(ctx)
}

// Close cancels a pending debounced sync trigger.
func (s *clientNoteService) Close() {
	s.debounce.Stop()
}

// ownerID is the user id of the cached credential, or "" when logged out.
func (s *clientNoteService) ownerID(ctx context.Context) string {
	if s.users == nil {
		return ""
	}
	cred, err := s.users.GetCredential(ctx)
	if err != nil {
		return ""
	}
	return cred.UserID
}

func mutationOf(note models.Note) models.MutationPayload {
	return models.MutationPayload{
		Title:        note.Title,
		Content:      note.Content,
		LastModified: note.LastModified,
		RemoteID:     note.RemoteID,
		ClientToken:  note.ClientToken,
	}
}

type nopTrigger struct{}

func (nopTrigger) Trigger(TriggerReason) {}
