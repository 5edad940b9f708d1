package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mars-alien/NoteTakingApp/internal/mock"
	"github.com/mars-alien/NoteTakingApp/internal/store"
	"github.com/mars-alien/NoteTakingApp/internal/utils"
	"github.com/mars-alien/NoteTakingApp/models"
)

func newTestNoteService(t *testing.T, trigger SyncTrigger) (*clientNoteService, *store.ClientStorages) {
	t.Helper()
	s := newTestStorages(t)
	svc := NewClientNoteService(s, utils.NewUUIDGenerator(), trigger, 0).(*clientNoteService)
	return svc, s
}

// ── Create ───────────────────────────────────────────────────────────────────

func TestClientNoteService_Create(t *testing.T) {
	trigger := &countingTrigger{}
	svc, s := newTestNoteService(t, trigger)
	ctx := context.Background()

	require.NoError(t, s.Users.SaveCredential(ctx, models.Credential{UserID: "u1", Token: "t"}))

	note, err := svc.Create(ctx, "title", "content")
	require.NoError(t, err)

	assert.NotEmpty(t, note.LocalID)
	assert.NotEmpty(t, note.ClientToken)
	assert.Empty(t, note.RemoteID)
	assert.False(t, note.Synced)
	assert.Equal(t, "u1", note.OwnerID)
	assert.Equal(t, note.LastModified, note.LastModified.Truncate(time.Microsecond))

	entries, err := s.Queue.DrainOrdered(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionCreate, entries[0].Action)
	assert.Equal(t, note.LocalID, entries[0].LocalID)
	assert.Equal(t, "content", entries[0].Payload.Content)
	assert.Equal(t, note.ClientToken, entries[0].Payload.ClientToken)

	assert.Equal(t, 1, trigger.count(), "сохранение запрашивает синхронизацию")
}

func TestClientNoteService_Create_EnqueueFailureRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	notes := mock.NewMockLocalNoteRepository(ctrl)
	queue := mock.NewMockSyncQueueRepository(ctrl)
	users := mock.NewMockLocalUserRepository(ctrl)
	ctx := context.Background()

	svc := NewClientNoteService(&store.ClientStorages{Notes: notes, Queue: queue, Users: users}, utils.NewUUIDGenerator(), nil, 0)

	users.EXPECT().GetCredential(gomock.Any()).Return(models.Credential{}, store.ErrLocalSessionNotFound)
	notes.EXPECT().UpsertNote(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n models.Note) (string, error) { return n.LocalID, nil })
	queue.EXPECT().Enqueue(gomock.Any(), gomock.Any(), models.ActionCreate, gomock.Any()).Return(int64(0), errors.New("disk full"))
	notes.EXPECT().DeleteNote(gomock.Any(), gomock.Any()).Return(nil)

	_, err := svc.Create(ctx, "t", "c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

// ── Update ───────────────────────────────────────────────────────────────────

func TestClientNoteService_Update(t *testing.T) {
	svc, s := newTestNoteService(t, nil)
	ctx := context.Background()

	localID, err := s.Notes.UpsertNote(ctx, models.Note{RemoteID: "r1", ClientToken: "tok", Title: "old", LastModified: ts(0), Synced: true})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, localID, "new", "body")
	require.NoError(t, err)
	assert.False(t, updated.Synced)
	assert.True(t, updated.LastModified.After(ts(0)))

	entries, err := s.Queue.DrainOrdered(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionUpdate, entries[0].Action)
	assert.Equal(t, "r1", entries[0].Payload.RemoteID)
	assert.Equal(t, "new", entries[0].Payload.Title)
}

func TestClientNoteService_Update_UnknownNote(t *testing.T) {
	svc, _ := newTestNoteService(t, nil)

	_, err := svc.Update(context.Background(), "missing", "t", "c")
	assert.ErrorIs(t, err, store.ErrNoteNotFound)
}

func TestClientNoteService_Update_EnqueueFailureRestoresNote(t *testing.T) {
	ctrl := gomock.NewController(t)
	notes := mock.NewMockLocalNoteRepository(ctrl)
	queue := mock.NewMockSyncQueueRepository(ctrl)
	ctx := context.Background()

	svc := NewClientNoteService(&store.ClientStorages{Notes: notes, Queue: queue}, utils.NewUUIDGenerator(), nil, 0)

	prev := models.Note{LocalID: "l1", RemoteID: "r1", Title: "t", Content: "v1", LastModified: ts(0), Synced: true}
	notes.EXPECT().GetNote(gomock.Any(), "l1").Return(prev, nil)

	gomock.InOrder(
		notes.EXPECT().UpsertNote(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, n models.Note) (string, error) {
				assert.Equal(t, "v2", n.Content)
				assert.False(t, n.Synced)
				return n.LocalID, nil
			}),
		queue.EXPECT().Enqueue(gomock.Any(), "l1", models.ActionUpdate, gomock.Any()).Return(int64(0), errors.New("disk full")),
		// прежняя версия возвращается в хранилище
		notes.EXPECT().UpsertNote(gomock.Any(), prev).Return("l1", nil),
	)

	_, err := svc.Update(ctx, "l1", "t", "v2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestClientNoteService_Update_EnqueueFailureOnDisk(t *testing.T) {
	s := newTestStorages(t)
	ctx := context.Background()

	localID, err := s.Notes.UpsertNote(ctx, models.Note{RemoteID: "r1", Title: "t", Content: "v1", LastModified: ts(0), Synced: true})
	require.NoError(t, err)

	failing := &store.ClientStorages{Notes: s.Notes, Queue: failingQueue{s.Queue}, Users: s.Users}
	svc := NewClientNoteService(failing, utils.NewUUIDGenerator(), nil, 0)

	_, err = svc.Update(ctx, localID, "t", "v2")
	require.Error(t, err)

	note, err := s.Notes.GetNote(ctx, localID)
	require.NoError(t, err)
	assert.Equal(t, "v1", note.Content, "несохранённая правка не остаётся в хранилище")
	assert.True(t, note.Synced)

	n, err := s.Queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// ── Delete ───────────────────────────────────────────────────────────────────

func TestClientNoteService_Delete_StoreFailureQueuesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	notes := mock.NewMockLocalNoteRepository(ctrl)
	queue := mock.NewMockSyncQueueRepository(ctrl)
	ctx := context.Background()

	svc := NewClientNoteService(&store.ClientStorages{Notes: notes, Queue: queue}, utils.NewUUIDGenerator(), nil, 0)

	notes.EXPECT().GetNote(gomock.Any(), "l1").Return(models.Note{LocalID: "l1", RemoteID: "r1", Synced: true}, nil)
	notes.EXPECT().DeleteNote(gomock.Any(), "l1").Return(errors.New("disk full"))
	// очередь не трогается: Enqueue не ожидается

	err := svc.Delete(ctx, "l1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestClientNoteService_Delete_EnqueueFailureRestoresNote(t *testing.T) {
	s := newTestStorages(t)
	ctx := context.Background()

	localID, err := s.Notes.UpsertNote(ctx, models.Note{RemoteID: "r1", Title: "t", Content: "v1", LastModified: ts(0), Synced: true})
	require.NoError(t, err)

	failing := &store.ClientStorages{Notes: s.Notes, Queue: failingQueue{s.Queue}, Users: s.Users}
	svc := NewClientNoteService(failing, utils.NewUUIDGenerator(), nil, 0)

	require.Error(t, svc.Delete(ctx, localID))

	note, err := s.Notes.GetNote(ctx, localID)
	require.NoError(t, err, "заметка остаётся, пока удаление не поставлено в очередь")
	assert.Equal(t, "r1", note.RemoteID)
	assert.True(t, note.Synced)
}

func TestClientNoteService_Delete_SyncedNoteEnqueuesDelete(t *testing.T) {
	trigger := &countingTrigger{}
	svc, s := newTestNoteService(t, trigger)
	ctx := context.Background()

	localID, err := s.Notes.UpsertNote(ctx, models.Note{RemoteID: "r1", Title: "t", LastModified: ts(0), Synced: true})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, localID))

	_, err = svc.Get(ctx, localID)
	assert.ErrorIs(t, err, store.ErrNoteNotFound)

	entries, err := s.Queue.DrainOrdered(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionDelete, entries[0].Action)
	assert.Equal(t, "r1", entries[0].Payload.RemoteID)
	assert.Equal(t, 1, trigger.count())
}

func TestClientNoteService_Delete_NeverSyncedLeavesNoTrace(t *testing.T) {
	trigger := &countingTrigger{}
	svc, s := newTestNoteService(t, trigger)
	ctx := context.Background()

	note, err := svc.Create(ctx, "draft", "x")
	require.NoError(t, err)
	_, err = svc.Update(ctx, note.LocalID, "draft", "y")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, note.LocalID))

	n, err := s.Queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "на сервер отправлять нечего")
	assert.Equal(t, 2, trigger.count(), "удаление черновика синхронизацию не запрашивает")
}

// ── List ─────────────────────────────────────────────────────────────────────

func TestClientNoteService_List_MostRecentFirst(t *testing.T) {
	svc, s := newTestNoteService(t, nil)
	ctx := context.Background()

	_, err := s.Notes.UpsertNote(ctx, models.Note{Title: "older", LastModified: ts(1)})
	require.NoError(t, err)
	_, err = s.Notes.UpsertNote(ctx, models.Note{Title: "newer", LastModified: ts(2)})
	require.NoError(t, err)

	notes, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "newer", notes[0].Title)
}

// ── Debounce ─────────────────────────────────────────────────────────────────

func TestClientNoteService_SavesAreDebounced(t *testing.T) {
	trigger := &countingTrigger{}
	s := newTestStorages(t)
	svc := NewClientNoteService(s, utils.NewUUIDGenerator(), trigger, 50*time.Millisecond)
	ctx := context.Background()

	note, err := svc.Create(ctx, "t", "1")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = svc.Update(ctx, note.LocalID, "t", "more")
		require.NoError(t, err)
	}

	assert.Zero(t, trigger.count(), "до истечения паузы запуска нет")
	require.Eventually(t, func() bool { return trigger.count() == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, trigger.count(), "серия сохранений даёт один запуск")
}

func TestClientNoteService_CloseCancelsPendingTrigger(t *testing.T) {
	trigger := &countingTrigger{}
	s := newTestStorages(t)
	svc := NewClientNoteService(s, utils.NewUUIDGenerator(), trigger, 30*time.Millisecond)

	_, err := svc.Create(context.Background(), "t", "1")
	require.NoError(t, err)
	svc.Close()

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, trigger.count())
}

// failingQueue — очередь, в которую нельзя ничего добавить.
type failingQueue struct {
	store.SyncQueueRepository
}

func (failingQueue) Enqueue(context.Context, string, models.Action, models.MutationPayload) (int64, error) {
	return 0, errors.New("disk full")
}
