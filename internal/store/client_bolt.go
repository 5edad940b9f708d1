package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/utils"
	"github.com/mars-alien/NoteTakingApp/models"
)

const (
	boltDirPerm     = fs.FileMode(0o700)
	boltFilePerm    = fs.FileMode(0o600)
	boltOpenTimeout = 5 * time.Second
)

var (
	notesBucket         = []byte("notes")
	notesByRemoteBucket = []byte("notes_by_remote")
	syncQueueBucket     = []byte("sync_queue")
	userBucket          = []byte("user")
	metaBucket          = []byte("meta")

	credentialKey = []byte("credential")
	watermarkKey  = []byte(metaKeyWatermark)
)

// BoltStore is the bbolt engine of the local durable store. Every repository
// call runs in a single bolt transaction.
type BoltStore struct {
	db     *bolt.DB
	ids    utils.IDGenerator
	now    func() time.Time
	logger *logger.Logger
}

// OpenBolt opens (creating when needed) the bolt database at path.
func OpenBolt(path string, ids utils.IDGenerator, log *logger.Logger) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), boltDirPerm); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := bolt.Open(path, boltFilePerm, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		log.Err(err).Str("func", "OpenBolt").Msg("error opening bolt database")
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{notesBucket, notesByRemoteBucket, syncQueueBucket, userBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing store db: %w", err)
	}
	log.Debug().Str("func", "OpenBolt").Str("path", path).Msg("bolt store opened")

	return &BoltStore{db: db, ids: ids, now: time.Now, logger: log}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Notes, Queue, Meta and Users expose the engine through the repository
// interfaces.
func (s *BoltStore) Notes() LocalNoteRepository { return (*boltNotes)(s) }
func (s *BoltStore) Queue() SyncQueueRepository  { return (*boltQueue)(s) }
func (s *BoltStore) Meta() SyncMetaRepository    { return (*boltMeta)(s) }
func (s *BoltStore) Users() LocalUserRepository  { return (*boltUsers)(s) }

// ── notes ──

type boltNotes BoltStore

func (n *boltNotes) GetNote(_ context.Context, localID string) (models.Note, error) {
	var note models.Note
	err := n.db.View(func(tx *bolt.Tx) error {
		return getBoltNote(tx, localID, &note)
	})
	return note, err
}

func (n *boltNotes) FindByRemoteID(_ context.Context, remoteID string) (models.Note, error) {
	var note models.Note
	if remoteID == "" {
		return note, ErrNoteNotFound
	}

	err := n.db.View(func(tx *bolt.Tx) error {
		localID := tx.Bucket(notesByRemoteBucket).Get([]byte(remoteID))
		if localID == nil {
			return ErrNoteNotFound
		}
		return getBoltNote(tx, string(localID), &note)
	})
	return note, err
}

func (n *boltNotes) FindByClientToken(_ context.Context, token string) (models.Note, error) {
	if token == "" {
		return models.Note{}, ErrNoteNotFound
	}
	return n.findFirst(func(note models.Note) bool {
		return note.ClientToken == token
	})
}

func (n *boltNotes) FindUnsyncedByTitle(_ context.Context, title string) (models.Note, error) {
	return n.findFirst(func(note models.Note) bool {
		return note.Title == title && note.RemoteID == "" && !note.Synced
	})
}

// findFirst returns the oldest matching note, ties broken by local id.
func (n *boltNotes) findFirst(match func(models.Note) bool) (models.Note, error) {
	var (
		found models.Note
		ok    bool
	)
	err := n.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(notesBucket).ForEach(func(_, v []byte) error {
			var note models.Note
			if err := json.Unmarshal(v, &note); err != nil {
				return err
			}
			if !match(note) {
				return nil
			}
			if !ok || note.LastModified.Before(found.LastModified) ||
				(note.LastModified.Equal(found.LastModified) && note.LocalID < found.LocalID) {
				found, ok = note, true
			}
			return nil
		})
	})
	if err != nil {
		return models.Note{}, err
	}
	if !ok {
		return models.Note{}, ErrNoteNotFound
	}
	return found, nil
}

func (n *boltNotes) UpsertNote(ctx context.Context, note models.Note) (string, error) {
	if note.LocalID == "" {
		note.LocalID = n.ids.Generate()
	}

	err := n.db.Update(func(tx *bolt.Tx) error {
		notes := tx.Bucket(notesBucket)
		byRemote := tx.Bucket(notesByRemoteBucket)

		if note.RemoteID != "" {
			if holder := byRemote.Get([]byte(note.RemoteID)); holder != nil && string(holder) != note.LocalID {
				return ErrDuplicateRemoteID
			}
		}

		if prev := notes.Get([]byte(note.LocalID)); prev != nil {
			var old models.Note
			if err := json.Unmarshal(prev, &old); err != nil {
				return err
			}
			if old.RemoteID != "" && old.RemoteID != note.RemoteID {
				if err := byRemote.Delete([]byte(old.RemoteID)); err != nil {
					return err
				}
			}
		}

		data, err := json.Marshal(note)
		if err != nil {
			return err
		}
		if err = notes.Put([]byte(note.LocalID), data); err != nil {
			return err
		}
		if note.RemoteID != "" {
			return byRemote.Put([]byte(note.RemoteID), []byte(note.LocalID))
		}
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "boltNotes.UpsertNote").
			Str("local_id", note.LocalID).
			Str("remote_id", note.RemoteID).
			Msg("failed to upsert note")
		return "", err
	}

	return note.LocalID, nil
}

func (n *boltNotes) DeleteNote(_ context.Context, localID string) error {
	return n.db.Update(func(tx *bolt.Tx) error {
		notes := tx.Bucket(notesBucket)
		prev := notes.Get([]byte(localID))
		if prev == nil {
			return nil
		}

		var old models.Note
		if err := json.Unmarshal(prev, &old); err != nil {
			return err
		}
		if old.RemoteID != "" {
			if err := tx.Bucket(notesByRemoteBucket).Delete([]byte(old.RemoteID)); err != nil {
				return err
			}
		}
		return notes.Delete([]byte(localID))
	})
}

func (n *boltNotes) ListNotes(_ context.Context) ([]models.Note, error) {
	notes := make([]models.Note, 0)
	err := n.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(notesBucket).ForEach(func(_, v []byte) error {
			var note models.Note
			if err := json.Unmarshal(v, &note); err != nil {
				return err
			}
			notes = append(notes, note)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(notes, func(a, b models.Note) int {
		if c := b.LastModified.Compare(a.LastModified); c != 0 {
			return c
		}
		return strings.Compare(a.LocalID, b.LocalID)
	})
	return notes, nil
}

func getBoltNote(tx *bolt.Tx, localID string, note *models.Note) error {
	v := tx.Bucket(notesBucket).Get([]byte(localID))
	if v == nil {
		return ErrNoteNotFound
	}
	return json.Unmarshal(v, note)
}

// ── queue ──

type boltQueue BoltStore

func (q *boltQueue) Enqueue(ctx context.Context, localID string, action models.Action, payload models.MutationPayload) (int64, error) {
	if err := validateEntry(action, payload); err != nil {
		return 0, err
	}

	var entryID int64
	err := q.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(syncQueueBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		entry := models.QueueEntry{
			EntryID:    int64(seq),
			LocalID:    localID,
			Action:     action,
			Payload:    payload,
			EnqueuedAt: q.now().UTC(),
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		entryID = entry.EntryID
		return b.Put(seqKey(entryID), data)
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "boltQueue.Enqueue").
			Str("local_id", localID).
			Str("action", string(action)).
			Msg("failed to enqueue mutation")
		return 0, err
	}

	return entryID, nil
}

func (q *boltQueue) DrainOrdered(_ context.Context) ([]models.QueueEntry, error) {
	entries := make([]models.QueueEntry, 0)
	err := q.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(syncQueueBucket).ForEach(func(_, v []byte) error {
			var entry models.QueueEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(entries, func(a, b models.QueueEntry) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	return entries, nil
}

func (q *boltQueue) RemoveEntries(_ context.Context, entryIDs ...int64) error {
	if len(entryIDs) == 0 {
		return nil
	}
	return q.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(syncQueueBucket)
		for _, id := range entryIDs {
			if err := b.Delete(seqKey(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (q *boltQueue) RemoveByLocalID(_ context.Context, localID string) error {
	if localID == "" {
		return nil
	}
	return q.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(syncQueueBucket)

		var doomed [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var entry models.QueueEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			if entry.LocalID == localID {
				doomed = append(doomed, slices.Clone(k))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range doomed {
			if err = b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (q *boltQueue) IncrementRetry(_ context.Context, entryIDs ...int64) error {
	if len(entryIDs) == 0 {
		return nil
	}
	return q.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(syncQueueBucket)
		for _, id := range entryIDs {
			v := b.Get(seqKey(id))
			if v == nil {
				continue
			}
			var entry models.QueueEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entry.RetryCount++
			data, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			if err = b.Put(seqKey(id), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (q *boltQueue) Len(_ context.Context) (int, error) {
	var n int
	err := q.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(syncQueueBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func seqKey(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

// ── meta & user ──

type boltMeta BoltStore

func (m *boltMeta) GetWatermark(_ context.Context) (time.Time, error) {
	var raw []byte
	_ = m.db.View(func(tx *bolt.Tx) error {
		raw = slices.Clone(tx.Bucket(metaBucket).Get(watermarkKey))
		return nil
	})
	if raw == nil {
		return time.Time{}, nil
	}
	return parseWatermark(string(raw))
}

func (m *boltMeta) SetWatermark(_ context.Context, at time.Time) error {
	return m.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put(watermarkKey, []byte(formatWatermark(at)))
	})
}

type boltUsers BoltStore

func (u *boltUsers) SaveCredential(_ context.Context, cred models.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return u.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(userBucket).Put(credentialKey, data)
	})
}

func (u *boltUsers) GetCredential(_ context.Context) (models.Credential, error) {
	var cred models.Credential
	err := u.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(userBucket).Get(credentialKey)
		if v == nil {
			return ErrLocalSessionNotFound
		}
		return json.Unmarshal(v, &cred)
	})
	return cred, err
}

func (u *boltUsers) ClearCredential(_ context.Context) error {
	return u.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(userBucket).Delete(credentialKey)
	})
}
