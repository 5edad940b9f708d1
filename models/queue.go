package models

import "time"

// Action is the kind of pending mutation stored in the sync queue.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// MutationPayload is the snapshot of a note captured when a mutation is
// enqueued. For delete entries RemoteID identifies the server record.
type MutationPayload struct {
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	LastModified time.Time `json:"lastModified"`
	RemoteID     string    `json:"remoteId,omitempty"`
	ClientToken  string    `json:"clientToken,omitempty"`
}

// QueueEntry is a single pending mutation awaiting transmission.
//
// Entries are totally ordered by EnqueuedAt, ties broken by EntryID.
type QueueEntry struct {
	EntryID int64 `json:"entry_id"`

	// LocalID is empty only for create entries that are not tied to a local
	// record.
	LocalID    string          `json:"local_id,omitempty"`
	Action     Action          `json:"action"`
	Payload    MutationPayload `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	RetryCount int             `json:"retry_count"`
}

// Before reports whether e sorts before other in queue order.
func (e QueueEntry) Before(other QueueEntry) bool {
	if e.EnqueuedAt.Equal(other.EnqueuedAt) {
		return e.EntryID < other.EntryID
	}
	return e.EnqueuedAt.Before(other.EnqueuedAt)
}
