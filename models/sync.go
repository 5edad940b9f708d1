// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// SyncRequest is the body of the batched push: POST /notes/sync.
type SyncRequest struct {
	Notes []NotePayload `json:"notes" validate:"dive"`
}

// SyncResponse is returned by the batched push.
type SyncResponse struct {
	Created   []RemoteNote    `json:"created"`
	Updated   []RemoteNote    `json:"updated"`
	Conflicts []SyncRejection `json:"conflicts"`
}

// Conflict reasons reported by the remote store.
const (
	ReasonStale     = "stale"
	ReasonNotFound  = "not_found"
	ReasonDeleted   = "deleted"
	ReasonForbidden = "forbidden"
	ReasonInvalid   = "invalid"
)

// SyncRejection describes a pushed note the server did not apply.
type SyncRejection struct {
	ID          string      `json:"id,omitempty"`
	ClientToken string      `json:"clientToken,omitempty"`
	Reason      string      `json:"reason"`
	ServerNote  *RemoteNote `json:"serverNote,omitempty"`
}

// SyncPhase is the state of the sync coordinator.
type SyncPhase string

const (
	PhaseIdle        SyncPhase = "idle"
	PhaseSyncing     SyncPhase = "syncing"
	PhaseBackoffWait SyncPhase = "backoff-wait"
)

// Conflict resolutions recorded in SyncConflict.
const (
	ResolutionServerWins = "server_wins"
	ResolutionDropped    = "dropped"
)

// SyncConflict is a user-visible record of a mutation that was not applied
// as written: either it lost a last-write-wins comparison or the server
// rejected it without retry.
type SyncConflict struct {
	LocalID    string    `json:"local_id,omitempty"`
	RemoteID   string    `json:"remote_id,omitempty"`
	Reason     string    `json:"reason"`
	Resolution string    `json:"resolution"`
	At         time.Time `json:"at"`

	// DiscardedPatch is a textual patch from the server content to the local
	// content that was discarded.
	DiscardedPatch string `json:"discarded_patch,omitempty"`
}

// SyncStatus is a snapshot of the coordinator state that a UI can poll.
type SyncStatus struct {
	Online         bool           `json:"online"`
	SyncInFlight   bool           `json:"sync_in_flight"`
	CurrentBackoff time.Duration  `json:"current_backoff"`
	Phase          SyncPhase      `json:"phase"`
	AuthRequired   bool           `json:"auth_required"`
	LastSyncAt     time.Time      `json:"last_sync_at"`
	LastError      string         `json:"last_error,omitempty"`
	Conflicts      []SyncConflict `json:"conflicts,omitempty"`
}
