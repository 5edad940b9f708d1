// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package models contains the data types shared by the notes client, the sync
// engine and the reference remote store.
package models

import "time"

// Note is the local representation of a note on this device.
type Note struct {
	// LocalID is the opaque identifier of the note on this device. It stays
	// stable for the whole local lifetime of the record.
	LocalID string `json:"local_id"`

	// RemoteID is the identity assigned by the remote store. Empty until the
	// server has accepted the note. At most one local record may carry a given
	// non-empty RemoteID.
	RemoteID string `json:"remote_id,omitempty"`

	// ClientToken is an idempotency token generated when the note is created
	// and echoed back by the server, so a just-created note can be matched
	// with its server record without relying on the title.
	ClientToken string `json:"client_token,omitempty"`

	Title   string `json:"title"`
	Content string `json:"content"`

	// LastModified is the timestamp used for last-write-wins comparison.
	LastModified time.Time `json:"last_modified"`

	// Synced is true iff the local state matches the last known server state.
	Synced bool `json:"synced"`

	OwnerID string `json:"owner_id,omitempty"`
}

// HasRemote reports whether the server has already accepted the note.
func (n Note) HasRemote() bool {
	return n.RemoteID != ""
}

// RemoteNote is the authoritative record as returned by the remote store.
type RemoteNote struct {
	ID           string    `json:"id"`
	ClientToken  string    `json:"clientToken,omitempty"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	LastModified time.Time `json:"lastModified"`

	// UpdatedAt is assigned by the server clock on every write. The change
	// feed and the client watermark are both expressed in this clock.
	UpdatedAt time.Time `json:"updatedAt"`

	// Deleted marks a tombstone kept by the server so deletions reach other
	// devices through the change feed.
	Deleted bool   `json:"deleted,omitempty"`
	OwnerID string `json:"ownerId,omitempty"`
}

// NotePayload is the body of single-record create and update requests.
type NotePayload struct {
	ID           string    `json:"id,omitempty" validate:"omitempty,max=64"`
	ClientToken  string    `json:"clientToken,omitempty" validate:"omitempty,max=64"`
	Title        string    `json:"title" validate:"max=512"`
	Content      string    `json:"content" validate:"max=1048576"`
	LastModified time.Time `json:"lastModified" validate:"required"`
}
