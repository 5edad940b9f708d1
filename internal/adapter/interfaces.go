// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the transport between the sync engine and the
// remote document store.
//
// [ServerAdapter] decouples the service layer from the protocol. The package
// ships an HTTP/REST implementation ([NewHTTPServerAdapter]) built on resty.
//
// Non-2xx responses are mapped to the sentinel errors in errors.go by
// mapHTTPError, and [Classify] sorts any returned error into the classes the
// sync coordinator reacts to (transient, auth failure, rejected, not found).
package adapter

import (
	"context"
	"time"

	"github.com/mars-alien/NoteTakingApp/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// ServerAdapter is the client view of the remote store.
type ServerAdapter interface {
	// SetToken stores the bearer token attached to all authenticated
	// requests.
	SetToken(token string)

	// Token returns the current bearer token, or "" if none is set.
	Token() string

	// Register creates an account and stores the issued token.
	Register(ctx context.Context, login, password string) (models.Session, error)

	// Login authenticates and stores the issued token.
	Login(ctx context.Context, login, password string) (models.Session, error)

	// Ping checks that the remote store is reachable.
	Ping(ctx context.Context) error

	// CreateNote posts a single new note: POST /notes.
	CreateNote(ctx context.Context, note models.NotePayload) (models.RemoteNote, error)

	// UpdateNote patches a single note: PATCH /notes/{remoteId}. A
	// last-write-wins loss is returned as [ErrConflict] together with the
	// rejection.
	UpdateNote(ctx context.Context, remoteID string, note models.NotePayload) (models.RemoteNote, *models.SyncRejection, error)

	// DeleteNote removes a note: DELETE /notes/{remoteId}.
	DeleteNote(ctx context.Context, remoteID string) error

	// PushNotes sends a batch of creates and updates: POST /notes/sync.
	PushNotes(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error)

	// PullChanges returns the notes changed at or after since, tombstones
	// included: GET /notes/sync/after/{timestamp}.
	PullChanges(ctx context.Context, since time.Time) ([]models.RemoteNote, error)
}
