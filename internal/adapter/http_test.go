// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mars-alien/NoteTakingApp/internal/config"
	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/models"
)

// newTestAdapter создаёт httpServerAdapter, направленный на тестовый сервер
func newTestAdapter(t *testing.T, serverURL string) *httpServerAdapter {
	t.Helper()
	a, err := NewHTTPServerAdapter(config.Adapter{HTTPAddress: serverURL, RequestTimeout: time.Second}, logger.Nop())
	require.NoError(t, err)
	return a.(*httpServerAdapter)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// ── constructor ─────────────────────────────────────────────────────────────

func TestNormalizeBaseURL(t *testing.T) {
	got, err := normalizeBaseURL("localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", got)

	_, err = normalizeBaseURL("  ")
	assert.Error(t, err)
}

// ── auth ────────────────────────────────────────────────────────────────────

func TestRegister_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/register", r.URL.Path)

		var u models.User
		require.NoError(t, json.NewDecoder(r.Body).Decode(&u))
		assert.Equal(t, "alice", u.Login)
		assert.Equal(t, "secret1", u.Password)

		writeJSON(t, w, http.StatusCreated, models.Session{UserID: "u1", Token: "tok"})
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	session, err := a.Register(context.Background(), "alice", "secret1")

	require.NoError(t, err)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, "tok", a.Token())
}

// Токен может прийти только в заголовке.
func TestLogin_TokenFromHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Authorization", "Bearer header-token")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	session, err := a.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "header-token", session.Token)
	assert.Equal(t, "header-token", a.Token())
}

func TestLogin_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	_, err := a.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, a.Token())
}

// ── notes ───────────────────────────────────────────────────────────────────

func TestPushNotes_SendsBearerAndDecodes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notes/sync", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req models.SyncRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Notes, 1)
		assert.Equal(t, "ct", req.Notes[0].ClientToken)

		writeJSON(t, w, http.StatusOK, models.SyncResponse{
			Created: []models.RemoteNote{{ID: "r1", ClientToken: "ct", Title: "t", LastModified: now, UpdatedAt: now}},
			Conflicts: []models.SyncRejection{{ID: "r9", Reason: models.ReasonStale,
				ServerNote: &models.RemoteNote{ID: "r9", Title: "server"}}},
		})
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	a.SetToken(" tok ")

	resp, err := a.PushNotes(context.Background(), models.SyncRequest{Notes: []models.NotePayload{{ClientToken: "ct", Title: "t", LastModified: now}}})
	require.NoError(t, err)
	require.Len(t, resp.Created, 1)
	assert.Equal(t, "r1", resp.Created[0].ID)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, "server", resp.Conflicts[0].ServerNote.Title)
}

func TestPullChanges_EncodesTimestamp(t *testing.T) {
	since := time.Date(2026, 3, 1, 12, 0, 0, 123456000, time.FixedZone("X", 3*3600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notes/sync/after/2026-03-01T09:00:00.123456Z", r.URL.Path)
		writeJSON(t, w, http.StatusOK, []models.RemoteNote{{ID: "r1", Deleted: true}})
	}))
	defer srv.Close()

	changes, err := newTestAdapter(t, srv.URL).PullChanges(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Deleted)
}

func TestUpdateNote_StaleConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/notes/r1", r.URL.Path)
		writeJSON(t, w, http.StatusConflict, models.SyncRejection{ID: "r1", Reason: models.ReasonStale,
			ServerNote: &models.RemoteNote{ID: "r1", Title: "newer"}})
	}))
	defer srv.Close()

	_, rejection, err := newTestAdapter(t, srv.URL).UpdateNote(context.Background(), "r1", models.NotePayload{Title: "old"})
	assert.ErrorIs(t, err, ErrConflict)
	require.NotNil(t, rejection)
	assert.Equal(t, "newer", rejection.ServerNote.Title)
}

func TestDeleteNote_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := newTestAdapter(t, srv.URL).DeleteNote(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, ClassNotFound, Classify(err))
}

func TestCreateNote_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusCreated, models.RemoteNote{ID: "r1", Title: "t"})
	}))
	defer srv.Close()

	got, err := newTestAdapter(t, srv.URL).CreateNote(context.Background(), models.NotePayload{Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
}

// ── failures ────────────────────────────────────────────────────────────────

func TestPing_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := newTestAdapter(t, url).Ping(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, ClassTransient, Classify(err))
}

func TestPing_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := newTestAdapter(t, srv.URL).Ping(ctx)
	assert.Equal(t, ClassTransient, Classify(err))
}

func TestMapHTTPError_Classes(t *testing.T) {
	tests := []struct {
		status int
		want   error
		class  Class
	}{
		{http.StatusBadRequest, ErrBadRequest, ClassRejected},
		{http.StatusUnprocessableEntity, ErrBadRequest, ClassRejected},
		{http.StatusUnauthorized, ErrUnauthorized, ClassAuthFailure},
		{http.StatusForbidden, ErrForbidden, ClassRejected},
		{http.StatusNotFound, ErrNotFound, ClassNotFound},
		{http.StatusConflict, ErrConflict, ClassRejected},
		{http.StatusTooManyRequests, ErrTooManyRequests, ClassTransient},
		{http.StatusServiceUnavailable, ErrServerUnavailable, ClassTransient},
		{http.StatusTeapot, ErrUnexpectedResponse, ClassTransient},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := newTestAdapter(t, srv.URL).Ping(context.Background())
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.class, Classify(err))
		})
	}
}

func TestClassify_Plain(t *testing.T) {
	assert.Equal(t, ClassNone, Classify(nil))
	assert.Equal(t, ClassTransient, Classify(errors.New("weird")))
	assert.Equal(t, ClassTransient, Classify(context.DeadlineExceeded))
	assert.Equal(t, "auth_failure", ClassAuthFailure.String())
}
