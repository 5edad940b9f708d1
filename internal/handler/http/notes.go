package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/service"
	"github.com/mars-alien/NoteTakingApp/internal/utils"
	"github.com/mars-alien/NoteTakingApp/models"
)

// maxBodyBytes bounds request bodies of the note endpoints.
const maxBodyBytes = 8 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(ErrInvalidJSON, err)
	}
	return nil
}

func (h *Handler) createNote(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeServiceError(w, r, err, "create note")
		return
	}

	var payload models.NotePayload
	if err = decodeBody(w, r, &payload); err != nil {
		h.writeServiceError(w, r, err, "create note")
		return
	}

	note, err := h.services.NotesService.CreateNote(r.Context(), owner, payload)
	if err != nil {
		h.writeServiceError(w, r, err, "create note")
		return
	}

	utils.WriteJSON(w, note, http.StatusCreated)
}

func (h *Handler) updateNote(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeServiceError(w, r, err, "update note")
		return
	}

	var payload models.NotePayload
	if err = decodeBody(w, r, &payload); err != nil {
		h.writeServiceError(w, r, err, "update note")
		return
	}

	noteID := chi.URLParam(r, "noteID")
	note, rejection, err := h.services.NotesService.UpdateNote(r.Context(), owner, noteID, payload)
	if errors.Is(err, service.ErrStaleUpdate) && rejection != nil {
		logger.FromRequest(r).Debug().Str("note_id", noteID).Str("reason", rejection.Reason).Msg("update rejected")
		utils.WriteJSON(w, rejection, http.StatusConflict)
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err, "update note")
		return
	}

	utils.WriteJSON(w, note, http.StatusOK)
}

func (h *Handler) deleteNote(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeServiceError(w, r, err, "delete note")
		return
	}

	if err = h.services.NotesService.DeleteNote(r.Context(), owner, chi.URLParam(r, "noteID")); err != nil {
		h.writeServiceError(w, r, err, "delete note")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) syncNotes(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeServiceError(w, r, err, "sync notes")
		return
	}

	var req models.SyncRequest
	if err = decodeBody(w, r, &req); err != nil {
		h.writeServiceError(w, r, err, "sync notes")
		return
	}

	resp, err := h.services.NotesService.Sync(r.Context(), owner, req)
	if err != nil {
		h.writeServiceError(w, r, err, "sync notes")
		return
	}

	logger.FromRequest(r).Debug().
		Int("created", len(resp.Created)).
		Int("updated", len(resp.Updated)).
		Int("conflicts", len(resp.Conflicts)).
		Msg("sync batch applied")
	utils.WriteJSON(w, resp, http.StatusOK)
}

// changesAfter serves the change feed: every note of the owner written at or
// after the timestamp path parameter, tombstones included.
func (h *Handler) changesAfter(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeServiceError(w, r, err, "pull changes")
		return
	}

	var since time.Time
	raw, err := url.PathUnescape(chi.URLParam(r, "timestamp"))
	if err == nil {
		since, err = time.Parse(time.RFC3339Nano, raw)
	}
	if err != nil {
		h.writeServiceError(w, r, errors.Join(ErrInvalidTimestamp, err), "pull changes")
		return
	}

	notes, err := h.services.NotesService.ChangesSince(r.Context(), owner, since)
	if err != nil {
		h.writeServiceError(w, r, err, "pull changes")
		return
	}

	utils.WriteJSON(w, notes, http.StatusOK)
}
