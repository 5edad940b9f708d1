package http

import (
	"encoding/json"
	"net/http"

	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/utils"
	"github.com/mars-alien/NoteTakingApp/models"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		log.Err(err).Str("func", "*Handler.register").Msg("Invalid JSON was passed")
		http.Error(w, ErrInvalidJSON.Error(), http.StatusBadRequest)
		return
	}

	registeredUser, err := h.services.AuthService.RegisterUser(ctx, user)
	if err != nil {
		h.writeServiceError(w, r, err, "user registration failed")
		return
	}

	h.issueSession(w, r, registeredUser)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		log.Err(err).Str("func", "*Handler.login").Msg("Invalid JSON was passed")
		http.Error(w, ErrInvalidJSON.Error(), http.StatusBadRequest)
		return
	}

	foundUser, err := h.services.AuthService.Login(ctx, user)
	if err != nil {
		h.writeServiceError(w, r, err, "user login failed")
		return
	}

	log.Debug().Str("id", foundUser.UserID).Msg("user successfully logged in")
	h.issueSession(w, r, foundUser)
}

// issueSession answers with a fresh token, both in the body and in the
// Authorization header.
func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, user models.User) {
	token, err := h.services.AuthService.CreateToken(r.Context(), user)
	if err != nil {
		h.writeServiceError(w, r, err, "creation of token failed")
		return
	}

	w.Header().Set("Authorization", "Bearer "+token.SignedString)
	utils.WriteJSON(w, models.Session{UserID: user.UserID, Token: token.SignedString}, http.StatusOK)
}
