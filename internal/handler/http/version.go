package http

import (
	"net/http"

	"github.com/mars-alien/NoteTakingApp/internal/utils"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// health answers the connectivity probe of the clients.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, healthResponse{
		Status:  "ok",
		Version: h.services.AppInfoService.GetAppVersion(r.Context()),
	}, http.StatusOK)
}

func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	serverVersion := h.services.AppInfoService.GetAppVersion(r.Context())

	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(serverVersion))
}
