package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/ravioldev/fitgirl-downloader/config"
)

// SettingsHandler reads and writes the application configuration.
type SettingsHandler struct {
	Manager *config.Manager
}

func NewSettingsHandler(m *config.Manager) *SettingsHandler {
	return &SettingsHandler{Manager: m}
}

// GetSettings handles GET /api/config.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Manager.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdateSettings handles PUT /api/config. The body is a full settings
// document; partial updates go through Load-modify-Save on the client side.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var s config.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.Scraping.MaxPages <= 0 || s.Web.Port <= 0 {
		writeError(w, http.StatusBadRequest, "maxPages and port must be positive")
		return
	}
	if err := h.Manager.Save(s); err != nil {
		log.Printf("[settings] Save failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s)
}
