package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ravioldev/fitgirl-downloader/services/store"
	syncsvc "github.com/ravioldev/fitgirl-downloader/services/sync"
)

// SyncHandler controls and reports on the background sync run.
type SyncHandler struct {
	Service *syncsvc.Service
}

func NewSyncHandler(s *syncsvc.Service) *SyncHandler {
	return &SyncHandler{Service: s}
}

// StartSync handles POST /api/sync. The optional body sets a page cap for
// this run only.
func (h *SyncHandler) StartSync(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MaxPages int `json:"maxPages"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if body.MaxPages < 0 {
		writeError(w, http.StatusBadRequest, "maxPages must be positive")
		return
	}

	if err := h.Service.Start(body.MaxPages); err != nil {
		if errors.Is(err, syncsvc.ErrSyncInProgress) {
			writeError(w, http.StatusConflict, "sync already in progress")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// SyncRelease handles POST /api/releases/{id}/sync: re-scrape one release
// and overwrite its stored fields, keeping the user's status.
func (h *SyncHandler) SyncRelease(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid release id")
		return
	}

	release, err := h.Service.SyncRelease(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "release not found")
		case errors.Is(err, store.ErrDuplicate):
			writeError(w, http.StatusConflict, "scraped url belongs to another release")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, release)
}

// SyncStatus handles GET /api/sync/status.
func (h *SyncHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"running":  h.Service.Running(),
		"progress": h.Service.Progress(),
	})
}
