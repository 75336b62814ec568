package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ravioldev/fitgirl-downloader/models"
	"github.com/ravioldev/fitgirl-downloader/services/store"
)

const defaultPageSize = 50

// ReleasesHandler exposes the release catalog over HTTP.
type ReleasesHandler struct {
	Store *store.Service
}

func NewReleasesHandler(st *store.Service) *ReleasesHandler {
	return &ReleasesHandler{Store: st}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ListReleases handles GET /api/releases with paging, filtering and sorting.
func (h *ReleasesHandler) ListReleases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = v
	}
	limit := defaultPageSize
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}

	if search := q.Get("search"); search != "" {
		status, ok := parseStatusFilter(q.Get("status"))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		results := h.Store.Search(search, status, limit)
		writeJSON(w, http.StatusOK, map[string]any{
			"releases": results,
			"total":    len(results),
			"page":     1,
			"limit":    limit,
		})
		return
	}

	sort := store.SortOrder(q.Get("sort"))
	if sort == "" {
		sort = store.SortDateDesc
	}

	all := h.Store.GetAll(store.ListOptions{Sort: sort})
	if status, ok := parseStatusFilter(q.Get("status")); !ok {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	} else if status != "" {
		filtered := all[:0:0]
		for _, rel := range all {
			if rel.Status == status {
				filtered = append(filtered, rel)
			}
		}
		all = filtered
	}

	total := len(all)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"releases": all[start:end],
		"total":    total,
		"page":     page,
		"limit":    limit,
		"pages":    (total + limit - 1) / limit,
	})
}

// GetRelease handles GET /api/releases/{id}.
func (h *ReleasesHandler) GetRelease(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid release id")
		return
	}
	release := h.Store.GetByID(id)
	if release == nil {
		writeError(w, http.StatusNotFound, "release not found")
		return
	}
	writeJSON(w, http.StatusOK, release)
}

// UpdateStatus handles PUT /api/releases/{id}/status.
func (h *ReleasesHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid release id")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, ok := models.ParseReleaseStatus(body.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid status value")
		return
	}

	if err := h.Store.UpdateStatus(id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "release not found")
			return
		}
		log.Printf("[releases] Status update failed for %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
}

// DeleteRelease handles DELETE /api/releases/{id}.
func (h *ReleasesHandler) DeleteRelease(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid release id")
		return
	}
	if err := h.Store.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "release not found")
			return
		}
		log.Printf("[releases] Delete failed for %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// ClearReleases handles POST /api/releases/clear. The destructive action
// requires an explicit confirmation flag.
func (h *ReleasesHandler) ClearReleases(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Confirm bool `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !body.Confirm {
		writeError(w, http.StatusBadRequest, "confirmation required")
		return
	}
	if err := h.Store.Clear(); err != nil {
		log.Printf("[releases] Clear failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Search handles GET /api/search.
func (h *ReleasesHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	status, ok := parseStatusFilter(q.Get("status"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	limit := defaultPageSize
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	results := h.Store.Search(query, status, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"releases": results,
		"total":    len(results),
	})
}

// Statistics handles GET /api/statistics.
func (h *ReleasesHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.GetStats())
}

// parseStatusFilter validates an optional status query value. An empty value
// means no filtering.
func parseStatusFilter(v string) (models.ReleaseStatus, bool) {
	if v == "" {
		return "", true
	}
	status, ok := models.ParseReleaseStatus(v)
	if !ok {
		return "", false
	}
	return status, true
}
