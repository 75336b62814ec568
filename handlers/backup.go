package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ravioldev/fitgirl-downloader/services/backup"
)

// BackupHandler exposes catalog backup management.
type BackupHandler struct {
	backupService *backup.Service
}

func NewBackupHandler(backupService *backup.Service) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// ListBackups handles GET /api/backups.
func (h *BackupHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backupService.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backups": backups})
}

// CreateBackup handles POST /api/backups.
func (h *BackupHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	info, err := h.backupService.Create(backup.TypeManual)
	if err != nil {
		log.Printf("[backup] Create failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"backup": info})
}

// DownloadBackup handles GET /api/backups/{filename}/download.
func (h *BackupHandler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]
	path, err := h.backupService.Path(filename)
	if err != nil {
		writeError(w, http.StatusNotFound, "backup not found")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}

// RestoreBackup handles POST /api/backups/{filename}/restore. The service
// takes a pre-restore backup first; a restart picks up the restored files.
func (h *BackupHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]
	if err := h.backupService.Restore(filename); err != nil {
		if errors.Is(err, backup.ErrNotFound) {
			writeError(w, http.StatusNotFound, "backup not found")
			return
		}
		log.Printf("[backup] Restore failed for %s: %v", filename, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Backup restored. Restart the server to apply all changes.",
	})
}

// DeleteBackup handles DELETE /api/backups/{filename}.
func (h *BackupHandler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]
	if err := h.backupService.Delete(filename); err != nil {
		if errors.Is(err, backup.ErrNotFound) {
			writeError(w, http.StatusNotFound, "backup not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
