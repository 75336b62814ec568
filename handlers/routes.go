package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/ravioldev/fitgirl-downloader/api"
	"github.com/ravioldev/fitgirl-downloader/services/events"
)

// RegisterRoutes wires the API surface onto the router. The sync trigger is
// rate limited so a stuck client cannot hammer the remote site.
func RegisterRoutes(r *mux.Router, releases *ReleasesHandler, sync *SyncHandler, settings *SettingsHandler, backups *BackupHandler, hub *events.Hub) {
	syncLimiter := api.NewIPRateLimiter(rate.Every(12*time.Second), 5)

	apiRouter := r.PathPrefix("/api").Subrouter()

	apiRouter.HandleFunc("/releases", releases.ListReleases).Methods(http.MethodGet)
	apiRouter.HandleFunc("/releases/clear", releases.ClearReleases).Methods(http.MethodPost)
	apiRouter.HandleFunc("/releases/{id:[0-9]+}", releases.GetRelease).Methods(http.MethodGet)
	apiRouter.HandleFunc("/releases/{id:[0-9]+}", releases.DeleteRelease).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/releases/{id:[0-9]+}/status", releases.UpdateStatus).Methods(http.MethodPut)
	apiRouter.HandleFunc("/releases/{id:[0-9]+}/sync", api.RateLimitHandlerFunc(syncLimiter, sync.SyncRelease)).Methods(http.MethodPost)
	apiRouter.HandleFunc("/search", releases.Search).Methods(http.MethodGet)
	apiRouter.HandleFunc("/statistics", releases.Statistics).Methods(http.MethodGet)

	apiRouter.HandleFunc("/sync", api.RateLimitHandlerFunc(syncLimiter, sync.StartSync)).Methods(http.MethodPost)
	apiRouter.HandleFunc("/sync/status", sync.SyncStatus).Methods(http.MethodGet)

	apiRouter.HandleFunc("/config", settings.GetSettings).Methods(http.MethodGet)
	apiRouter.HandleFunc("/config", settings.UpdateSettings).Methods(http.MethodPut)

	apiRouter.HandleFunc("/backups", backups.ListBackups).Methods(http.MethodGet)
	apiRouter.HandleFunc("/backups", backups.CreateBackup).Methods(http.MethodPost)
	apiRouter.HandleFunc("/backups/{filename}", backups.DeleteBackup).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/backups/{filename}/download", backups.DownloadBackup).Methods(http.MethodGet)
	apiRouter.HandleFunc("/backups/{filename}/restore", backups.RestoreBackup).Methods(http.MethodPost)

	apiRouter.HandleFunc("/version", NewVersionHandler().GetVersion).Methods(http.MethodGet)

	r.HandleFunc("/ws", hub.HandleConnection)

	r.PathPrefix("/").Handler(NewStaticHandler())
}
