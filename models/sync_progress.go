package models

// SyncStatus is the lifecycle state of a synchronization run.
type SyncStatus string

const (
	SyncIdle       SyncStatus = "idle"
	SyncStarting   SyncStatus = "starting"
	SyncScraping   SyncStatus = "scraping"
	SyncProcessing SyncStatus = "processing"
	SyncCompleted  SyncStatus = "completed"
	SyncError      SyncStatus = "error"
)

// SyncProgress is the snapshot pushed to clients while a sync run is active.
// It is reset when a run starts and frozen at completion or error until the
// next run.
type SyncProgress struct {
	Status          SyncStatus `json:"status"`
	CurrentPage     int        `json:"currentPage"`
	TotalPages      int        `json:"totalPages"`
	CurrentRelease  int        `json:"currentRelease"`
	TotalReleases   int        `json:"totalReleases"`
	NewReleases     int        `json:"newReleases"`
	UpdatedReleases int        `json:"updatedReleases"`
	SkippedReleases int        `json:"skippedReleases"`
	Message         string     `json:"message"`
}
