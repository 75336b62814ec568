package models

import (
	"strings"
	"time"
)

// ReleaseStatus tracks what the user has done with a release.
type ReleaseStatus string

const (
	StatusNew        ReleaseStatus = "NEW"
	StatusDownloaded ReleaseStatus = "DOWNLOADED"
	StatusIgnored    ReleaseStatus = "IGNORED"
)

// ParseReleaseStatus normalizes a status string, falling back to NEW for
// anything unrecognized.
func ParseReleaseStatus(s string) (ReleaseStatus, bool) {
	switch ReleaseStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusNew:
		return StatusNew, true
	case StatusDownloaded:
		return StatusDownloaded, true
	case StatusIgnored:
		return StatusIgnored, true
	}
	return StatusNew, false
}

// Text returns the human-readable form shown in the UI.
func (s ReleaseStatus) Text() string {
	switch s {
	case StatusDownloaded:
		return "Downloaded"
	case StatusIgnored:
		return "Ignored"
	default:
		return "New"
	}
}

// Color returns the hex color the UI uses for the status badge.
func (s ReleaseStatus) Color() string {
	switch s {
	case StatusDownloaded:
		return "#32CD32"
	case StatusIgnored:
		return "#FF6B6B"
	case StatusNew:
		return "#FFA500"
	default:
		return "#808080"
	}
}

// Release is a scraped repack release. ID, CreatedAt and UpdatedAt are
// assigned by the store; everything else comes from the detail page.
type Release struct {
	ID    int    `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`

	Description      string `json:"description"`
	ShortDescription string `json:"shortDescription"`

	// PublishDate is when the torrent was uploaded to the listing site.
	// GameReleaseDate is when the game itself originally shipped.
	PublishDate     *time.Time `json:"publishDate"`
	GameReleaseDate *time.Time `json:"gameReleaseDate"`

	MagnetLink string `json:"magnetLink"`
	Size       string `json:"size"` // unit-tagged, e.g. "8.0 GB"

	// Details carries the labeled technical fields scraped from the
	// description (genres, developer, engine, ...).
	Details map[string]string `json:"details,omitempty"`

	CoverImageURL  string   `json:"coverImageUrl"`
	ScreenshotURLs []string `json:"screenshotUrls"`

	Status    ReleaseStatus `json:"status"`
	CreatedAt *time.Time    `json:"createdAt"`
	UpdatedAt *time.Time    `json:"updatedAt"`
}

// NoMagnetSentinel stands in for a missing magnet link inside identity keys,
// so that (url, "") and an absent magnet hash identically.
const NoMagnetSentinel = "no_magnet"

// Key returns the composite identity key for duplicate detection. Magnet
// content is treated as immutable and authoritative: the same URL with a
// different magnet is a distinct release.
func (r *Release) Key() ReleaseKey {
	magnet := r.MagnetLink
	if magnet == "" {
		magnet = NoMagnetSentinel
	}
	return ReleaseKey{URL: r.URL, Magnet: magnet}
}

// HasDownloadLinks reports whether the release carries a magnet link.
func (r *Release) HasDownloadLinks() bool {
	return r.MagnetLink != ""
}

// ImageCount returns how many images (cover + screenshots) were scraped.
func (r *Release) ImageCount() int {
	n := len(r.ScreenshotURLs)
	if r.CoverImageURL != "" {
		n++
	}
	return n
}

// ReleaseKey is the composite (url, magnet) identity of a release.
type ReleaseKey struct {
	URL    string
	Magnet string
}
