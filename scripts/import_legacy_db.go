// Imports a legacy release database (snake_case JSON produced by the old
// Python tracker) into the current store format.
//
// Usage: import_legacy_db <legacy_db.json> <new_db.json>
package main

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/ravioldev/fitgirl-downloader/models"
	"github.com/ravioldev/fitgirl-downloader/services/store"
)

type legacyRelease struct {
	URL             string            `json:"url"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	ShortDesc       string            `json:"short_description"`
	PublishDate     string            `json:"publish_date"`
	GameReleaseDate string            `json:"game_release_date"`
	MagnetLink      string            `json:"magnet_link"`
	Size            string            `json:"size"`
	Details         map[string]string `json:"details"`
	CoverImageURL   string            `json:"cover_image_url"`
	ScreenshotURLs  []string          `json:"screenshot_urls"`
	Status          string            `json:"status"`
}

type legacyDB struct {
	Releases []legacyRelease `json:"releases"`
}

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: import_legacy_db <legacy_db.json> <new_db.json>")
	}
	legacyPath, newPath := os.Args[1], os.Args[2]

	data, err := os.ReadFile(legacyPath)
	if err != nil {
		log.Fatalf("Failed to read legacy database: %v", err)
	}

	var legacy legacyDB
	if err := json.Unmarshal(data, &legacy); err != nil {
		log.Fatalf("Failed to parse legacy database: %v", err)
	}

	st, err := store.NewService(newPath)
	if err != nil {
		log.Fatalf("Failed to open target store: %v", err)
	}

	imported := 0
	skipped := 0
	for _, lr := range legacy.Releases {
		status, _ := models.ParseReleaseStatus(lr.Status)
		release := models.Release{
			URL:              lr.URL,
			Title:            lr.Title,
			Description:      lr.Description,
			ShortDescription: lr.ShortDesc,
			MagnetLink:       lr.MagnetLink,
			Size:             lr.Size,
			Details:          lr.Details,
			CoverImageURL:    lr.CoverImageURL,
			ScreenshotURLs:   lr.ScreenshotURLs,
			Status:           status,
		}
		release.PublishDate = parseLegacyTime(lr.PublishDate)
		release.GameReleaseDate = parseLegacyTime(lr.GameReleaseDate)

		if _, err := st.Insert(release); err != nil {
			log.Printf("Skipping %s: %v", lr.Title, err)
			skipped++
			continue
		}
		imported++
	}

	log.Printf("Import complete: %d imported, %d skipped", imported, skipped)
}

// parseLegacyTime handles the timestamp formats the old tracker wrote.
func parseLegacyTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
