// Package store persists releases as a single JSON document on disk. Every
// mutation rewrites the whole file; the single-active-sync guarantee upstream
// makes last-writer-wins acceptable here.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ravioldev/fitgirl-downloader/models"
)

var (
	ErrDuplicate = errors.New("release already exists")
	ErrNotFound  = errors.New("release not found")
)

// SortOrder selects how GetAll orders results.
type SortOrder string

const (
	SortDateDesc  SortOrder = "date_desc"
	SortDateAsc   SortOrder = "date_asc"
	SortTitleAsc  SortOrder = "title_asc"
	SortTitleDesc SortOrder = "title_desc"
)

type metadata struct {
	Version       int        `json:"version"`
	CreatedAt     *time.Time `json:"createdAt"`
	LastUpdated   *time.Time `json:"lastUpdated"`
	TotalReleases int        `json:"totalReleases"`
}

type document struct {
	Metadata metadata         `json:"metadata"`
	Releases []models.Release `json:"releases"`
}

// Service is the JSON-backed release store.
type Service struct {
	mu       sync.RWMutex
	path     string
	doc      document
	now      func() time.Time
}

// NewService opens (or creates) the store at path. An unreadable file is
// backed up aside and replaced with a fresh empty store rather than failing.
func NewService(path string) (*Service, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	svc := &Service{path: path, now: time.Now}
	if err := svc.load(); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *Service) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		now := s.now().UTC()
		s.doc = document{Metadata: metadata{Version: 1, CreatedAt: &now}}
		return s.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("read store: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		// Corrupt store: keep the bytes aside and start fresh.
		backup := fmt.Sprintf("%s.backup.%s", s.path, s.now().Format("20060102_150405"))
		if copyErr := copyFile(s.path, backup); copyErr != nil {
			log.Printf("[store] Failed to back up corrupt store: %v", copyErr)
		} else {
			log.Printf("[store] Corrupt store backed up to %s", backup)
		}
		now := s.now().UTC()
		s.doc = document{Metadata: metadata{Version: 1, CreatedAt: &now}}
		return s.saveLocked()
	}

	// Older store files may predate explicit statuses.
	migrated := 0
	for i := range doc.Releases {
		if doc.Releases[i].Status == "" {
			doc.Releases[i].Status = models.StatusNew
			migrated++
		}
	}
	s.doc = doc
	if migrated > 0 {
		log.Printf("[store] Migrated %d releases without status", migrated)
		return s.saveLocked()
	}
	return nil
}

// saveLocked rewrites the store file. Callers must hold the write lock (or be
// the only reference, during construction).
func (s *Service) saveLocked() error {
	now := s.now().UTC()
	s.doc.Metadata.LastUpdated = &now
	s.doc.Metadata.TotalReleases = len(s.doc.Releases)

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.doc); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode store: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Service) nextID() int {
	maxID := 0
	for i := range s.doc.Releases {
		if s.doc.Releases[i].ID > maxID {
			maxID = s.doc.Releases[i].ID
		}
	}
	return maxID + 1
}

// Insert adds a new release, assigning the next sequential ID. A release with
// the same (url, magnet) identity already present yields ErrDuplicate.
func (s *Service) Insert(release models.Release) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := release.Key()
	for i := range s.doc.Releases {
		if s.doc.Releases[i].Key() == key {
			return 0, ErrDuplicate
		}
	}

	now := s.now().UTC()
	release.ID = s.nextID()
	if release.Status == "" {
		release.Status = models.StatusNew
	}
	release.CreatedAt = &now
	release.UpdatedAt = &now

	s.doc.Releases = append(s.doc.Releases, release)
	if err := s.saveLocked(); err != nil {
		s.doc.Releases = s.doc.Releases[:len(s.doc.Releases)-1]
		return 0, err
	}
	return release.ID, nil
}

// UpdateByKey overwrites the content fields of the release matching the
// composite key, preserving id, status and createdAt.
func (s *Service) UpdateByKey(key models.ReleaseKey, release models.Release) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Releases {
		if s.doc.Releases[i].Key() != key {
			continue
		}
		existing := s.doc.Releases[i]
		now := s.now().UTC()
		release.ID = existing.ID
		release.Status = existing.Status
		release.CreatedAt = existing.CreatedAt
		release.UpdatedAt = &now
		s.doc.Releases[i] = release
		return true, s.saveLocked()
	}
	return false, nil
}

// UpdateByID overwrites the release with the given ID, preserving createdAt.
func (s *Service) UpdateByID(id int, release models.Release) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Releases {
		if s.doc.Releases[i].ID != id {
			continue
		}
		now := s.now().UTC()
		release.ID = id
		release.CreatedAt = s.doc.Releases[i].CreatedAt
		if release.CreatedAt == nil {
			release.CreatedAt = &now
		}
		release.UpdatedAt = &now
		s.doc.Releases[i] = release
		return true, s.saveLocked()
	}
	return false, nil
}

// UpdateStatus changes only the user-curated status of a release.
func (s *Service) UpdateStatus(id int, status models.ReleaseStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Releases {
		if s.doc.Releases[i].ID != id {
			continue
		}
		now := s.now().UTC()
		s.doc.Releases[i].Status = status
		s.doc.Releases[i].UpdatedAt = &now
		return s.saveLocked()
	}
	return ErrNotFound
}

// Delete removes a release by ID.
func (s *Service) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Releases {
		if s.doc.Releases[i].ID == id {
			s.doc.Releases = append(s.doc.Releases[:i], s.doc.Releases[i+1:]...)
			return s.saveLocked()
		}
	}
	return ErrNotFound
}

// Clear drops every release from the store.
func (s *Service) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Releases = nil
	return s.saveLocked()
}

// ListOptions control GetAll pagination and ordering.
type ListOptions struct {
	Sort   SortOrder
	Limit  int // 0 means no limit
	Offset int
}

// GetAll returns releases ordered and paginated per opts.
func (s *Service) GetAll(opts ListOptions) []models.Release {
	s.mu.RLock()
	releases := make([]models.Release, len(s.doc.Releases))
	copy(releases, s.doc.Releases)
	s.mu.RUnlock()

	switch opts.Sort {
	case SortDateAsc:
		sort.SliceStable(releases, func(i, j int) bool {
			return publishTime(releases[i]).Before(publishTime(releases[j]))
		})
	case SortTitleAsc:
		sort.SliceStable(releases, func(i, j int) bool {
			return strings.ToLower(releases[i].Title) < strings.ToLower(releases[j].Title)
		})
	case SortTitleDesc:
		sort.SliceStable(releases, func(i, j int) bool {
			return strings.ToLower(releases[i].Title) > strings.ToLower(releases[j].Title)
		})
	default: // SortDateDesc
		sort.SliceStable(releases, func(i, j int) bool {
			return publishTime(releases[i]).After(publishTime(releases[j]))
		})
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(releases) {
			return nil
		}
		releases = releases[opts.Offset:]
	}
	if opts.Limit > 0 && len(releases) > opts.Limit {
		releases = releases[:opts.Limit]
	}
	return releases
}

func publishTime(r models.Release) time.Time {
	if r.PublishDate != nil {
		return *r.PublishDate
	}
	return time.Time{}
}

// GetByID returns the release with the given ID, or nil.
func (s *Service) GetByID(id int) *models.Release {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.doc.Releases {
		if s.doc.Releases[i].ID == id {
			r := s.doc.Releases[i]
			return &r
		}
	}
	return nil
}

// GetByURL returns the first release with the given URL, or nil.
func (s *Service) GetByURL(url string) *models.Release {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.doc.Releases {
		if s.doc.Releases[i].URL == url {
			r := s.doc.Releases[i]
			return &r
		}
	}
	return nil
}

// Search matches query against title and description, case-insensitively.
// status narrows results when non-empty; limit of 0 means unlimited.
func (s *Service) Search(query string, status models.ReleaseStatus, limit int) []models.Release {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var results []models.Release
	for i := range s.doc.Releases {
		r := s.doc.Releases[i]
		if q != "" &&
			!strings.Contains(strings.ToLower(r.Title), q) &&
			!strings.Contains(strings.ToLower(r.Description), q) {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		results = append(results, r)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results
}

// Stats summarizes the store contents.
type Stats struct {
	TotalReleases      int        `json:"totalReleases"`
	NewReleases        int        `json:"newReleases"`
	DownloadedReleases int        `json:"downloadedReleases"`
	IgnoredReleases    int        `json:"ignoredReleases"`
	LatestReleaseDate  *time.Time `json:"latestReleaseDate"`
}

// GetStats counts releases per status and finds the most recent publish date.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{TotalReleases: len(s.doc.Releases)}
	for i := range s.doc.Releases {
		r := s.doc.Releases[i]
		switch r.Status {
		case models.StatusDownloaded:
			stats.DownloadedReleases++
		case models.StatusIgnored:
			stats.IgnoredReleases++
		default:
			stats.NewReleases++
		}
		if r.PublishDate != nil && (stats.LatestReleaseDate == nil || r.PublishDate.After(*stats.LatestReleaseDate)) {
			stats.LatestReleaseDate = r.PublishDate
		}
	}
	return stats
}

// Backup copies the store file to the given path.
func (s *Service) Backup(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyFile(s.path, path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
