// Package sync crawls the release listing and reconciles what it finds with
// the local catalog: one run at a time, page by page, newest first.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdsync "sync"
	"time"

	"github.com/ravioldev/fitgirl-downloader/config"
	"github.com/ravioldev/fitgirl-downloader/models"
	"github.com/ravioldev/fitgirl-downloader/services/store"
)

// ErrSyncInProgress is returned when a start request arrives while a run is
// already active. Requests are rejected, not queued.
var ErrSyncInProgress = errors.New("sync already in progress")

// Crawler is the scraping surface the orchestrator drives.
type Crawler interface {
	FetchPage(ctx context.Context, page int, seen map[string]struct{}) ([]string, error)
	ExtractRelease(ctx context.Context, url string) (*models.Release, error)
}

// Notifier receives progress events for connected clients. A nil notifier
// disables broadcasting.
type Notifier interface {
	Broadcast(event string, payload any)
}

// Service owns the sync lifecycle. At most one run is active; its progress
// is observable at any time through Progress.
type Service struct {
	store    *store.Service
	crawler  Crawler
	cfg      *config.Manager
	notifier Notifier

	mu       stdsync.Mutex
	running  bool
	cancel   context.CancelFunc
	progress models.SyncProgress
}

func NewService(st *store.Service, crawler Crawler, cfg *config.Manager, notifier Notifier) *Service {
	return &Service{
		store:    st,
		crawler:  crawler,
		cfg:      cfg,
		notifier: notifier,
		progress: models.SyncProgress{Status: models.SyncIdle},
	}
}

// Running reports whether a sync run is currently active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Progress returns a snapshot of the current run state.
func (s *Service) Progress() models.SyncProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Start launches a sync run in the background. maxPages <= 0 means use the
// configured limit. A second start while running returns ErrSyncInProgress.
// The run outlives the caller; Stop cancels it.
func (s *Service) Start(maxPages int) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSyncInProgress
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.cancel = cancel
	s.progress = models.SyncProgress{
		Status:  models.SyncStarting,
		Message: "Starting sync",
	}
	s.mu.Unlock()
	s.broadcast()

	go s.run(ctx, maxPages)
	return nil
}

// Stop cancels the active run, if any. The run winds down at the next
// checkpoint; Stop does not wait for it.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// SyncRelease re-scrapes one stored release in the caller's context and
// overwrites its fields, keeping the id and the user-curated status. It is
// independent of the background run and does not touch its progress.
func (s *Service) SyncRelease(ctx context.Context, id int) (*models.Release, error) {
	existing := s.store.GetByID(id)
	if existing == nil {
		return nil, store.ErrNotFound
	}

	log.Printf("[sync] Re-scraping release %d: %s", id, existing.URL)
	fresh, err := s.crawler.ExtractRelease(ctx, existing.URL)
	if err != nil {
		return nil, fmt.Errorf("re-scrape %s: %w", existing.URL, err)
	}

	// A re-scrape must not end up sharing a URL with a different record.
	if other := s.store.GetByURL(fresh.URL); other != nil && other.ID != existing.ID {
		return nil, store.ErrDuplicate
	}

	fresh.Status = existing.Status
	ok, err := s.store.UpdateByID(id, *fresh)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.store.GetByID(id), nil
}

// run executes the whole crawl. It always clears the running flag and leaves
// the progress in a terminal state, even on panic.
func (s *Service) run(ctx context.Context, maxPages int) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[sync] Panic during sync: %v", r)
			s.finish(models.SyncError, fmt.Sprintf("internal error: %v", r))
		}
		s.mu.Lock()
		s.running = false
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.mu.Unlock()
	}()

	settings, err := s.cfg.Load()
	if err != nil {
		log.Printf("[sync] Config load failed, using defaults: %v", err)
		settings = config.DefaultSettings()
	}
	if maxPages <= 0 {
		maxPages = settings.Scraping.MaxPages
	}

	// On the very first run there is nothing to compare against, so the
	// whole listing is crawled. Later runs stop early at known content.
	firstSync := settings.LastSyncCheck == nil || len(s.store.GetAll(store.ListOptions{})) == 0
	if firstSync {
		log.Printf("[sync] First sync: crawling up to %d pages", maxPages)
	}

	index := newReleaseIndex(s.store.GetAll(store.ListOptions{}))

	s.update(func(p *models.SyncProgress) {
		p.Status = models.SyncScraping
		p.TotalPages = maxPages
		p.Message = "Collecting torrent pages"
	})

	seen := make(map[string]struct{})
	var pending []string
	for page := 1; page <= maxPages; page++ {
		if ctx.Err() != nil {
			s.finish(models.SyncError, "sync cancelled")
			return
		}

		urls, err := s.crawler.FetchPage(ctx, page, seen)
		if err != nil {
			log.Printf("[sync] Page %d failed: %v", page, err)
			if page == 1 {
				s.finish(models.SyncError, fmt.Sprintf("listing unreachable: %v", err))
				return
			}
			break
		}
		if len(urls) == 0 {
			log.Printf("[sync] Page %d empty, stopping crawl", page)
			break
		}

		fresh := 0
		for _, u := range urls {
			// Known pages are skipped before any detail fetch. Pages the
			// user already acted on never warrant a re-extract.
			if index.knownURL(u) {
				continue
			}
			pending = append(pending, u)
			fresh++
		}

		s.update(func(p *models.SyncProgress) {
			p.CurrentPage = page
			p.TotalReleases = len(pending)
			p.Message = fmt.Sprintf("Page %d: %d new torrents", page, fresh)
		})

		// An incremental run stops as soon as a whole page is already known:
		// the listing is newest-first, so everything beyond it is older.
		if !firstSync && fresh == 0 {
			log.Printf("[sync] Page %d fully known, stopping incremental crawl", page)
			break
		}
	}

	s.update(func(p *models.SyncProgress) {
		p.Status = models.SyncProcessing
		p.TotalReleases = len(pending)
		p.Message = fmt.Sprintf("Processing %d releases", len(pending))
	})

	for i, u := range pending {
		if ctx.Err() != nil {
			s.finish(models.SyncError, "sync cancelled")
			return
		}

		release, err := s.crawler.ExtractRelease(ctx, u)
		if err != nil {
			// One broken page must not sink the run.
			log.Printf("[sync] Extract failed for %s: %v", u, err)
			s.update(func(p *models.SyncProgress) {
				p.CurrentRelease = i + 1
				p.SkippedReleases++
			})
			continue
		}

		s.apply(index, *release)
		s.update(func(p *models.SyncProgress) {
			p.CurrentRelease = i + 1
			p.Message = fmt.Sprintf("Processed %s", release.Title)
		})
	}

	if err := s.cfg.SetLastSyncCheck(time.Now()); err != nil {
		log.Printf("[sync] Could not record sync time: %v", err)
	}

	p := s.Progress()
	s.finish(models.SyncCompleted, fmt.Sprintf(
		"Sync complete: %d new, %d updated, %d skipped",
		p.NewReleases, p.UpdatedReleases, p.SkippedReleases))
}

// apply persists one scraped candidate according to its resolution.
func (s *Service) apply(index *releaseIndex, candidate models.Release) {
	switch res, existing := index.resolve(candidate); res {
	case resolutionNew:
		id, err := s.store.Insert(candidate)
		if err != nil {
			log.Printf("[sync] Insert failed for %s: %v", candidate.Title, err)
			s.update(func(p *models.SyncProgress) { p.SkippedReleases++ })
			return
		}
		candidate.ID = id
		index.record(candidate)
		s.update(func(p *models.SyncProgress) { p.NewReleases++ })
		if s.notifier != nil {
			s.notifier.Broadcast("new_release_added", candidate)
		}
	case resolutionUpdated:
		if _, err := s.store.UpdateByKey(existing.Key(), candidate); err != nil {
			log.Printf("[sync] Update failed for %s: %v", candidate.Title, err)
			s.update(func(p *models.SyncProgress) { p.SkippedReleases++ })
			return
		}
		candidate.ID = existing.ID
		candidate.Status = existing.Status
		index.record(candidate)
		s.update(func(p *models.SyncProgress) { p.UpdatedReleases++ })
	default:
		s.update(func(p *models.SyncProgress) { p.SkippedReleases++ })
	}
}

// update mutates the progress under lock and broadcasts the new snapshot.
func (s *Service) update(fn func(*models.SyncProgress)) {
	s.mu.Lock()
	fn(&s.progress)
	s.mu.Unlock()
	s.broadcast()
}

// finish moves the progress to a terminal state.
func (s *Service) finish(status models.SyncStatus, message string) {
	s.update(func(p *models.SyncProgress) {
		p.Status = status
		p.Message = message
	})
	log.Printf("[sync] %s", message)
}

func (s *Service) broadcast() {
	if s.notifier == nil {
		return
	}
	s.notifier.Broadcast("sync_progress", s.Progress())
}
