package sync

import (
	"github.com/ravioldev/fitgirl-downloader/models"
)

// resolution is the outcome of comparing a scraped candidate against the
// stored catalog.
type resolution int

const (
	resolutionNew resolution = iota
	resolutionUpdated
	resolutionSkipped
)

// releaseIndex answers membership questions about the stored catalog during
// a sync run. It tracks releases by their composite identity and, separately,
// by bare URL for the cheap pre-check that avoids fetching known pages.
type releaseIndex struct {
	byKey map[models.ReleaseKey]models.Release
	urls  map[string]struct{}
}

func newReleaseIndex(releases []models.Release) *releaseIndex {
	idx := &releaseIndex{
		byKey: make(map[models.ReleaseKey]models.Release, len(releases)),
		urls:  make(map[string]struct{}, len(releases)),
	}
	for _, r := range releases {
		idx.record(r)
	}
	return idx
}

// record registers a release under both lookup structures. All mutation goes
// through here so the two stay consistent.
func (idx *releaseIndex) record(r models.Release) {
	idx.byKey[r.Key()] = r
	idx.urls[r.URL] = struct{}{}
}

// knownURL reports whether any stored release already uses this page URL.
func (idx *releaseIndex) knownURL(url string) bool {
	_, ok := idx.urls[url]
	return ok
}

// resolve classifies a scraped candidate. Unseen identities are new. A match
// still in NEW status is updated when its description, size or screenshot
// count changed; otherwise it is skipped. Releases the user has acted on
// (DOWNLOADED, IGNORED) are never touched.
func (idx *releaseIndex) resolve(candidate models.Release) (resolution, models.Release) {
	existing, ok := idx.byKey[candidate.Key()]
	if !ok {
		return resolutionNew, models.Release{}
	}
	if existing.Status != models.StatusNew {
		return resolutionSkipped, existing
	}
	if existing.Description != candidate.Description ||
		existing.Size != candidate.Size ||
		len(existing.ScreenshotURLs) != len(candidate.ScreenshotURLs) {
		return resolutionUpdated, existing
	}
	return resolutionSkipped, existing
}
