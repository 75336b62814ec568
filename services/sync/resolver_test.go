package sync

import (
	"testing"

	"github.com/ravioldev/fitgirl-downloader/models"
)

func stored(url, magnet string, status models.ReleaseStatus) models.Release {
	return models.Release{
		URL:            url,
		MagnetLink:     magnet,
		Description:    "original description",
		Size:           "10 GB",
		ScreenshotURLs: []string{"a", "b"},
		Status:         status,
	}
}

func TestResolve(t *testing.T) {
	base := stored("https://x/torrent/1/", "magnet:?xt=1", models.StatusNew)

	tests := []struct {
		name      string
		existing  []models.Release
		candidate models.Release
		want      resolution
	}{
		{
			"unseen identity is new",
			nil,
			stored("https://x/torrent/1/", "magnet:?xt=1", models.StatusNew),
			resolutionNew,
		},
		{
			"same url different magnet is new",
			[]models.Release{base},
			stored("https://x/torrent/1/", "magnet:?xt=2", models.StatusNew),
			resolutionNew,
		},
		{
			"new status with changed description updates",
			[]models.Release{base},
			func() models.Release {
				c := base
				c.Description = "richer description"
				return c
			}(),
			resolutionUpdated,
		},
		{
			"new status with changed size updates",
			[]models.Release{base},
			func() models.Release {
				c := base
				c.Size = "12 GB"
				return c
			}(),
			resolutionUpdated,
		},
		{
			"new status with more screenshots updates",
			[]models.Release{base},
			func() models.Release {
				c := base
				c.ScreenshotURLs = []string{"a", "b", "c"}
				return c
			}(),
			resolutionUpdated,
		},
		{
			"new status unchanged skips",
			[]models.Release{base},
			base,
			resolutionSkipped,
		},
		{
			"downloaded never updated",
			[]models.Release{stored("https://x/torrent/1/", "magnet:?xt=1", models.StatusDownloaded)},
			func() models.Release {
				c := base
				c.Description = "totally different"
				return c
			}(),
			resolutionSkipped,
		},
		{
			"ignored never updated",
			[]models.Release{stored("https://x/torrent/1/", "magnet:?xt=1", models.StatusIgnored)},
			func() models.Release {
				c := base
				c.Size = "99 GB"
				return c
			}(),
			resolutionSkipped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := newReleaseIndex(tt.existing)
			got, _ := idx.resolve(tt.candidate)
			if got != tt.want {
				t.Errorf("resolve = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveMissingMagnetSharesIdentity(t *testing.T) {
	// A release stored without a magnet and a candidate without one must
	// hash to the same identity.
	existing := stored("https://x/torrent/2/", "", models.StatusNew)
	idx := newReleaseIndex([]models.Release{existing})

	candidate := existing
	if got, _ := idx.resolve(candidate); got != resolutionSkipped {
		t.Errorf("resolve = %v, want skipped", got)
	}
}

func TestKnownURL(t *testing.T) {
	idx := newReleaseIndex([]models.Release{stored("https://x/torrent/1/", "magnet:?xt=1", models.StatusNew)})
	if !idx.knownURL("https://x/torrent/1/") {
		t.Error("stored url should be known")
	}
	if idx.knownURL("https://x/torrent/2/") {
		t.Error("unseen url should not be known")
	}
}

func TestRecordKeepsStructuresConsistent(t *testing.T) {
	idx := newReleaseIndex(nil)
	r := stored("https://x/torrent/5/", "magnet:?xt=5", models.StatusNew)
	idx.record(r)

	if !idx.knownURL(r.URL) {
		t.Error("recorded url not in url set")
	}
	if got, _ := idx.resolve(r); got != resolutionSkipped {
		t.Errorf("recorded release resolves as %v, want skipped", got)
	}
}
