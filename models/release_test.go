package models

import "testing"

func TestParseReleaseStatus(t *testing.T) {
	tests := []struct {
		input string
		want  ReleaseStatus
		ok    bool
	}{
		{"NEW", StatusNew, true},
		{"downloaded", StatusDownloaded, true},
		{" Ignored ", StatusIgnored, true},
		{"", StatusNew, false},
		{"pending", StatusNew, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseReleaseStatus(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseReleaseStatus(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestReleaseKeyUsesSentinelForMissingMagnet(t *testing.T) {
	withMagnet := Release{URL: "https://x/1/", MagnetLink: "magnet:?xt=1"}
	without := Release{URL: "https://x/1/"}

	if withMagnet.Key() == without.Key() {
		t.Error("magnet and no-magnet releases share an identity")
	}
	if without.Key().Magnet != NoMagnetSentinel {
		t.Errorf("missing magnet key = %q", without.Key().Magnet)
	}

	other := Release{URL: "https://x/1/"}
	if without.Key() != other.Key() {
		t.Error("two no-magnet releases with same url should share identity")
	}
}

func TestStatusColorAndText(t *testing.T) {
	if StatusNew.Color() != "#FFA500" || StatusNew.Text() != "New" {
		t.Errorf("NEW: %s %s", StatusNew.Color(), StatusNew.Text())
	}
	if StatusDownloaded.Color() != "#32CD32" {
		t.Errorf("DOWNLOADED color = %s", StatusDownloaded.Color())
	}
	if ReleaseStatus("??").Color() != "#808080" {
		t.Errorf("unknown color = %s", ReleaseStatus("??").Color())
	}
}

func TestImageCount(t *testing.T) {
	r := Release{CoverImageURL: "c", ScreenshotURLs: []string{"a", "b"}}
	if r.ImageCount() != 3 {
		t.Errorf("ImageCount = %d", r.ImageCount())
	}
	if (&Release{}).ImageCount() != 0 {
		t.Errorf("empty ImageCount = %d", (&Release{}).ImageCount())
	}
}
