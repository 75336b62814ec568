package scraper

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func TestParseRelativeDate(t *testing.T) {
	ref := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"seconds long form", "30 seconds ago", ref.Add(-30 * time.Second), true},
		{"minutes long form", "5 minutes ago", ref.Add(-5 * time.Minute), true},
		{"single hour", "1 hour ago", ref.Add(-time.Hour), true},
		{"days", "3 days ago", ref.Add(-3 * 24 * time.Hour), true},
		{"weeks", "2 weeks ago", ref.Add(-14 * 24 * time.Hour), true},
		{"months approximate", "1 month ago", ref.Add(-30 * 24 * time.Hour), true},
		{"years approximate", "2 years ago", ref.Add(-2 * 365 * 24 * time.Hour), true},
		{"short hours", "4hrs ago", ref.Add(-4 * time.Hour), true},
		{"short hr", "1hr ago", ref.Add(-time.Hour), true},
		{"short minutes", "12min ago", ref.Add(-12 * time.Minute), true},
		{"short seconds", "45sec ago", ref.Add(-45 * time.Second), true},
		{"short days", "6d ago", ref.Add(-6 * 24 * time.Hour), true},
		{"short months", "3mo ago", ref.Add(-90 * 24 * time.Hour), true},
		{"short years", "1y ago", ref.Add(-365 * 24 * time.Hour), true},
		{"mixed case", "2 Hours Ago", ref.Add(-2 * time.Hour), true},
		{"embedded in text", "uploaded 7 days ago by someone", ref.Add(-7 * 24 * time.Hour), true},
		{"absolute date rejected", "Jan 15, 2026", time.Time{}, false},
		{"empty", "", time.Time{}, false},
		{"no amount", "days ago", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseRelativeDate(tt.input, ref)
			if ok != tt.ok {
				t.Fatalf("parseRelativeDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("parseRelativeDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractPublishDate(t *testing.T) {
	ref := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	s := New(testScrapingSettings(), nil, nil)
	s.now = func() time.Time { return ref }

	t.Run("date uploaded list item", func(t *testing.T) {
		doc := mustParse(t, `<ul><li><strong>Date uploaded</strong><span>2 days ago</span></li></ul>`)
		got := s.extractPublishDate(doc)
		if got == nil {
			t.Fatal("expected a publish date")
		}
		want := ref.Add(-2 * 24 * time.Hour)
		if !got.Equal(want) {
			t.Errorf("publish date = %v, want %v", got, want)
		}
	})

	t.Run("missing field", func(t *testing.T) {
		doc := mustParse(t, `<ul><li><strong>Seeders</strong><span>120</span></li></ul>`)
		if got := s.extractPublishDate(doc); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("unparseable value", func(t *testing.T) {
		doc := mustParse(t, `<ul><li><strong>Date uploaded</strong><span>soon</span></li></ul>`)
		if got := s.extractPublishDate(doc); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})
}

func TestExtractGameReleaseDate(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string // "2006-01-02", empty means nil expected
	}{
		{"full month", `<div class="box-info-detail">Release Date: March 10, 2025</div>`, "2025-03-10"},
		{"released label", `<div class="box-info-detail">Released: 2024-11-05</div>`, "2024-11-05"},
		{"day first", `<div class="box-info-detail">Launch Date: 5 November 2024</div>`, "2024-11-05"},
		{"year only", `<div class="box-info-detail">Original Release: 2019</div>`, "2019-01-01"},
		{"month and year", `<div class="box-info-detail">Game Release: January 2023</div>`, "2023-01-01"},
		{"trailing parenthetical", `<div class="box-info-detail">Release Date: March 10, 2025 (updated)</div>`, "2025-03-10"},
		{"no label", `<div class="box-info-detail">Some description text</div>`, ""},
		{"garbage value", `<div class="box-info-detail">Release Date: TBA</div>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.html)
			region := findDescriptionRegion(doc)
			if region == nil {
				t.Fatal("description region not found")
			}
			got := extractGameReleaseDate(region)
			if tt.want == "" {
				if got != nil {
					t.Errorf("expected nil, got %v", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected %s, got nil", tt.want)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("got %s, want %s", got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func mustParse(t *testing.T, fragment string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + fragment + "</body></html>"))
	if err != nil {
		t.Fatalf("parse fragment: %v", err)
	}
	return doc
}
