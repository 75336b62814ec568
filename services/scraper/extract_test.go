package scraper

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"repack suffix with dash", "Elden Circle - FitGirl Repack", "Elden Circle"},
		{"repack suffix no dash", "Elden Circle FitGirl Repack", "Elden Circle"},
		{"mixed case suffix", "Elden Circle - FITGIRL REPACK", "Elden Circle"},
		{"no suffix", "Elden Circle", "Elden Circle"},
		{"collapses whitespace", "Elden   Circle\t2", "Elden Circle 2"},
		{"special characters kept", "NieR:Automata™ - FitGirl Repack", "NieR:Automata™"},
		{"repack mid-title kept", "FitGirl Repack Tools", "FitGirl Repack Tools"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanTitle(tt.input); got != tt.want {
				t.Errorf("cleanTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractSize(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			"labeled info block",
			`<ul class="torrent-info"><li>Total size: 8.3 GB</li></ul>`,
			"8.3 GB",
		},
		{
			"labeled beats loose tokens",
			`<p>Needs 16 GB RAM</p><ul class="torrent-info"><li>Size: 42 GB</li></ul>`,
			"42 GB",
		},
		{
			"standalone table cell",
			`<table><tr><td>1.2 GB</td><td>other</td></tr></table>`,
			"1.2 GB",
		},
		{
			"lowercase unit normalized",
			`<table><tr><td>900 mb</td></tr></table>`,
			"900 MB",
		},
		{
			"full text scan plausible gb",
			`<p>The download weighs in at 35.7 GB after install.</p>`,
			"35.7 GB",
		},
		{
			"implausible mb skipped",
			`<p>Patch adds 50 MB of fixes and 0.01 GB of textures.</p>`,
			"N/A",
		},
		{
			"implausible tb skipped",
			`<p>My drive holds 20 TB total.</p>`,
			"N/A",
		},
		{
			"nothing found",
			`<p>No size mentioned here.</p>`,
			"N/A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.html)
			if got := extractSize(doc); got != tt.want {
				t.Errorf("extractSize = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractMagnetLink(t *testing.T) {
	t.Run("href anchor", func(t *testing.T) {
		doc := mustParse(t, `<a href="magnet:?xt=urn:btih:abc">Download</a>`)
		if got := extractMagnetLink(doc); got != "magnet:?xt=urn:btih:abc" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("text mention fallback", func(t *testing.T) {
		doc := mustParse(t, `<a href="magnet:?xt=urn:btih:def" class="btn">magnet: link here</a>`)
		if got := extractMagnetLink(doc); got != "magnet:?xt=urn:btih:def" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("absent", func(t *testing.T) {
		doc := mustParse(t, `<a href="/torrent/1/x/">regular link</a>`)
		if got := extractMagnetLink(doc); got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})
}

func TestExtractDescription(t *testing.T) {
	t.Run("text after label", func(t *testing.T) {
		doc := mustParse(t, `<div class="box-info-detail">
			<strong>Description:</strong> An epic journey across ruined lands.
			<strong>Genres/Tags:</strong> RPG</div>`)
		got := extractDescription(findDescriptionRegion(doc))
		if got != "An epic journey across ruined lands." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("empty block falls through to next label", func(t *testing.T) {
		doc := mustParse(t, `<div class="box-info-detail">
			<strong>Description:</strong><strong>Plot:</strong> The story continues here.
			</div>`)
		got := extractDescription(findDescriptionRegion(doc))
		if got != "The story continues here." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("no label", func(t *testing.T) {
		doc := mustParse(t, `<div class="box-info-detail"><strong>Size:</strong> 5 GB</div>`)
		if got := extractDescription(findDescriptionRegion(doc)); got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})
}

func TestShortDescription(t *testing.T) {
	long := strings.Repeat("word ", 100)
	short := shortDescription(long)
	if len(short) > shortDescriptionLimit+3 {
		t.Errorf("short description too long: %d chars", len(short))
	}
	if !strings.HasSuffix(short, "...") {
		t.Errorf("expected ellipsis suffix, got %q", short[len(short)-10:])
	}

	if got := shortDescription("brief"); got != "brief" {
		t.Errorf("short input altered: %q", got)
	}
}

func TestShortDescriptionMultibyte(t *testing.T) {
	// A rune straddling the cut point must never be split into a broken
	// byte sequence.
	long := strings.Repeat("a", shortDescriptionLimit-1) + "™™™"
	short := shortDescription(long)
	if !utf8.ValidString(short) {
		t.Fatalf("truncation produced invalid UTF-8: %q", short)
	}
	if !strings.HasSuffix(short, "™...") {
		t.Errorf("expected the 300th character kept intact, got suffix %q", short[len(short)-10:])
	}

	// Exactly at the limit in characters, over it in bytes: no truncation.
	exact := strings.Repeat("é", shortDescriptionLimit)
	if got := shortDescription(exact); got != exact {
		t.Errorf("character-length input truncated to %d runes", utf8.RuneCountInString(got))
	}
}

func TestExtractGameDetails(t *testing.T) {
	doc := mustParse(t, `<div class="box-info-detail">
Genres/Tags: Action, Adventure
Developer: SoftFrom
Publisher: Bandco
Platform: PC
Engine: Custom
Interface Language: English, French
Audio Language: English
Crack: built-in
</div>`)
	details := extractGameDetails(findDescriptionRegion(doc))

	want := map[string]string{
		"genres":             "Action, Adventure",
		"developer":          "SoftFrom",
		"publisher":          "Bandco",
		"platform":           "PC",
		"engine":             "Custom",
		"interface_language": "English, French",
		"audio_language":     "English",
		"crack":              "built-in",
	}
	for key, wantValue := range want {
		if details[key] != wantValue {
			t.Errorf("details[%q] = %q, want %q", key, details[key], wantValue)
		}
	}
}

func TestExtractGameDetailsCapsLongValues(t *testing.T) {
	doc := mustParse(t, `<div class="box-info-detail">Developer: `+strings.Repeat("x", 200)+"\n</div>")
	details := extractGameDetails(findDescriptionRegion(doc))
	if _, ok := details["developer"]; ok {
		t.Error("oversized value should be dropped")
	}
}
