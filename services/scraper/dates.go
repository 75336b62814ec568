package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	longRelativeRe  = regexp.MustCompile(`(?i)(\d+)\s+(second|minute|hour|day|week|month|year)s?\s+ago`)
	shortRelativeRe = regexp.MustCompile(`(?i)(\d+)\s*(sec|min|hrs|hr|h|d|w|mo|y)\s+ago`)
)

// parseRelativeDate converts a human relative timestamp like "3 days ago" or
// "2hrs ago" into an absolute time anchored at ref. Months and years use the
// 30/365-day approximation the listing itself rounds to.
func parseRelativeDate(text string, ref time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)

	unit := ""
	amount := 0
	if m := longRelativeRe.FindStringSubmatch(text); m != nil {
		amount, _ = strconv.Atoi(m[1])
		unit = strings.ToLower(m[2])
	} else if m := shortRelativeRe.FindStringSubmatch(text); m != nil {
		amount, _ = strconv.Atoi(m[1])
		switch strings.ToLower(m[2]) {
		case "sec":
			unit = "second"
		case "min":
			unit = "minute"
		case "hr", "hrs", "h":
			unit = "hour"
		case "d":
			unit = "day"
		case "w":
			unit = "week"
		case "mo":
			unit = "month"
		case "y":
			unit = "year"
		}
	}
	if unit == "" {
		return time.Time{}, false
	}

	d := time.Duration(amount)
	switch unit {
	case "second":
		d *= time.Second
	case "minute":
		d *= time.Minute
	case "hour":
		d *= time.Hour
	case "day":
		d *= 24 * time.Hour
	case "week":
		d *= 7 * 24 * time.Hour
	case "month":
		d *= 30 * 24 * time.Hour
	case "year":
		d *= 365 * 24 * time.Hour
	}
	return ref.Add(-d), true
}

// extractPublishDate reads the "Date uploaded" field from the torrent info
// list. The value is a relative timestamp in a span next to the label.
func (s *Scraper) extractPublishDate(doc *goquery.Document) *time.Time {
	var result *time.Time
	doc.Find("strong").EachWithBreak(func(_ int, strong *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(strong.Text()), "Date uploaded") {
			return true
		}
		item := strong.Closest("li")
		if item.Length() == 0 {
			item = strong.Parent()
		}
		value := strings.TrimSpace(item.Find("span").First().Text())
		if value == "" {
			value = strings.TrimSpace(strings.TrimPrefix(item.Text(), strong.Text()))
		}
		if t, ok := parseRelativeDate(value, s.now()); ok {
			result = &t
		}
		return false
	})
	return result
}

// gameReleaseLabels are the phrasings under which the description block
// announces the game's original release date.
var gameReleaseLabels = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Release\s+Date:\s*([^\r\n]+)`),
	regexp.MustCompile(`(?i)Released:\s*([^\r\n]+)`),
	regexp.MustCompile(`(?i)Launch\s+Date:\s*([^\r\n]+)`),
	regexp.MustCompile(`(?i)Game\s+Release:\s*([^\r\n]+)`),
	regexp.MustCompile(`(?i)Original\s+Release:\s*([^\r\n]+)`),
	regexp.MustCompile(`(?i)First\s+Released:\s*([^\r\n]+)`),
}

// gameReleaseLayouts are tried in order against the captured value. Day-first
// comes before month-first for the ambiguous slash format since the site's
// audience is predominantly European.
var gameReleaseLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"January 2006",
	"Jan 2006",
	"2006",
}

// extractGameReleaseDate looks for a labeled release date in the description
// region and parses it against the known date formats.
func extractGameReleaseDate(region *goquery.Selection) *time.Time {
	text := region.Text()
	for _, label := range gameReleaseLabels {
		m := label.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := normalizeWhitespace(m[1])
		// Trim trailing prose after the date proper.
		if idx := strings.IndexAny(value, "(["); idx > 0 {
			value = strings.TrimSpace(value[:idx])
		}
		for _, layout := range gameReleaseLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return &t
			}
		}
	}
	return nil
}
