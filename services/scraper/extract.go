package scraper

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ravioldev/fitgirl-downloader/models"
)

const shortDescriptionLimit = 300

// descriptionSelectors are tried in order to locate the block that holds the
// game description on a detail page. The site has shipped several layouts.
var descriptionSelectors = []string{
	"div.torrent-detail-page",
	"div.box-info-detail",
	"div.tab-pane.active",
	"div.tab-content div",
	"div#description",
	"div.description",
}

// ExtractRelease fetches a detail page and builds a release candidate from
// it. Every field extractor is individually fault-tolerant; only a missing
// magnet link fails the whole candidate (ErrNoMagnet).
func (s *Scraper) ExtractRelease(ctx context.Context, detailURL string) (*models.Release, error) {
	if err := s.detailLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	doc, err := s.fetchDocument(ctx, detailURL)
	if err != nil {
		return nil, fmt.Errorf("fetch detail %s: %w", detailURL, err)
	}

	title := s.extractTitle(doc)

	magnet := extractMagnetLink(doc)
	if magnet == "" {
		return nil, fmt.Errorf("%s: %w", title, ErrNoMagnet)
	}

	size := extractSize(doc)

	release := &models.Release{
		URL:        detailURL,
		Title:      title,
		MagnetLink: magnet,
		Size:       size,
		Status:     models.StatusNew,
	}

	region := findDescriptionRegion(doc)
	if region != nil {
		description := extractDescription(region)
		release.Description = description
		release.ShortDescription = shortDescription(description)

		release.CoverImageURL, release.ScreenshotURLs = extractImages(region)
		if release.CoverImageURL == "" && len(release.ScreenshotURLs) == 0 && s.renderer != nil {
			// Lazy-loaded images need a real browser to show up.
			release.CoverImageURL, release.ScreenshotURLs = s.renderImages(ctx, detailURL)
		}

		release.Details = extractGameDetails(region)
		release.GameReleaseDate = extractGameReleaseDate(region)
	} else {
		log.Printf("[scraper] No description region found for %s", title)
	}

	release.PublishDate = s.extractPublishDate(doc)
	if release.PublishDate == nil {
		// Last resort. The fabricated timestamp keeps the release sortable
		// but should be reviewed manually.
		now := s.now()
		release.PublishDate = &now
		log.Printf("[scraper] No upload date for %s, falling back to current time", title)
	}

	return release, nil
}

// extractTitle prefers the <title> tag, stripped of the site's boilerplate,
// and falls back to the first heading.
func (s *Scraper) extractTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title != "" {
		title = strings.TrimPrefix(title, "Download ")
		if idx := strings.Index(title, " Torrent | 1337x"); idx >= 0 {
			title = title[:idx]
		}
		return cleanTitle(title)
	}
	return cleanTitle(strings.TrimSpace(doc.Find("h1").First().Text()))
}

var (
	repackSuffixRe = regexp.MustCompile(`(?i)\s*-?\s*FitGirl\s*Repack\s*$`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// cleanTitle drops the trailing repack marker and collapses whitespace.
// Special characters in game titles are kept as-is.
func cleanTitle(title string) string {
	title = repackSuffixRe.ReplaceAllString(title, "")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(title, " "))
}

// extractMagnetLink finds the first magnet anchor. As a fallback it checks
// text nodes mentioning "magnet:" and inspects their enclosing anchor.
func extractMagnetLink(doc *goquery.Document) string {
	if href, ok := doc.Find("a[href^='magnet:']").First().Attr("href"); ok {
		return href
	}

	magnet := ""
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(a.Text()), "magnet:") {
			return true
		}
		href := a.AttrOr("href", "")
		if strings.HasPrefix(href, "magnet:") {
			magnet = href
			return false
		}
		return true
	})
	return magnet
}

var (
	labeledSizeRe    = regexp.MustCompile(`(?i)(?:Total\s+size|File\s+size|Size)\s*:?\s*(\d+(?:\.\d+)?\s*[KMGT]B)`)
	cellSizeRe       = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?\s*[KMGT]B)$`)
	sizeTokenRe      = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*([KMGT]B)`)
	looseSizeTokenRe = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*[GMT]B`)
)

// extractSize locates the torrent size through three fallbacks: a labeled
// field in the info blocks, a standalone size token in a table cell, and
// finally a full-text scan filtered to plausible full-game sizes.
func extractSize(doc *goquery.Document) string {
	// Labeled field inside structured info blocks.
	infoBlocks := doc.Find("table.torrent-info, ul.torrent-info, div.torrent-info, table.list, ul.list, div.list, table.info-table, ul.info-table, div.info-table")
	size := ""
	infoBlocks.EachWithBreak(func(_ int, block *goquery.Selection) bool {
		if m := labeledSizeRe.FindStringSubmatch(block.Text()); m != nil {
			size = normalizeSize(m[1])
			return false
		}
		return true
	})
	if size != "" {
		return size
	}

	// A cell that holds nothing but a size token.
	doc.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		if m := cellSizeRe.FindStringSubmatch(strings.TrimSpace(td.Text())); m != nil {
			size = normalizeSize(m[1])
			return false
		}
		return true
	})
	if size != "" {
		return size
	}

	// Full-text scan. The labeled pattern runs first so that e.g. a patch
	// note mentioning "500 MB" never shadows a proper "Total size" field.
	pageText := doc.Text()
	if m := labeledSizeRe.FindStringSubmatch(pageText); m != nil {
		if plausible, ok := plausibleGameSize(m[1]); ok {
			return plausible
		}
	}
	for _, token := range looseSizeTokenRe.FindAllString(pageText, -1) {
		if plausible, ok := plausibleGameSize(token); ok {
			return plausible
		}
	}
	return "N/A"
}

// plausibleGameSize filters out size tokens that cannot be a full game:
// memory requirements, patch sizes and similar incidental mentions.
func plausibleGameSize(token string) (string, bool) {
	m := sizeTokenRe.FindStringSubmatch(token)
	if m == nil {
		return "", false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return "", false
	}
	unit := strings.ToUpper(m[2])
	switch unit {
	case "GB":
		if value >= 0.1 && value <= 100 {
			return fmt.Sprintf("%g %s", value, unit), true
		}
	case "MB":
		if value >= 100 && value <= 20000 {
			return fmt.Sprintf("%g %s", value, unit), true
		}
	case "TB":
		if value >= 0.5 && value <= 10 {
			return fmt.Sprintf("%g %s", value, unit), true
		}
	}
	return "", false
}

// normalizeSize uppercases the unit and ensures one space before it.
func normalizeSize(token string) string {
	m := sizeTokenRe.FindStringSubmatch(token)
	if m == nil {
		return strings.TrimSpace(token)
	}
	return m[1] + " " + strings.ToUpper(m[2])
}

// findDescriptionRegion returns the first matching description block, or nil.
func findDescriptionRegion(doc *goquery.Document) *goquery.Selection {
	for _, selector := range descriptionSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

var descriptionLabelRe = regexp.MustCompile(`(?i)Description\s*:`)

// extractDescription captures the text between the "Description:" label and
// the next same-level label. Some page templates leave that block empty and
// put the synopsis under the following label instead, so an empty capture
// falls through to the content after the next label.
func extractDescription(region *goquery.Selection) string {
	var labelNode *html.Node
	region.Find("strong").EachWithBreak(func(_ int, strong *goquery.Selection) bool {
		if descriptionLabelRe.MatchString(strong.Text()) {
			labelNode = strong.Nodes[0]
			return false
		}
		return true
	})
	if labelNode == nil {
		return ""
	}

	text := normalizeWhitespace(captureUntilNextLabel(labelNode))
	if text != "" {
		return text
	}

	if next := nextLabelSibling(labelNode); next != nil {
		return normalizeWhitespace(captureUntilNextLabel(next))
	}
	return ""
}

// captureUntilNextLabel concatenates the text of every sibling following the
// given node, stopping at the next <strong> label.
func captureUntilNextLabel(label *html.Node) string {
	var b strings.Builder
	for n := label.NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.Data == "strong" {
			break
		}
		b.WriteString(nodeText(n))
	}
	return b.String()
}

// nextLabelSibling finds the next <strong> element at the same level.
func nextLabelSibling(label *html.Node) *html.Node {
	for n := label.NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.Data == "strong" {
			return n
		}
	}
	return nil
}

// nodeText renders the full text content of a node subtree.
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// shortDescription truncates to the UI card length, marking the cut. The
// limit counts characters, not bytes, so multi-byte text is never split
// mid-rune.
func shortDescription(description string) string {
	runes := []rune(description)
	if len(runes) <= shortDescriptionLimit {
		return description
	}
	return strings.TrimSpace(string(runes[:shortDescriptionLimit])) + "..."
}

const maxDetailValueLen = 150

// detailPatterns extract the labeled technical fields from the description
// text. Each pattern stops at the label that usually follows it.
var detailPatterns = []struct {
	key string
	re  *regexp.Regexp
}{
	{"genres", regexp.MustCompile(`(?is)Genres/Tags:\s*([^\r\n]+?)(?:\r|\n|Developer:)`)},
	{"developer", regexp.MustCompile(`(?is)Developer:\s*([^\r\n]+?)(?:\r|\n|Publisher:)`)},
	{"publisher", regexp.MustCompile(`(?is)Publisher:\s*([^\r\n]+?)(?:\r|\n|Platform:)`)},
	{"platform", regexp.MustCompile(`(?is)Platform:\s*([^\r\n]+?)(?:\r|\n|Engine:)`)},
	{"engine", regexp.MustCompile(`(?is)Engine:\s*([^\r\n]+?)(?:\r|\n|Steam User Rating:|Interface Language:)`)},
	{"interface_language", regexp.MustCompile(`(?is)Interface Language:\s*([^\r\n]+?)(?:\r|\n|Audio Language:)`)},
	{"audio_language", regexp.MustCompile(`(?is)Audio Language:\s*([^\r\n]+?)(?:\r|\n|Crack:)`)},
	{"crack", regexp.MustCompile(`(?is)Crack:\s*([^\r\n]+?)(?:\r|\n|Minimum requirements:)`)},
	{"steam_rating", regexp.MustCompile(`(?is)Steam User Rating:\s*([^\r\n]+?)(?:\r|\n|Interface Language:)`)},
}

// extractGameDetails pulls the labeled technical fields out of the
// description region. Missing or oversized values are silently omitted.
func extractGameDetails(region *goquery.Selection) map[string]string {
	text := region.Text()
	details := make(map[string]string)
	for _, p := range detailPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := normalizeWhitespace(strings.SplitN(m[1], "\n", 2)[0])
		if value == "" || utf8.RuneCountInString(value) > maxDetailValueLen {
			continue
		}
		details[p.key] = value
	}
	if len(details) == 0 {
		return nil
	}
	return details
}
