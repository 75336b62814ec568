// Package scraper crawls the 1337x FitGirl listing and extracts release
// metadata from detail pages. Field extraction is heuristic: each extractor
// tolerates missing markup and yields an empty value instead of failing the
// candidate, except for the magnet link which is mandatory.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/ravioldev/fitgirl-downloader/config"
)

const (
	defaultBaseURL    = "https://1337x.to"
	defaultListingURL = "https://1337x.to/FitGirl-torrents/"
	defaultProfileURL = "https://1337x.to/user/FitGirl/"
	defaultTimeout    = 30 * time.Second
	defaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ErrNoMagnet marks a detail page without a magnet link. Such candidates are
// discarded: without a magnet there is nothing to download.
var ErrNoMagnet = errors.New("no magnet link found")

// Scraper fetches listing and detail pages from the torrent site. Requests
// are paced through rate limiters so a crawl never hammers the remote host.
type Scraper struct {
	baseURL    string
	listingURL string
	profileURL string
	userAgent  string
	httpClient *http.Client

	pageLimiter   *rate.Limiter
	detailLimiter *rate.Limiter

	// renderer is optional. When direct parsing finds no images it renders
	// the page in a headless browser to trigger lazy loading.
	renderer Renderer

	now func() time.Time
}

// New constructs a scraper from the scraping settings. client may be nil, in
// which case a default client with the configured timeout is used. renderer
// may be nil to disable the browser fallback entirely.
func New(cfg config.ScrapingSettings, client *http.Client, renderer Renderer) *Scraper {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	listingURL := cfg.ListingURL
	if listingURL == "" {
		listingURL = defaultListingURL
	}
	if !strings.HasSuffix(listingURL, "/") {
		listingURL += "/"
	}
	profileURL := cfg.ProfileURL
	if profileURL == "" {
		profileURL = defaultProfileURL
	}
	if !strings.HasSuffix(profileURL, "/") {
		profileURL += "/"
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	pageDelay := cfg.PageDelay
	if pageDelay <= 0 {
		pageDelay = 2 * time.Second
	}
	detailDelay := cfg.DetailDelay
	if detailDelay <= 0 {
		detailDelay = 1 * time.Second
	}

	return &Scraper{
		baseURL:       baseURL,
		listingURL:    listingURL,
		profileURL:    profileURL,
		userAgent:     userAgent,
		httpClient:    client,
		pageLimiter:   rate.NewLimiter(rate.Every(pageDelay), 1),
		detailLimiter: rate.NewLimiter(rate.Every(detailDelay), 1),
		renderer:      renderer,
		now:           time.Now,
	}
}

// FetchPage retrieves one listing page (1-based) and returns the detail-page
// URLs found in its torrent table, in document order. URLs already present in
// seen are skipped and every returned URL is added to seen, so the caller can
// share one set across a whole run. When the listing page carries no torrents,
// the uploader profile page is tried as a second source before the empty
// result is reported. An empty result means the listing ended.
func (s *Scraper) FetchPage(ctx context.Context, page int, seen map[string]struct{}) ([]string, error) {
	if err := s.pageLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	pageURL := fmt.Sprintf("%s%d/", s.listingURL, page)
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}

	links := s.torrentLinks(doc, seen)
	if len(links) == 0 && s.profileURL != "" {
		links, err = s.fetchProfilePage(ctx, page, seen)
		if err != nil {
			log.Printf("[scraper] Profile fallback for page %d failed: %v", page, err)
			return nil, nil
		}
	}

	log.Printf("[scraper] Page %d: %d torrents found", page, len(links))
	return links, nil
}

// fetchProfilePage reads the same torrent table from the uploader's profile
// listing. The profile's first page has no page number in its URL.
func (s *Scraper) fetchProfilePage(ctx context.Context, page int, seen map[string]struct{}) ([]string, error) {
	if err := s.pageLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	pageURL := s.profileURL
	if page > 1 {
		pageURL = fmt.Sprintf("%s%d/", s.profileURL, page)
	}
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch profile page %d: %w", page, err)
	}
	return s.torrentLinks(doc, seen), nil
}

// torrentLinks collects one detail link per table row, absolutized and
// deduplicated against seen.
func (s *Scraper) torrentLinks(doc *goquery.Document, seen map[string]struct{}) []string {
	var links []string
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		row.Find("a[href*='/torrent/']").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, ok := a.Attr("href")
			if !ok || !strings.Contains(href, "/torrent/") {
				return true
			}
			full := s.absoluteURL(href)
			if _, dup := seen[full]; dup {
				return false
			}
			seen[full] = struct{}{}
			links = append(links, full)
			return false // one detail link per row
		})
	})
	return links
}

// fetchDocument GETs a URL and parses the response body as HTML. Any non-2xx
// status is an error: listing and detail pages are useless when truncated.
func (s *Scraper) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// absoluteURL resolves a scraped href against the site base URL.
func (s *Scraper) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return s.baseURL + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return s.baseURL + href
	}
	return base.ResolveReference(ref).String()
}
