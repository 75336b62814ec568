package scraper

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/avast/retry-go/v4"

	"github.com/ravioldev/fitgirl-downloader/utils"
)

// coverHosts are the image hosts the repack pages use for cover art.
var coverHosts = []string{
	"imageban.ru",
	"imgur.com",
	"postimg.cc",
	"imgbb.com",
	"fastpic.ru",
}

// screenshotHosts additionally accepts the gallery host used for in-game shots.
var screenshotHosts = append([]string{"riotpixels.net"}, coverHosts...)

// imageBlocklist rejects icons, spinners and decoys regardless of host.
var imageBlocklist = []string{
	".svg",
	".gif",
	"profile-load",
	"fakes2.jpg",
	"fitgirl-repacks.site",
	"limeiptv.to",
}

// extractImages walks the img tags in the description region and splits them
// into one cover and the screenshots. The first acceptable image is the
// cover; screenshots must come from a screenshot host and differ from it.
func extractImages(region *goquery.Selection) (cover string, screenshots []string) {
	region.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := imageSource(img)
		if src == "" || blockedImage(src) {
			return
		}
		if cover == "" && hostedOn(src, coverHosts) {
			cover = src
			return
		}
		if src != cover && hostedOn(src, screenshotHosts) && !contains(screenshots, src) {
			screenshots = append(screenshots, src)
		}
	})
	return cover, screenshots
}

// imageSource prefers the live src but falls back to the lazy-load
// attributes the page templates use before scripts run. Some hosts emit
// URLs with raw spaces, which break when handed to the browser.
func imageSource(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-original"} {
		v := strings.TrimSpace(img.AttrOr(attr, ""))
		if v == "" || strings.HasPrefix(v, "data:") {
			continue
		}
		if encoded, err := utils.EncodeImageURL(v); err == nil {
			return encoded
		}
		return v
	}
	return ""
}

func blockedImage(src string) bool {
	lower := strings.ToLower(src)
	for _, blocked := range imageBlocklist {
		if strings.Contains(lower, blocked) {
			return true
		}
	}
	return false
}

func hostedOn(src string, hosts []string) bool {
	lower := strings.ToLower(src)
	for _, host := range hosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// renderImages re-fetches the page through a real browser so lazy-loaded
// images populate, then runs the same filters on the rendered markup.
func (s *Scraper) renderImages(ctx context.Context, pageURL string) (cover string, screenshots []string) {
	err := retry.Do(
		func() error {
			rendered, err := s.renderer.Render(ctx, pageURL)
			if err != nil {
				return err
			}
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
			if err != nil {
				return err
			}
			region := findDescriptionRegion(doc)
			if region == nil {
				region = doc.Selection
			}
			cover, screenshots = extractImages(region)
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(3*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.Printf("[scraper] Browser render failed for %s: %v", pageURL, err)
		return "", nil
	}
	return cover, screenshots
}
