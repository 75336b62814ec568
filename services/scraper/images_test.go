package scraper

import (
	"testing"
)

func TestExtractImages(t *testing.T) {
	t.Run("cover then screenshots", func(t *testing.T) {
		doc := mustParse(t, `<div class="box-info-detail">
			<img src="https://i.imageban.ru/covers/game.jpg">
			<img src="https://i.riotpixels.net/shots/1.jpg">
			<img src="https://i.riotpixels.net/shots/2.jpg">
		</div>`)
		cover, shots := extractImages(findDescriptionRegion(doc))
		if cover != "https://i.imageban.ru/covers/game.jpg" {
			t.Errorf("cover = %q", cover)
		}
		if len(shots) != 2 {
			t.Errorf("screenshots = %v, want 2", shots)
		}
	})

	t.Run("blocked extensions and hosts", func(t *testing.T) {
		doc := mustParse(t, `<div class="box-info-detail">
			<img src="https://i.imgur.com/icon.svg">
			<img src="https://i.imgur.com/anim.gif">
			<img src="https://fitgirl-repacks.site/banner.jpg">
			<img src="https://cdn.limeiptv.to/ad.jpg">
			<img src="https://example.com/fakes2.jpg">
			<img src="https://i.imgur.com/real.jpg">
		</div>`)
		cover, shots := extractImages(findDescriptionRegion(doc))
		if cover != "https://i.imgur.com/real.jpg" {
			t.Errorf("cover = %q, want the only clean image", cover)
		}
		if len(shots) != 0 {
			t.Errorf("screenshots = %v, want none", shots)
		}
	})

	t.Run("unknown host ignored", func(t *testing.T) {
		doc := mustParse(t, `<div class="box-info-detail">
			<img src="https://random-cdn.example.com/pic.jpg">
		</div>`)
		cover, shots := extractImages(findDescriptionRegion(doc))
		if cover != "" || len(shots) != 0 {
			t.Errorf("got cover=%q shots=%v, want nothing", cover, shots)
		}
	})

	t.Run("screenshot never duplicates cover", func(t *testing.T) {
		doc := mustParse(t, `<div class="box-info-detail">
			<img src="https://i.imgur.com/same.jpg">
			<img src="https://i.imgur.com/same.jpg">
		</div>`)
		cover, shots := extractImages(findDescriptionRegion(doc))
		if cover != "https://i.imgur.com/same.jpg" {
			t.Errorf("cover = %q", cover)
		}
		if len(shots) != 0 {
			t.Errorf("screenshots = %v, want none", shots)
		}
	})

	t.Run("lazy load attribute", func(t *testing.T) {
		doc := mustParse(t, `<div class="box-info-detail">
			<img src="data:image/gif;base64,R0" data-src="https://i.postimg.cc/game.jpg">
		</div>`)
		cover, _ := extractImages(findDescriptionRegion(doc))
		if cover != "https://i.postimg.cc/game.jpg" {
			t.Errorf("cover = %q, want lazy-load source", cover)
		}
	})

	t.Run("spaces in url encoded", func(t *testing.T) {
		doc := mustParse(t, `<div class="box-info-detail">
			<img src="https://i.imgur.com/cool game.jpg">
		</div>`)
		cover, _ := extractImages(findDescriptionRegion(doc))
		if cover != "https://i.imgur.com/cool%20game.jpg" {
			t.Errorf("cover = %q", cover)
		}
	})
}
