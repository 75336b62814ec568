package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Renderer loads a page in a scripted environment and returns the final
// markup. Detail pages lazy-load their screenshots, so the plain HTTP fetch
// misses them.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

// ChromeRenderer drives a headless Chrome instance shared across renders.
type ChromeRenderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromeRenderer starts the browser allocator. The browser process itself
// launches lazily on first render.
func NewChromeRenderer() *ChromeRenderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromeRenderer{allocCtx: allocCtx, allocCancel: allocCancel}
}

// Render navigates to the page, scrolls through it so lazy images load, and
// returns the resulting document markup.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(r.allocCtx)
	defer cancel()

	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, 60*time.Second)
	defer timeoutCancel()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	defer close(done)

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}
	// Stepwise scroll to the bottom and back. Scrolling in one jump leaves
	// mid-page images unloaded.
	for i := 0; i < 8; i++ {
		actions = append(actions,
			chromedp.Evaluate(`window.scrollBy(0, 400)`, nil),
			chromedp.Sleep(300*time.Millisecond),
		)
	}
	actions = append(actions,
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(time.Second),
		chromedp.Evaluate(`window.scrollTo(0, 0)`, nil),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Evaluate(`document.querySelectorAll('img').forEach(img => img.scrollIntoView({block: 'center'}))`, nil),
		chromedp.Sleep(time.Second),
	)

	var markup string
	actions = append(actions, chromedp.OuterHTML("html", &markup))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return markup, nil
}

// Close shuts down the browser process.
func (r *ChromeRenderer) Close() error {
	r.allocCancel()
	return nil
}
