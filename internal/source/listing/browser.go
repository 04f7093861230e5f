package listing

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Renderer loads a listing page and returns its HTML after lazy-loaded
// content has settled.
type Renderer interface {
	Render(ctx context.Context, pageURL, itemSelector string) (string, error)
}

// Render defaults.
const (
	defaultPollInterval = 700 * time.Millisecond
	defaultStablePolls  = 2
	defaultScrollBudget = 30 * time.Second
)

// ChromeRenderer drives a headless browser session. After navigation it
// scrolls to the bottom of the page and polls the item count until the
// count is unchanged for StablePolls consecutive polls or the scroll
// budget is spent; whatever has loaded by then is returned.
type ChromeRenderer struct {
	// PollInterval is the delay between scroll-and-count cycles
	PollInterval time.Duration
	// StablePolls is how many consecutive unchanged counts end scrolling
	StablePolls int
	// ScrollBudget caps the total time spent triggering lazy loads
	ScrollBudget time.Duration
	// ExecOptions extends the default Chrome allocator options
	ExecOptions []chromedp.ExecAllocatorOption
}

// NewChromeRenderer creates a renderer with default scroll settings.
func NewChromeRenderer() *ChromeRenderer {
	return &ChromeRenderer{
		PollInterval: defaultPollInterval,
		StablePolls:  defaultStablePolls,
		ScrollBudget: defaultScrollBudget,
	}
}

// Render navigates to pageURL, settles lazy-loaded items matching
// itemSelector, and returns the document HTML. Navigation failures and
// ctx expiry before the first paint are errors; running out of scroll
// budget is not.
func (r *ChromeRenderer) Render(ctx context.Context, pageURL, itemSelector string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], r.ExecOptions...)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
	); err != nil {
		return "", fmt.Errorf("navigate %s: %w", pageURL, err)
	}

	if err := r.settle(browserCtx, itemSelector); err != nil {
		return "", err
	}

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("capture html: %w", err)
	}
	return html, nil
}

// settle scrolls until the item count stabilizes or the budget expires.
func (r *ChromeRenderer) settle(ctx context.Context, itemSelector string) error {
	deadline := time.Now().Add(r.ScrollBudget)
	countExpr := fmt.Sprintf("document.querySelectorAll(%q).length", itemSelector)

	prev := -1
	stable := 0
	for stable < r.StablePolls && time.Now().Before(deadline) {
		var count int
		if err := chromedp.Run(ctx,
			chromedp.Evaluate("window.scrollTo(0, document.body.scrollHeight)", nil),
			chromedp.Sleep(r.PollInterval),
			chromedp.Evaluate(countExpr, &count),
		); err != nil {
			return fmt.Errorf("scroll cycle: %w", err)
		}

		if count == prev {
			stable++
		} else {
			stable = 0
			prev = count
		}
	}
	return nil
}
