// Package browser drives a headless Chrome over a gallery page: it scrolls
// until infinite loading stops producing cards, reads the cards back and
// exercises the scroll-top button.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"leomaster/gallery"
	"leomaster/models"
	"leomaster/scrolltop"
	"leomaster/utils"
)

// topCheckOffset is where the scroll-top button is checked.
const topCheckOffset = 500

// Options configures a crawl.
type Options struct {
	MaxIdleScrolls int           // scrolls without new cards before stopping
	ScrollDelayMs  int           // minimum spacing between scrolls
	Timeout        time.Duration // whole crawl
	MaxRetries     int           // navigation attempts
	RetryBase      time.Duration
	Headless       bool
}

// TopCheck is the outcome of exercising the scroll-top button.
type TopCheck struct {
	Offset         float64 // offset the page was scrolled to
	Expected       string  // class the button should carry there
	Actual         string  // class it carried
	OffsetAfterTop float64
}

// OK reports whether the button showed as expected and brought the page
// back to the top.
func (c TopCheck) OK() bool {
	return c.Expected == c.Actual && c.OffsetAfterTop == 0
}

// CrawlResult is what one crawl collected.
type CrawlResult struct {
	Cards   []models.Card
	Scrolls int
	Top     TopCheck
}

// GalleryScraper crawls gallery pages with chromedp.
type GalleryScraper struct {
	opts        Options
	logger      zerolog.Logger
	rateLimiter *utils.RateLimiter
}

// NewGalleryScraper creates a new GalleryScraper
func NewGalleryScraper(opts Options, logger zerolog.Logger) *GalleryScraper {
	if opts.MaxIdleScrolls <= 0 {
		opts.MaxIdleScrolls = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	return &GalleryScraper{
		opts:        opts,
		logger:      logger,
		rateLimiter: utils.NewRateLimiter(opts.ScrollDelayMs),
	}
}

// newContext creates a fresh chromedp context (one browser, one tab)
func (s *GalleryScraper) newContext(parent context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("log-level", "3"),
		chromedp.WindowSize(1280, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}
	return ctx, cancel
}

type pageMetrics struct {
	ScrollTop      float64 `json:"scrollTop"`
	WindowHeight   float64 `json:"windowHeight"`
	DocumentHeight float64 `json:"documentHeight"`
	Items          int     `json:"items"`
}

func (m pageMetrics) viewport() gallery.Viewport {
	return gallery.Viewport{
		ScrollTop:      m.ScrollTop,
		WindowHeight:   m.WindowHeight,
		DocumentHeight: m.DocumentHeight,
	}
}

const metricsJS = `({
	scrollTop: window.pageYOffset,
	windowHeight: window.innerHeight,
	documentHeight: document.documentElement.scrollHeight,
	items: document.querySelectorAll('.grid-container .grid-item').length
})`

const loaderIdleJS = `(function() {
	var el = document.querySelector('.loader');
	return !el || el.classList.contains('hidden');
})()`

// Crawl loads pageURL and scrolls until the grid stops growing.
func (s *GalleryScraper) Crawl(ctx context.Context, pageURL string) (*CrawlResult, error) {
	s.logger.Info().Str("url", pageURL).Msg("starting crawl")

	ctx, cancel := s.newContext(ctx)
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancelTimeout()

	err := utils.RetryWithBackoff(ctx, s.opts.MaxRetries, s.opts.RetryBase, func() error {
		return chromedp.Run(ctx,
			chromedp.Navigate(pageURL),
			chromedp.WaitReady(".grid-container", chromedp.ByQuery),
		)
	}, s.logger)
	if err != nil {
		return nil, fmt.Errorf("open gallery page: %w", err)
	}

	result := &CrawlResult{}
	if err := s.scrollToEnd(ctx, result); err != nil {
		return nil, err
	}

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML(".grid-container", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}
	result.Cards, err = ParseCards(html, time.Now())
	if err != nil {
		return nil, err
	}

	result.Top, err = s.checkTop(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("cards", len(result.Cards)).
		Int("scrolls", result.Scrolls).
		Bool("top_ok", result.Top.OK()).
		Msg("crawl complete")
	return result, nil
}

// PageHTML loads pageURL, waits for waitSelector to be ready and returns
// the rendered document.
func (s *GalleryScraper) PageHTML(ctx context.Context, pageURL, waitSelector string) (string, error) {
	s.logger.Info().Str("url", pageURL).Msg("fetching rendered page")

	ctx, cancel := s.newContext(ctx)
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancelTimeout()

	var html string
	err := utils.RetryWithBackoff(ctx, s.opts.MaxRetries, s.opts.RetryBase, func() error {
		return chromedp.Run(ctx,
			chromedp.Navigate(pageURL),
			chromedp.WaitReady(waitSelector, chromedp.ByQuery),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
	}, s.logger)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", pageURL, err)
	}
	return html, nil
}

// scrollToEnd scrolls to the bottom, waits for the page's loader to go
// idle and repeats until MaxIdleScrolls scrolls add no cards.
func (s *GalleryScraper) scrollToEnd(ctx context.Context, result *CrawlResult) error {
	var m pageMetrics
	if err := chromedp.Run(ctx, chromedp.Evaluate(metricsJS, &m)); err != nil {
		return fmt.Errorf("read page metrics: %w", err)
	}

	idle := 0
	for idle < s.opts.MaxIdleScrolls {
		if err := s.rateLimiter.Wait(ctx); err != nil {
			return err
		}

		before := m.Items
		if !gallery.NearBottom(m.viewport()) {
			if err := chromedp.Run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.documentElement.scrollHeight)`, nil)); err != nil {
				return fmt.Errorf("scroll: %w", err)
			}
		} else {
			// already at the bottom; nudge to fire another scroll event
			if err := chromedp.Run(ctx, chromedp.Evaluate(`window.scrollBy(0, -1); window.scrollBy(0, 1)`, nil)); err != nil {
				return fmt.Errorf("scroll: %w", err)
			}
		}
		result.Scrolls++

		var idleLoader bool
		if err := chromedp.Run(ctx, chromedp.Poll(loaderIdleJS, &idleLoader, chromedp.WithPollingTimeout(30*time.Second))); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			s.logger.Warn().Err(err).Msg("loader did not settle")
		}

		if err := chromedp.Run(ctx, chromedp.Evaluate(metricsJS, &m)); err != nil {
			return fmt.Errorf("read page metrics: %w", err)
		}

		if m.Items > before {
			idle = 0
			s.logger.Debug().Int("items", m.Items).Msg("grid grew")
		} else {
			idle++
		}
	}
	return nil
}

// checkTop scrolls to topCheckOffset, compares the button class with the
// toggle rule and presses the button.
func (s *GalleryScraper) checkTop(ctx context.Context) (TopCheck, error) {
	view := &pageView{ctx: ctx}
	button := &pageButton{ctx: ctx}
	toggle := scrolltop.New(view, button)

	if err := chromedp.Run(ctx,
		chromedp.Evaluate(fmt.Sprintf(`window.scrollTo(0, %d)`, topCheckOffset), nil),
		chromedp.Sleep(200*time.Millisecond),
	); err != nil {
		return TopCheck{}, fmt.Errorf("scroll to check offset: %w", err)
	}

	check := TopCheck{}
	body, doc := view.ScrollOffsets()
	check.Offset = max(body, doc)
	check.Expected = toggle.OnScroll()
	check.Actual = button.observed
	if check.Offset == topCheckOffset && check.Expected != scrolltop.ClassFor(topCheckOffset) {
		s.logger.Warn().Str("expected", check.Expected).Msg("toggle rule disagrees at check offset")
	}

	toggle.Top()
	if err := chromedp.Run(ctx, chromedp.Sleep(200*time.Millisecond)); err != nil {
		return check, err
	}
	body, doc = view.ScrollOffsets()
	check.OffsetAfterTop = max(body, doc)

	if err := errors.Join(view.err, button.err); err != nil {
		return check, fmt.Errorf("scroll-top check: %w", err)
	}
	if !check.OK() {
		s.logger.Warn().
			Str("expected", check.Expected).
			Str("actual", check.Actual).
			Float64("offset_after_top", check.OffsetAfterTop).
			Msg("scroll-top button misbehaves")
	}
	return check, nil
}

// pageView reads and resets the live page's scroll offsets. The first
// failure is kept in err.
type pageView struct {
	ctx context.Context
	err error
}

func (v *pageView) ScrollOffsets() (float64, float64) {
	var offsets [2]float64
	err := chromedp.Run(v.ctx, chromedp.Evaluate(`[document.body.scrollTop, document.documentElement.scrollTop]`, &offsets))
	if err != nil && v.err == nil {
		v.err = err
	}
	return offsets[0], offsets[1]
}

// ResetScroll presses the page's own button.
func (v *pageView) ResetScroll() {
	err := chromedp.Run(v.ctx, chromedp.Click("#onTopBtn", chromedp.ByQuery, chromedp.NodeVisible))
	if err != nil && v.err == nil {
		v.err = err
	}
}

// pageButton records the class the page gave #onTopBtn instead of
// setting one; the page script owns the class.
type pageButton struct {
	ctx      context.Context
	observed string
	err      error
}

func (b *pageButton) SetClass(string) {
	var class string
	var ok bool
	err := chromedp.Run(b.ctx, chromedp.AttributeValue("#onTopBtn", "class", &class, &ok, chromedp.ByQuery))
	if err != nil && b.err == nil {
		b.err = err
	}
	b.observed = class
}
