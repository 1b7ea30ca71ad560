// Package gallery implements the incremental loader behind the infinite
// scroll gallery: it follows the listing endpoint's page cursor, renders
// every item and appends it to a container.
package gallery

import (
	"context"
	"html/template"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"leomaster/models"
	"leomaster/render"
	"leomaster/utils"
)

// Fetcher retrieves one page of the listing endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (*models.Page, error)
}

// Container receives rendered grid items in load order.
type Container interface {
	Append(item template.HTML) error
}

// Indicator is shown while a page request is outstanding.
type Indicator interface {
	Show()
	Hide()
}

// Loader owns the page cursor and the in-flight guard.
// All methods are safe for concurrent use; at most one page request is
// outstanding at any time.
type Loader struct {
	fetcher   Fetcher
	container Container
	indicator Indicator
	renderer  *render.Renderer
	logger    zerolog.Logger

	maxRetries int
	retryBase  time.Duration

	mu       sync.Mutex
	cursor   string
	inFlight bool
	fetched  *utils.URLTracker
	appended int
}

// Option configures a Loader.
type Option func(*Loader)

// WithIndicator sets the loading indicator.
func WithIndicator(ind Indicator) Option {
	return func(l *Loader) { l.indicator = ind }
}

// WithLogger sets the loader's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithRetry makes each load try up to attempts times, backing off
// n*n*base before attempt n.
func WithRetry(attempts int, base time.Duration) Option {
	return func(l *Loader) {
		l.maxRetries = attempts
		l.retryBase = base
	}
}

// New creates a loader whose cursor starts at basePath+group.
// It does not load anything; call Start for the initial load.
func New(basePath, group string, f Fetcher, c Container, r *render.Renderer, opts ...Option) *Loader {
	l := &Loader{
		fetcher:    f,
		container:  c,
		indicator:  nopIndicator{},
		renderer:   r,
		logger:     zerolog.Nop(),
		maxRetries: 1,
		cursor:     InitialCursor(basePath, group),
		fetched:    utils.NewURLTracker(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// InitialCursor joins the endpoint base path and the page group.
func InitialCursor(basePath, group string) string {
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	return basePath + group
}

// Start performs the initial load.
func (l *Loader) Start(ctx context.Context) error {
	_, err := l.TriggerLoad(ctx)
	return err
}

// Cursor returns the next page reference, or "" once pagination is over.
func (l *Loader) Cursor() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor
}

// Exhausted reports whether the last page has been loaded.
func (l *Loader) Exhausted() bool {
	return l.Cursor() == ""
}

// InFlight reports whether a page request is outstanding.
func (l *Loader) InFlight() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

// Appended returns how many items were appended so far.
func (l *Loader) Appended() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appended
}

// TriggerLoad fetches the page under the cursor unless pagination is over
// or another load is in flight, in which case it does nothing and returns
// false. On success the cursor moves to the page's next reference before
// the items are rendered. On failure the cursor is left alone so the next
// trigger retries the same page.
func (l *Loader) TriggerLoad(ctx context.Context) (bool, error) {
	l.mu.Lock()
	if l.cursor == "" || l.inFlight {
		l.mu.Unlock()
		return false, nil
	}
	l.inFlight = true
	ref := l.cursor
	l.mu.Unlock()

	l.indicator.Show()
	defer func() {
		l.indicator.Hide()
		l.mu.Lock()
		l.inFlight = false
		l.mu.Unlock()
	}()

	l.logger.Debug().Str("cursor", ref).Msg("loading page")

	var page *models.Page
	err := utils.RetryWithBackoff(ctx, l.maxRetries, l.retryBase, func() error {
		p, err := l.fetcher.Fetch(ctx, ref)
		if err != nil {
			return err
		}
		page = p
		return nil
	}, l.logger)
	if err != nil {
		l.logger.Error().Err(err).Str("cursor", ref).Msg("page load failed")
		return true, err
	}

	l.advance(ref, page.NextRef())
	for _, problem := range page.Malformed {
		l.logger.Warn().Err(problem).Str("cursor", ref).Msg("item decoded with zero values")
	}
	return true, l.appendItems(page.Results)
}

func (l *Loader) advance(ref, next string) {
	l.fetched.Add(ref)

	if next != "" && l.fetched.Seen(next) {
		l.logger.Warn().Str("cursor", ref).Str("next", next).Msg("next page already loaded, stopping")
		next = ""
	}

	l.mu.Lock()
	l.cursor = next
	l.mu.Unlock()

	if next == "" {
		l.logger.Info().Int("pages", l.fetched.Count()).Msg("pagination exhausted")
	}
}

func (l *Loader) appendItems(items []models.Masterclass) error {
	for _, mc := range items {
		html, err := l.renderer.ItemHTML(mc)
		if err != nil {
			l.logger.Warn().Err(err).Str("uid", mc.UID).Msg("skipping item")
			continue
		}
		if err := l.container.Append(html); err != nil {
			return err
		}
		l.mu.Lock()
		l.appended++
		l.mu.Unlock()
	}
	return nil
}

// OnScroll is the scroll binding: it triggers a load when the viewport is
// within NearBottomThreshold pixels of the document's bottom edge.
func (l *Loader) OnScroll(ctx context.Context, v Viewport) (bool, error) {
	if !NearBottom(v) {
		return false, nil
	}
	return l.TriggerLoad(ctx)
}

// Drain keeps loading until pagination is over or a load fails.
func (l *Loader) Drain(ctx context.Context) error {
	for !l.Exhausted() {
		if err := ctx.Err(); err != nil {
			return err
		}
		started, err := l.TriggerLoad(ctx)
		if err != nil {
			return err
		}
		if !started {
			// another goroutine holds the in-flight slot
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(10 * time.Millisecond):
			}
		}
	}
	return nil
}

type nopIndicator struct{}

func (nopIndicator) Show() {}
func (nopIndicator) Hide() {}
