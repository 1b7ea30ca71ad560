// Package site serves the masterclass listing API, the gallery pages that
// load it incrementally and the calendar feeds.
package site

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"leomaster/render"
	"leomaster/storage"
)

//go:embed static
var staticFS embed.FS

const shutdownTimeout = 5 * time.Second

var groupTitles = map[string]string{
	string(storage.GroupTopic):     "Ближайшие мастер-классы",
	string(storage.GroupHalfMonth): "Новые за две недели",
	string(storage.GroupMonth):     "Новые за месяц",
	string(storage.GroupAll):       "Все мастер-классы",
}

// GroupTitle returns the page heading for a named group, or the group
// itself for anything else.
func GroupTitle(group string) string {
	if t, ok := groupTitles[group]; ok {
		return t
	}
	return group
}

// Options configures the site.
type Options struct {
	APIPath         string // listing endpoint prefix, e.g. "/api/masterclasses/"
	SiteURL         string // public base URL, used in calendar links
	PageSize        int
	RateLimitMax    int // per IP and window on API routes; 0 disables
	RateLimitWindow time.Duration
	MediaDir        string // downloaded images, served under MediaPrefix when set
	MediaPrefix     string // must be a path such as "/media/downloads/img/"
}

// Server holds the site's dependencies.
type Server struct {
	store    storage.Store
	renderer *render.Renderer
	opts     Options
	guards   []Guard
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a server.
func New(store storage.Store, renderer *render.Renderer, opts Options, logger zerolog.Logger) *Server {
	if opts.APIPath == "" {
		opts.APIPath = "/api/masterclasses/"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 12
	}
	s := &Server{
		store:    store,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
	if opts.RateLimitMax > 0 {
		s.guards = append(s.guards, NewIPRateGuard(opts.RateLimitMax, opts.RateLimitWindow))
	}
	return s
}

func (s *Server) pageData(group string) render.PageData {
	return render.PageData{
		Title:        groupTitles[group],
		Group:        group,
		FragmentsURL: fragmentsPath(group),
		Script:       "/static/gallery.js",
	}
}

// Handler returns the site's routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	api := strings.TrimSuffix(s.opts.APIPath, "/")

	apiHandler := guarded(http.HandlerFunc(s.handleAPI), s.guards...)
	mux.Handle("GET "+api+"/{$}", apiHandler)
	mux.Handle("GET "+api+"/{group}", apiHandler)
	mux.Handle("GET "+api+"/{group}/{$}", apiHandler)

	mux.HandleFunc("GET /masterclasses/{group}/{$}", s.handleGallery)
	mux.Handle("GET /masterclasses/{group}/fragments", guarded(http.HandlerFunc(s.handleFragments), s.guards...))
	mux.HandleFunc("GET /calendar/{file}", s.handleCalendar)

	static, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	if prefix := s.opts.MediaPrefix; s.opts.MediaDir != "" && strings.HasPrefix(prefix, "/") && strings.HasSuffix(prefix, "/") {
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(s.opts.MediaDir))))
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/masterclasses/"+string(storage.GroupTopic)+"/", http.StatusFound)
	})

	return withRequestLog(s.logger, mux)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info().Str("addr", addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
