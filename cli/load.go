package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"leomaster/gallery"
	"leomaster/models"
	"leomaster/render"
	"leomaster/services"
	"leomaster/site"
	"leomaster/storage"
	"leomaster/utils"
)

// collectingFetcher records every item of every page it hands out.
type collectingFetcher struct {
	gallery.Fetcher

	mu    sync.Mutex
	items []models.Masterclass
}

func (c *collectingFetcher) Fetch(ctx context.Context, ref string) (*models.Page, error) {
	page, err := c.Fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.items = append(c.items, page.Results...)
	c.mu.Unlock()
	return page, nil
}

func (c *collectingFetcher) collected() []models.Masterclass {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Masterclass, len(c.items))
	copy(out, c.items)
	return out
}

type loadFlags struct {
	group   string
	siteURL string
	html    string
	csv     string
	ics     string
	save    bool
	report  bool
	timeout time.Duration
}

func newLoadCmd(a *app) *cobra.Command {
	var f loadFlags

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Follow a group's listing pages to the end and export what was loaded",
		Long: `Load drives the gallery loader against a running site: it follows the
listing endpoint's next links until pagination is over, renders every item
into a static gallery page and optionally exports CSV, an iCalendar feed and
a database copy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			if f.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, f.timeout)
				defer cancel()
			}
			return a.runLoad(ctx, cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.group, "group", "", "page group to load (default from PAGE_GROUP)")
	cmd.Flags().StringVar(&f.siteURL, "site", "", "site base URL (default from SITE_URL)")
	cmd.Flags().StringVar(&f.html, "html", "", "static gallery page output (default from HTML_FILE_PATH)")
	cmd.Flags().StringVar(&f.csv, "csv", "", "CSV export path (default from CSV_FILE_PATH)")
	cmd.Flags().StringVar(&f.ics, "ics", "", "iCalendar export path (default from ICS_FILE_PATH)")
	cmd.Flags().BoolVar(&f.save, "save", false, "upsert loaded masterclasses into DATABASE_URL")
	cmd.Flags().BoolVar(&f.report, "report", true, "print the insight report")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "give up after this long (0 waits for ever)")
	return cmd
}

func (a *app) runLoad(ctx context.Context, cmd *cobra.Command, f loadFlags) error {
	cfg := a.cfg
	logger := utils.Component(a.logger, "load")

	group := firstNonEmpty(f.group, cfg.PageGroup)
	siteURL := firstNonEmpty(f.siteURL, cfg.SiteURL)
	htmlPath := firstNonEmpty(f.html, cfg.HTMLFilePath)
	csvPath := firstNonEmpty(f.csv, cfg.CSVFilePath)
	icsPath := firstNonEmpty(f.ics, cfg.ICSFilePath)

	if f.save && cfg.DatabaseURL == "" {
		return errors.New("--save needs DATABASE_URL")
	}

	r, err := a.renderer()
	if err != nil {
		return err
	}

	httpFetcher, err := gallery.NewHTTPFetcher(siteURL, &http.Client{Timeout: 30 * time.Second}, utils.NewRateLimiter(cfg.RateLimitDelay))
	if err != nil {
		return err
	}
	fetcher := &collectingFetcher{Fetcher: httpFetcher}
	doc := gallery.NewDocument()

	loader := gallery.New(cfg.APIPath, group, fetcher, doc, r,
		gallery.WithIndicator(gallery.LogIndicator{Logger: logger}),
		gallery.WithLogger(utils.Component(a.logger, "loader")),
		gallery.WithRetry(cfg.MaxRetries, cfg.RetryBase()),
	)

	logger.Info().Str("site", siteURL).Str("group", group).Str("cursor", loader.Cursor()).Msg("loading gallery")
	start := time.Now()
	if err := loader.Drain(ctx); err != nil {
		// keep what was loaded; the outputs below still get written
		logger.Error().Err(err).Int("appended", loader.Appended()).Msg("loading stopped early")
		if ctx.Err() != nil {
			return err
		}
	}
	logger.Info().
		Int("appended", loader.Appended()).
		Dur("elapsed", time.Since(start)).
		Msg("loading finished")

	cleaner := services.NewDataCleaner(utils.Component(a.logger, "cleaner"))
	items := cleaner.Clean(fetcher.collected())

	g, gctx := errgroup.WithContext(ctx)

	if htmlPath != "" {
		g.Go(func() error {
			return writeStaticPage(htmlPath, doc, r, group)
		})
	}

	var exporters []storage.Exporter
	if csvPath != "" {
		exporters = append(exporters, storage.NewCSVWriter(csvPath, utils.Component(a.logger, "csv")))
	}
	if icsPath != "" {
		exporters = append(exporters, storage.NewICSWriter(icsPath, site.GroupTitle(group), siteURL, utils.Component(a.logger, "ics")))
	}
	for _, e := range exporters {
		g.Go(func() error {
			return e.Write(items)
		})
	}

	if f.save {
		g.Go(func() error {
			store, err := a.openStore(gctx)
			if err != nil {
				return err
			}
			defer store.Close()
			n, err := store.Upsert(gctx, items)
			if err != nil {
				return err
			}
			logger.Info().Int("rows", n).Msg("masterclasses saved")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if !f.report {
		return nil
	}
	insights := services.NewInsightService(r.Formatter(), utils.Component(a.logger, "insights"))
	return services.WriteInsightReport(cmd.OutOrStdout(), insights.Generate(items), render.LookupLocale(cfg.Locale).Tag)
}

func writeStaticPage(path string, doc *gallery.Document, r *render.Renderer, group string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := doc.WritePage(out, r, site.GroupTitle(group), group); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
