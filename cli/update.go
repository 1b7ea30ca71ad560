package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"leomaster/models"
	"leomaster/scraper/browser"
	"leomaster/scraper/source"
	"leomaster/services"
	"leomaster/utils"
)

type updateFlags struct {
	url     string
	file    string
	rules   string
	images  bool
	seedOut string
	dryRun  bool
}

func newUpdateCmd(a *app) *cobra.Command {
	var f updateFlags

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Read the published schedule and save its masterclasses",
		Long: `Update renders the source schedule page in headless Chrome, reads every
masterclass from it with the parser rules and upserts them into DATABASE_URL.
Images are downloaded into MEDIA_DIR under the names the gallery links to.
--file parses a saved page instead of opening the browser and --seed-out
writes a seed file the in-memory store can serve.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return a.runUpdate(ctx, cmd.OutOrStdout(), f)
		},
	}

	cmd.Flags().StringVar(&f.url, "url", "", "schedule page (default from SOURCE_URL)")
	cmd.Flags().StringVar(&f.file, "file", "", "parse a saved schedule page instead of fetching it")
	cmd.Flags().StringVar(&f.rules, "rules", "", "YAML parser rules (default from SOURCE_RULES)")
	cmd.Flags().BoolVar(&f.images, "images", true, "download masterclass images into MEDIA_DIR")
	cmd.Flags().StringVar(&f.seedOut, "seed-out", "", "also write the masterclasses as a JSON seed file")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "parse and print only")
	return cmd
}

func (a *app) runUpdate(ctx context.Context, out io.Writer, f updateFlags) error {
	cfg := a.cfg
	logger := utils.Component(a.logger, "update")

	pageURL := firstNonEmpty(f.url, cfg.SourceURL)
	if !f.dryRun && cfg.DatabaseURL == "" && f.seedOut == "" {
		return errors.New("nothing to write: set DATABASE_URL or --seed-out")
	}

	rules, err := source.LoadRules(firstNonEmpty(f.rules, cfg.SourceRules))
	if err != nil {
		return err
	}
	parser, err := source.NewParser(rules, pageURL, utils.Component(a.logger, "parser"))
	if err != nil {
		return err
	}

	page, err := a.schedulePage(ctx, pageURL, f.file, rules.Sections)
	if err != nil {
		return err
	}
	res, err := parser.Parse(strings.NewReader(page))
	if err != nil {
		return err
	}
	for _, skipped := range res.Skipped {
		logger.Warn().Err(skipped).Msg("section skipped")
	}

	items := services.NewDataCleaner(utils.Component(a.logger, "cleaner")).Clean(res.Items)
	if f.dryRun {
		printMasterclasses(out, items)
		fmt.Fprintf(out, "\n%d masterclasses, %d sections skipped\n", len(items), len(res.Skipped))
		return nil
	}

	var saved, images int
	g, gctx := errgroup.WithContext(ctx)

	if cfg.DatabaseURL != "" {
		g.Go(func() error {
			store, err := a.openStore(gctx)
			if err != nil {
				return err
			}
			defer store.Close()
			saved, err = store.Upsert(gctx, items)
			return err
		})
	}
	if f.seedOut != "" {
		g.Go(func() error {
			return writeSeed(f.seedOut, items)
		})
	}
	if f.images {
		g.Go(func() error {
			d := source.NewImageDownloader(cfg.MediaDir, &http.Client{Timeout: 30 * time.Second},
				utils.NewRateLimiter(cfg.RateLimitDelay), utils.Component(a.logger, "images"))
			var err error
			if images, err = d.Download(gctx, items); err != nil && gctx.Err() == nil {
				// image failures are logged, not returned
				logger.Warn().Err(err).Msg("some images were not downloaded")
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Int("parsed", len(items)).Int("saved", saved).Int("images", images).Msg("update finished")
	fmt.Fprintf(out, "%d masterclasses read, %d saved, %d images downloaded, %d sections skipped\n",
		len(items), saved, images, len(res.Skipped))
	return nil
}

// schedulePage returns the saved page at file, or renders pageURL in the
// browser and waits for the sections to appear.
func (a *app) schedulePage(ctx context.Context, pageURL, file, sections string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read schedule page: %w", err)
		}
		return string(data), nil
	}

	cfg := a.cfg
	s := browser.NewGalleryScraper(browser.Options{
		Timeout:    cfg.CrawlTimeout(),
		MaxRetries: cfg.MaxRetries,
		RetryBase:  cfg.RetryBase(),
		Headless:   cfg.Headless,
	}, utils.Component(a.logger, "crawler"))
	return s.PageHTML(ctx, pageURL, sections)
}

func writeSeed(path string, items []models.Masterclass) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create seed dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode seed: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func printMasterclasses(w io.Writer, items []models.Masterclass) {
	for i, mc := range items {
		fmt.Fprintf(w, "%3d. %-10s %s %8.0f  %s\n", i+1, mc.UID, mc.Date.Format("02.01.2006 15:04"), mc.Price.Float(), mc.Title)
	}
}
