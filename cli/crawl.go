package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"leomaster/models"
	"leomaster/scraper/browser"
	"leomaster/utils"
)

func newCrawlCmd(a *app) *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "crawl [page-url]",
		Short: "Scroll a gallery page in headless Chrome and check what it shows",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			pageURL := groupPageURL(cfg.SiteURL, firstNonEmpty(group, cfg.PageGroup))
			if len(args) == 1 {
				pageURL = args[0]
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			s := browser.NewGalleryScraper(browser.Options{
				MaxIdleScrolls: cfg.MaxIdleScrolls,
				ScrollDelayMs:  cfg.RateLimitDelay,
				Timeout:        cfg.CrawlTimeout(),
				MaxRetries:     cfg.MaxRetries,
				RetryBase:      cfg.RetryBase(),
				Headless:       cfg.Headless,
			}, utils.Component(a.logger, "crawler"))

			res, err := s.Crawl(ctx, pageURL)
			if err != nil {
				return err
			}

			printCards(cmd.OutOrStdout(), res.Cards)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d cards after %d scrolls\n", len(res.Cards), res.Scrolls)
			fmt.Fprintf(cmd.OutOrStdout(), "scroll-top at %.0f: expected %q, got %q, offset after top %.0f\n",
				res.Top.Offset, res.Top.Expected, res.Top.Actual, res.Top.OffsetAfterTop)

			if !res.Top.OK() {
				return fmt.Errorf("scroll-top button check failed on %s", pageURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "group page to crawl when no URL is given")
	return cmd
}

func printCards(w io.Writer, cards []models.Card) {
	for i, c := range cards {
		status := ""
		if c.SoldOut {
			status = " [sold out]"
		}
		fmt.Fprintf(w, "%3d. %-10s %s %-12s %8s  %s%s\n", i+1, c.UID, c.DateTime, c.Weekday, c.Price, c.Title, status)
	}
}
