// Package cli holds the leomaster command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"leomaster/config"
	"leomaster/render"
	"leomaster/storage"
	"leomaster/utils"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

// NewRootCmd creates the root command and its subcommands.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "leomaster",
		Short:         "Masterclass gallery site, incremental loader and crawler",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().String("config", "", "YAML config file overlaid on the environment")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "", "log format (auto, console, json)")

	cmd.AddCommand(newServeCmd(a), newLoadCmd(a), newCrawlCmd(a), newUpdateCmd(a))
	return cmd
}

// setup loads the config, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.LogFormat = format
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.LogLevel = "debug"
		cfg.LogFormat = "console"
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = utils.NewLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	l := utils.Component(a.logger, "cli")
	l.Debug().Str("command", cmd.Name()).Msg("command started")
	return nil
}

func (a *app) renderer() (*render.Renderer, error) {
	f := render.NewFormatter(a.cfg.Locale, a.cfg.Location())
	return render.NewRenderer(f, a.cfg.MediaPrefix)
}

// openStore picks Postgres when a database is configured, otherwise an
// in-memory store seeded from the seed file.
func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	logger := utils.Component(a.logger, "storage")

	if a.cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresStore(ctx, a.cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.CreateTables(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		return pg, nil
	}

	if a.cfg.SeedFile != "" {
		return storage.LoadMemoryStore(a.cfg.SeedFile, logger)
	}

	logger.Warn().Msg("no DATABASE_URL or SEED_FILE configured, serving an empty store")
	return storage.NewMemoryStore(logger), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func groupPageURL(siteURL, group string) string {
	return fmt.Sprintf("%s/masterclasses/%s/", strings.TrimRight(siteURL, "/"), group)
}
