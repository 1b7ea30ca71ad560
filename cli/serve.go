package cli

import (
	"github.com/spf13/cobra"

	"leomaster/site"
	"leomaster/utils"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the listing API, gallery pages and calendar feeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.ListenAddr
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			r, err := a.renderer()
			if err != nil {
				return err
			}

			srv := site.New(store, r, site.Options{
				APIPath:         a.cfg.APIPath,
				SiteURL:         a.cfg.SiteURL,
				PageSize:        a.cfg.PageSize,
				RateLimitMax:    a.cfg.RateLimitMax,
				RateLimitWindow: a.cfg.RateLimitWindow(),
				MediaDir:        a.cfg.MediaDir,
				MediaPrefix:     a.cfg.MediaPrefix,
			}, utils.Component(a.logger, "site"))

			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from LISTEN_ADDR)")
	return cmd
}
