package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"todoboard/internal/adapters/exports"
	"todoboard/internal/blob"
	"todoboard/internal/config"
	"todoboard/internal/core"
	"todoboard/internal/logging"
	"todoboard/internal/observability"
	"todoboard/internal/server"
	"todoboard/internal/web"
)

func newServeCmd(app *App) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath, cmd.Flags().Changed("config"), app.lookupEnv())
			if err != nil {
				return err
			}
			if err := config.ApplyFlags(cmd.Flags(), &cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			opts := logging.DefaultOptions()
			opts.Level = cfg.Log.Level
			opts.Format = cfg.Log.Format
			opts.Output = cmd.ErrOrStderr()
			logger := logging.New(opts)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "path to the TOML config file")
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// runServer opens the configured backends and serves until ctx is done.
func runServer(ctx context.Context, cfg config.Config, logger logging.Logger) error {
	handler, closeFn, err := buildHandler(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			logger.Warn("close store", "err", err)
		}
	}()
	logger.Info("starting todoboard",
		"addr", cfg.Server.Addr,
		"storage", cfg.Storage.Driver,
		"blob", cfg.Blob.Driver,
		"metrics", cfg.Metrics.Enabled,
	)
	return server.Run(ctx, cfg.Server, handler, logger)
}

func buildHandler(ctx context.Context, cfg config.Config, logger logging.Logger) (http.Handler, func() error, error) {
	store, err := core.OpenStore(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("open blob store: %w", err)
	}
	renderer, err := web.NewRenderer()
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	deps := server.Deps{
		Store:    store,
		Exporter: exports.NewExporter(store, blobs),
		Renderer: renderer,
		Logger:   logger,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = observability.NewMetrics(store)
		deps.MetricsPath = cfg.Metrics.Path
	}
	return server.NewHandler(deps), store.Close, nil
}
