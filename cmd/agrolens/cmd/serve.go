package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/agrolens/cache"
	"github.com/spektr-org/agrolens/catalog"
	"github.com/spektr-org/agrolens/server"
)

var (
	serveSource sourceFlags
	serveAddr   string
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve summaries over HTTP",
	Long: `Start the HTTP API on the configured address.

Routes:
  POST /v1/summaries        one selection → bundle (+ report, chart)
  POST /v1/comparisons      several selections, evaluated concurrently
  GET  /v1/catalog          known domains, commodities and countries
  GET  /v1/charts/trend.png PNG trend chart for a selection
  GET  /healthz             liveness
  GET  /metrics             Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveSource.register(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	data, err := serveSource.load(cat)
	if err != nil {
		return err
	}

	serverCfg := cfg.Server
	if serveAddr != "" {
		serverCfg.Addr = serveAddr
	}

	opts := []server.Option{server.WithEngineOptions(cfg.EngineOptions()...)}
	if cfg.Cache.Enabled {
		c, err := cache.New(cfg.Cache.Size)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithCache(c))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server",
		zap.String("addr", serverCfg.Addr),
		zap.Int("observations", data.Len()),
		zap.Bool("cache", cfg.Cache.Enabled),
	)
	return server.New(serverCfg, data, cat, logger, opts...).ListenAndServe(ctx)
}
