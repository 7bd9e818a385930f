package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/gbdrill/internal/cache"
	"github.com/ppiankov/gbdrill/internal/metrics"
	"github.com/ppiankov/gbdrill/internal/query"
	"github.com/ppiankov/gbdrill/internal/server"
	"github.com/ppiankov/gbdrill/internal/worker"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the drill-down API over HTTP",
	Long: `Serve loads the cause hierarchy and the fact table once, then answers
drill-down, detail and sunburst queries over HTTP.

Example:
  gbdrill serve
  gbdrill serve --addr :8080 --db data/gbd.db
  GBDRILL_SERVER_REQUESTS_PER_SECOND=0 gbdrill serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :5000)")
	serveCmd.Flags().Int("max-connections", 0, "maximum concurrent connections")
	serveCmd.Flags().Bool("no-cache", false, "disable the response cache")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.max_connections", serveCmd.Flags().Lookup("max-connections"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}

	logger := newLogger(cfg.Output.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ds, err := loadService(ctx, cfg, logger, query.WithObserver(m))
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	m.SetDatasetSize(ds.nodes, ds.rows)

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMetrics(m, reg),
	}
	if cfg.Cache.Enabled {
		opts = append(opts, server.WithCache(cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval), cfg.Cache.TTL))
	}
	if cfg.Server.RequestsPerSecond > 0 {
		opts = append(opts, server.WithLimiter(worker.NewLimiter(cfg.Server.RequestsPerSecond, cfg.Server.Burst, cfg.Server.ClientIdleTimeout)))
	}

	return server.New(ds.svc, opts...).ListenAndServe(ctx, cfg.Server)
}
