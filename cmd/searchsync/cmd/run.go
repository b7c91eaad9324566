package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	syncerrors "github.com/openmediahub/searchsync/internal/errors"
	"github.com/openmediahub/searchsync/internal/metrics"
	"github.com/openmediahub/searchsync/pkg/version"
)

func newRunCmd() *cobra.Command {
	var (
		interval      string
		metricsListen string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sync daemon",
		Long: `Run the drain loop until interrupted.

Each cycle drains the whole queue in bounded chunks, then sleeps for
the remainder of the configured interval. SIGINT and SIGTERM stop the
loop at the next sleep boundary; a cycle that already started always
finishes first.

With metrics.listen configured, a Prometheus endpoint is served at
/metrics for the lifetime of the daemon.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), interval, metricsListen)
		},
	}

	cmd.Flags().StringVar(&interval, "interval", "", "Override update.interval (e.g. 10s)")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "Override metrics.listen (e.g. 127.0.0.1:9230)")

	return cmd
}

func runRun(ctx context.Context, interval, metricsListen string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if interval != "" {
		cfg.Update.Interval = interval
	}
	if metricsListen != "" {
		cfg.Metrics.Listen = metricsListen
	}
	if err := cfg.Validate(); err != nil {
		return syncerrors.Wrap(syncerrors.ErrCodeConfigInvalid, err)
	}

	logger, cleanup, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	logger = logger.With(
		slog.String("instance", uuid.NewString()),
		slog.String("version", version.Version),
	)

	sdb, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = sdb.Close() }()

	client, err := openIndex(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	// A private registry keeps the endpoint free of default Go
	// collectors from other libraries.
	var m *metrics.Set
	var registry *prometheus.Registry
	if cfg.Metrics.Listen != "" {
		registry = prometheus.NewRegistry()
		m = metrics.New(registry)
	}

	eng, err := buildEngine(cfg, sdb, client, logger, m)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if registry != nil {
		srv := &http.Server{
			Addr:    cfg.Metrics.Listen,
			Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}
		g.Go(func() error {
			logger.Info("serving metrics", slog.String("listen", cfg.Metrics.Listen))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		return eng.Run(gctx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}
	return err
}
