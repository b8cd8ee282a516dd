package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/cli"
	"github.com/aretw0/funnel/pkg/adapters/clock"
	"github.com/aretw0/funnel/pkg/adapters/collector"
	httpAdapter "github.com/aretw0/funnel/pkg/adapters/http"
	"github.com/aretw0/funnel/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the funnel JSON API, the SSE event stream, /metrics and /openapi.yaml.
Visitor flags live in memory, on disk or in Redis (see --store).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}
		kind, _ := cmd.Flags().GetString("store")
		dataDir, _ := cmd.Flags().GetString("data-dir")

		st, err := openStores(cfg, kind, dataDir)
		if err != nil {
			return err
		}
		defer st.close()

		reg := prometheus.NewRegistry()
		metrics := observability.NewMetrics(reg)

		opts := append(scriptOptions(cmd),
			funnel.WithLocalStore(st.local),
			funnel.WithSessionStore(st.sessions),
			funnel.WithCheckoutURL(cfg.CheckoutURL),
			funnel.WithMetrics(metrics),
			funnel.WithLogger(logger),
		)
		if st.locker != nil {
			opts = append(opts, funnel.WithLocker(st.locker))
		}
		active, fallback, err := cfg.Keys()
		if err != nil {
			return err
		}
		if active != nil {
			opts = append(opts, funnel.WithEncryption(active, fallback...))
		}
		if cfg.CollectorURL != "" {
			opts = append(opts, funnel.WithCollector(collector.New(cfg.CollectorURL,
				collector.WithTimeout(cfg.CollectorTimeout),
				collector.WithLogger(logger),
			)))
		}

		app, err := funnel.New(opts...)
		if err != nil {
			return err
		}
		defer app.Close()

		sched := clock.NewReal(clock.WithLogger(logger))
		defer sched.Stop()

		srv := app.Server(sched,
			httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
			httpAdapter.WithHealthCheck(app.Ping),
			httpAdapter.WithAllowedOrigins(cfg.AllowedOrigins),
			httpAdapter.WithSecureCookies(cfg.CookieSecure),
			httpAdapter.WithMountTTL(cfg.MountTTL),
		)
		defer srv.Close()

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		go srv.Mounts().Run(sigCtx, reapInterval(cfg.MountTTL))

		httpSrv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
			// Event streams end with the process, not with Shutdown.
			BaseContext: func(net.Listener) context.Context { return sigCtx },
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting funnel server", "addr", httpSrv.Addr, "version", funnel.Version)
			serverErrors <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil

		case <-sigCtx.Done():
			logger.Info("Start shutdown", "signal", sigCtx.Signal())

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := httpSrv.Shutdown(ctx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := httpSrv.Close(); err != nil {
					logger.Error("Error killing server", "err", err)
				}
			}
			logger.Info("Funnel server stopped gracefully")
			return nil
		}
	},
}

func reapInterval(ttl time.Duration) time.Duration {
	switch {
	case ttl <= 0 || ttl > 2*time.Minute:
		return time.Minute
	case ttl < 2*time.Second:
		return time.Second
	}
	return ttl / 2
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default $PORT or 8080)")
	serveCmd.Flags().String("store", "", "Flag store: memory, file or redis (default redis when REDIS_ADDR is set)")
	serveCmd.Flags().String("data-dir", ".funnel", "Directory of the file store")
}
