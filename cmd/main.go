package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/angeloszaimis/spa-proxy/config"
	"github.com/angeloszaimis/spa-proxy/internal/forwarder"
	"github.com/angeloszaimis/spa-proxy/internal/healthcheck"
	"github.com/angeloszaimis/spa-proxy/internal/httpserver"
	"github.com/angeloszaimis/spa-proxy/internal/launcher"
	"github.com/angeloszaimis/spa-proxy/internal/metrics"
	"github.com/angeloszaimis/spa-proxy/pkg/logger"
)

const (
	metricsBufferSize  = 1000
	healthProbeTimeout = 5 * time.Second
)

func main() {
	flags := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	config.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	var closers []io.Closer
	var extra []io.Writer
	if cfg.Logging.File != "" {
		logFile := logger.NewFileWriter(cfg.Logging.File)
		closers = append(closers, logFile)
		extra = append(extra, logFile)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment, extra...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	collector := metrics.NewCollector(metricsBufferSize, log)
	collector.Start(ctx)

	manager, err := launcher.Detect(cfg.Spa.Manifest, cfg.Spa.ClientURL)
	if err != nil {
		log.Error("Failed to read SPA launch manifest",
			slog.String("manifest", cfg.Spa.Manifest),
			slog.Any("err", err))
		os.Exit(1)
	}
	if !manager.Enabled() {
		log.Info("SPA launch manifest not found, proxy disabled",
			slog.String("manifest", cfg.Spa.Manifest))
	}

	if cfg.Server.Environment == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	transport := forwarder.NewTransport()

	engine, err := setupRouter(cfg, manager, transport, log, collector)
	if err != nil {
		log.Error("Failed to set up router", slog.Any("err", err))
		os.Exit(1)
	}

	startHealthCheck(ctx, cfg, manager, transport, log, collector)

	srv, err := httpserver.New(cfg.Server.Address, engine)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		log.Info("Listening", slog.String("address", srv.Addr()))
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := shutdown(context.Background(), srv, closers...); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting SPA proxy", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

// startHealthCheck probes the dev server in the background. Probe results
// only feed logs and metrics; traffic is forwarded regardless.
func startHealthCheck(
	ctx context.Context,
	cfg *config.Config,
	manager *launcher.Manager,
	transport http.RoundTripper,
	log *slog.Logger,
	collector *metrics.Collector,
) *healthcheck.Target {
	interval := cfg.HealthCheckInterval()
	if !manager.Enabled() || interval <= 0 {
		return nil
	}

	target := healthcheck.NewTarget(manager.ClientURL())
	client := forwarder.NewClient(transport, healthProbeTimeout)

	go healthcheck.HealthCheck(ctx, target, client, interval, log, collector)

	return target
}

func shutdown(ctx context.Context, srv *httpserver.Server, closers ...io.Closer) error {
	err := srv.Shutdown(ctx)
	for _, c := range closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}
