package main

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/angeloszaimis/spa-proxy/config"
	"github.com/angeloszaimis/spa-proxy/internal/handler"
	"github.com/angeloszaimis/spa-proxy/internal/launcher"
	"github.com/angeloszaimis/spa-proxy/internal/metrics"
)

// setupRouter registers the host routes first. The SPA proxy only sees
// requests none of them match.
func setupRouter(
	cfg *config.Config,
	manager *launcher.Manager,
	transport http.RoundTripper,
	log *slog.Logger,
	metricsCollector *metrics.Collector,
) (*gin.Engine, error) {
	engine := gin.New()
	engine.Use(handler.Recovery(log))

	engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	engine.GET(cfg.Metrics.Path, gin.WrapF(metricsCollector.Handler()))
	engine.GET(cfg.Metrics.PrometheusPath, gin.WrapH(metricsCollector.PrometheusHandler()))

	_, err := handler.Register(engine, manager, handler.Options{
		Logger:    log,
		Collector: metricsCollector,
		Transport: transport,
		Timeout:   cfg.ProxyTimeout(),
	})
	if err != nil {
		return nil, err
	}

	return engine, nil
}
