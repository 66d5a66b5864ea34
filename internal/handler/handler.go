package handler

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/angeloszaimis/spa-proxy/internal/forwarder"
	"github.com/angeloszaimis/spa-proxy/internal/launcher"
	"github.com/angeloszaimis/spa-proxy/internal/metrics"
)

// Options configures the proxy installed by Register.
type Options struct {
	Logger       *slog.Logger
	Collector    *metrics.Collector
	Transport    http.RoundTripper
	Timeout      time.Duration
	ErrorHandler forwarder.ErrorHandler
}

type SpaProxyHandler struct {
	logger           *slog.Logger
	forwarder        *forwarder.Forwarder
	destination      string
	metricsCollector *metrics.Collector
}

// Register installs the catch-all route on engine when manager is enabled.
// With a nil manager nothing is installed and (nil, nil) is returned.
func Register(engine *gin.Engine, manager *launcher.Manager, opts Options) (*SpaProxyHandler, error) {
	if !manager.Enabled() {
		return nil, nil
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	fwd, err := forwarder.New(forwarder.Options{
		Destination:  manager.ClientURL(),
		Transport:    opts.Transport,
		Timeout:      opts.Timeout,
		ErrorHandler: opts.ErrorHandler,
		Logger:       opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	h := NewSpaProxyHandler(opts.Logger, fwd, opts.Collector)
	engine.NoRoute(h.Handle)

	opts.Logger.Info("SPA proxy enabled",
		slog.Any("launch_manager", manager),
		slog.Duration("timeout", fwd.Timeout()))

	return h, nil
}

func NewSpaProxyHandler(logger *slog.Logger, fwd *forwarder.Forwarder, collector *metrics.Collector) *SpaProxyHandler {
	return &SpaProxyHandler{
		logger:           logger,
		forwarder:        fwd,
		destination:      fwd.Destination().String(),
		metricsCollector: collector,
	}
}

// Handle is the gin handler for the catch-all route.
func (h *SpaProxyHandler) Handle(c *gin.Context) {
	h.ServeHTTP(c.Writer, c.Request)

	// gin writes its own 404 body into NoRoute responses left unwritten.
	c.Writer.WriteHeaderNow()
}

func (h *SpaProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With(
		slog.String("forward_id", uuid.NewString()),
		slog.String("destination", h.destination))

	log.Debug("Forwarding request",
		slog.String("from", extractClientIP(r)),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("proto", r.Proto),
		slog.String("host", r.Host))

	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:        metrics.EventRequestForwarded,
		Destination: h.destination,
	})

	status := &statusRecorder{ResponseWriter: w}
	start := time.Now()

	ferr := h.forwarder.Forward(status, r)
	duration := time.Since(start)

	if ferr != nil {
		log.Warn("Forward failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("reason", ferr.Reason.String()),
			slog.Duration("duration", duration),
			slog.Any("err", ferr.Err))

		h.metricsCollector.Emit(metrics.MetricEvent{
			Type:        metrics.EventForwardFailed,
			Destination: h.destination,
			Duration:    duration,
			Reason:      ferr.Reason.String(),
		})

		if ferr.ShouldAbort() {
			panic(http.ErrAbortHandler)
		}
		return
	}

	log.Debug("Forward completed",
		slog.Int("status", status.Code()),
		slog.Duration("duration", duration))

	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:        metrics.EventResponseCompleted,
		Destination: h.destination,
		Duration:    duration,
		StatusCode:  status.Code(),
	})
}

// Recovery logs panics and answers 500. http.ErrAbortHandler is passed on
// to net/http so the connection is torn down instead of finishing a
// truncated response cleanly.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}

			logger.Error("Panic while handling request",
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.Any("err", err))
			c.AbortWithStatus(http.StatusInternalServerError)
		}()

		c.Next()
	}
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}

// statusRecorder captures the relayed status. It unwraps for
// http.ResponseController so flushing and upgrades reach the real writer.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.statusCode == 0 && code >= http.StatusOK || code == http.StatusSwitchingProtocols {
		r.statusCode = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Code() int {
	if r.statusCode == 0 {
		return http.StatusOK
	}
	return r.statusCode
}
