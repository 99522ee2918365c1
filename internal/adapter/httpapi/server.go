// Package httpapi is the HTTP calling layer around the automation core. It
// owns the caller duties the core leaves out: action whitelisting, URL
// safety, rate limiting, request logging and audit records.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"browser-pilot/internal/application/port/input"
	"browser-pilot/internal/application/port/output"
	"browser-pilot/internal/application/service"
	"browser-pilot/internal/domain/entity"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Automation is what the handlers need from the controller.
type Automation interface {
	Running() bool
	Submit(ctx context.Context, action entity.Action) entity.ActionResult
	Context(ctx context.Context) entity.PageContext
	Perception(ctx context.Context) entity.PerceptionResult
}

type Config struct {
	// RateLimit is requests per second across all action endpoints.
	RateLimit      float64
	RateBurst      int
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	JSONLogs       bool
}

func DefaultConfig() Config {
	return Config{
		RateLimit:      2,
		RateBurst:      10,
		MaxBodyBytes:   1 << 20,
		RequestTimeout: 5 * time.Minute,
	}
}

type Server struct {
	cfg       Config
	turns     input.TurnExecutor
	automator Automation
	validator *service.ActionValidator
	audit     output.AuditPort
	logger    output.LoggerPort
	gatherer  prometheus.Gatherer
	limiter   *rate.Limiter
}

func NewServer(
	cfg Config,
	turns input.TurnExecutor,
	automator Automation,
	validator *service.ActionValidator,
	audit output.AuditPort,
	logger output.LoggerPort,
	gatherer prometheus.Gatherer,
) *Server {
	if validator == nil {
		validator = service.NewActionValidator(nil)
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		cfg:       cfg,
		turns:     turns,
		automator: automator,
		validator: validator,
		audit:     audit,
		logger:    logger,
		gatherer:  gatherer,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(httplog.NewLogger("browser-pilot", httplog.Options{
		JSON:    s.cfg.JSONLogs,
		Concise: true,
	})))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}

		r.Post("/chat", s.handleChat)
		r.Route("/browser", func(r chi.Router) {
			r.Post("/action", s.handleAction)
			r.Get("/context", s.handleContext)
			r.Get("/perception", s.handlePerception)
		})
	})

	return r
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.logger.Warn("Rate limit exceeded", "path", r.URL.Path, "remote", r.RemoteAddr)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
