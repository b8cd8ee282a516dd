package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/conversation"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/funnel"
	"github.com/aretw0/funnel/pkg/observability"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/wizard"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Scripts provides the conversation scripts and the customization catalog.
type Scripts interface {
	ports.ScriptLoader
	Catalog() ([]domain.Category, error)
}

// Server wires the funnel controller and engines to HTTP.
type Server struct {
	ctl     *funnel.Controller
	scripts Scripts
	sched   ports.Scheduler

	mounts  *Mounts
	streams *StreamManager

	metrics        *observability.Metrics
	metricsHandler http.Handler
	health         func(context.Context) error
	logger         *slog.Logger
	now            func() time.Time

	allowedOrigins []string
	secureCookies  bool
	mountTTL       time.Duration
	version        string

	convOpts []conversation.Option
	wizOpts  []wizard.Option
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics instruments engines and mounts.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// WithHealthCheck makes /health report 503 when fn fails.
func WithHealthCheck(fn func(context.Context) error) Option {
	return func(s *Server) {
		s.health = fn
	}
}

// WithAllowedOrigins enables CORS for the given origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithSecureCookies marks identity cookies Secure.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) {
		s.secureCookies = secure
	}
}

// WithMountTTL overrides DefaultMountTTL.
func WithMountTTL(d time.Duration) Option {
	return func(s *Server) {
		s.mountTTL = d
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithClock sets the source of event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithConversationOptions are applied to every mounted conversation.
func WithConversationOptions(opts ...conversation.Option) Option {
	return func(s *Server) {
		s.convOpts = append(s.convOpts, opts...)
	}
}

// WithWizardOptions are applied to every mounted wizard.
func WithWizardOptions(opts ...wizard.Option) Option {
	return func(s *Server) {
		s.wizOpts = append(s.wizOpts, opts...)
	}
}

// NewServer creates a Server. sched drives every engine's timers.
func NewServer(ctl *funnel.Controller, scripts Scripts, sched ports.Scheduler, opts ...Option) *Server {
	s := &Server{
		ctl:      ctl,
		scripts:  scripts,
		sched:    sched,
		logger:   logging.NewNop(),
		now:      time.Now,
		mountTTL: DefaultMountTTL,
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mounts = NewMounts(s.mountTTL, s.metrics)
	s.mounts.now = s.now
	s.streams = NewStreamManager(s.logger)
	return s
}

// Mounts returns the engine registry.
func (s *Server) Mounts() *Mounts {
	return s.mounts
}

// Streams returns the SSE stream manager.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

// Close disposes every mounted engine.
func (s *Server) Close() {
	s.mounts.Close()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(s.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(identify(s.secureCookies))

		api.Get("/pages/*", s.getPage)
		api.Post("/entry/start", s.startFunnel)
		api.Post("/contact", s.captureContact)

		api.Post("/conversation/mount", s.mountConversation)
		api.Get("/conversation", s.getConversation)
		api.Post("/conversation/continue", s.continueConversation)

		api.Post("/customization/mount", s.mountCustomization)
		api.Get("/customization", s.getCustomization)
		api.Post("/customization/select", s.selectChoice)
		api.Post("/customization/back", s.back)
		api.Post("/customization/continue", s.continueCustomization)

		api.Delete("/mount", s.unmount)
		api.Get("/offer", s.getOffer)
		api.Get("/events", s.events)
	})
	return r
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn("Health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "funnel-http",
		"version":     strings.TrimSpace(s.version),
		"api_version": apiVersion,
	})
}
