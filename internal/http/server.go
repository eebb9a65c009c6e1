package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fitlog/internal/log"
	"fitlog/internal/middleware/ratelimit"
	"fitlog/internal/middleware/recovery"
	"fitlog/internal/middleware/security"
	"fitlog/internal/middleware/trace"
	"fitlog/internal/tracker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	// Registry receives the HTTP collectors and is served on /metrics.
	// A fresh registry is used when nil.
	Registry       *prometheus.Registry
	RateLimit      ratelimit.Config
	TrustedProxies []string
	// Checks run on /readyz, keyed by dependency name.
	Checks       map[string]ReadinessCheck
	Logger       *log.Logger
	MaxBodyBytes int64
}

type Server struct {
	http.Server
	tracker  *tracker.Tracker
	limiter  *ratelimit.Limiter
	detector *security.Detector
	logger   *log.Logger
	checks   map[string]ReadinessCheck
	maxBody  int64
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, t *tracker.Tracker, opts Options) (*Server, error) {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger, _ = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector(reg)
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxies: %w", err)
		}
	}

	rlCfg := opts.RateLimit
	rlCfg.Registerer = reg

	s := &Server{
		tracker:  t,
		limiter:  ratelimit.NewLimiter(rlCfg),
		detector: detector,
		logger:   logger,
		checks:   opts.Checks,
		maxBody:  opts.MaxBodyBytes,
		started:  time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /api/today", s.handleGetToday)
	mux.HandleFunc("POST /api/today", s.handleLogToday)
	mux.HandleFunc("GET /api/days/{date}", s.handleGetDay)
	mux.HandleFunc("PUT /api/days/{date}", s.handleEditDay)
	mux.HandleFunc("DELETE /api/days/{date}", s.handleDeleteDay)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	mux.HandleFunc("GET /api/goals", s.handleGetGoals)
	mux.HandleFunc("PUT /api/goals", s.handleSetGoals)
	mux.HandleFunc("POST /api/goals/draft", s.handleDraftGoals)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(detector.ExtractClientIP, trace.NewMetrics(reg))
	recoverer := recovery.New(reg, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	})

	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, s.rateLimited)(h)
	h = headers.Middleware(h)
	h = detector.Middleware(h)
	h = recoverer.Middleware(h)
	h = log.Middleware(logger, func(r *http.Request) string { return trace.GetRequestID(r.Context()) })(h)
	h = tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}
