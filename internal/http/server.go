package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"budgetbook/internal/amqp"
	"budgetbook/internal/cache"
	applog "budgetbook/internal/log"
	"budgetbook/internal/middleware/ratelimit"
	"budgetbook/internal/middleware/security"
	"budgetbook/internal/middleware/trace"
	"budgetbook/internal/period"
	"budgetbook/internal/reconcile"
	"budgetbook/internal/services"
	appweb "budgetbook/web"
)

// Options tunes a Server; zero values fall back to defaults.
type Options struct {
	ReportCacheTTL  time.Duration
	ReportCacheSize int
	TopN            int
	Logger          *applog.Logger
	RateLimit       ratelimit.Config
	TrustedProxies  []string
}

type Server struct {
	http.Server
	svc       *services.LedgerService
	templates *template.Template
	topN      int

	reports      *cache.LRUCache[reconcile.Report]
	cacheManager *cache.Manager

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	logger   *applog.StructuredLogger

	metrics      appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	started     time.Time
	mutations   atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
}

// NewServer configures routes and templates, returning a ready-to-run server.
// Report caching starts immediately and is stopped by Shutdown.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	if opts.ReportCacheSize < 1 {
		opts.ReportCacheSize = 64
	}
	if opts.ReportCacheTTL <= 0 {
		opts.ReportCacheTTL = 30 * time.Second
	}
	if opts.TopN < 1 {
		opts.TopN = 5
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		svc:          svc,
		topN:         opts.TopN,
		reports:      cache.NewLRUCache[reconcile.Report](opts.ReportCacheSize, opts.ReportCacheTTL),
		cacheManager: cache.NewManager(),
		detector:     security.NewDetector(),
		limiter:      ratelimit.NewLimiter(opts.RateLimit),
		logger:       applog.NewStructuredLogger(opts.Logger),
	}
	s.metrics.started = time.Now()
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			slog.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.logger)

	s.cacheManager.Register(s.reports)
	s.cacheManager.StartCleanup(time.Minute)

	// Every committed write invalidates every cached report.
	svc.OnChange(func(msg *amqp.LedgerChangedMessage) {
		s.metrics.mutations.Add(1)
		s.reports.Clear()
	})

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	mux := http.NewServeMux()
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleDaily)
	mux.HandleFunc("POST /daily", s.handleDailySubmit)
	mux.HandleFunc("POST /daily/clear", s.handleClearDay)
	mux.HandleFunc("POST /transactions", s.handleAddTransaction)
	mux.HandleFunc("POST /transactions/{id}/delete", s.handleDeleteTransaction)
	mux.HandleFunc("GET /reports", s.handleReports)
	mux.HandleFunc("GET /budget", s.handleBudget)
	mux.HandleFunc("POST /budget", s.handleBudgetSubmit)
	mux.HandleFunc("GET /logs", s.handleLogs)
	mux.HandleFunc("POST /logs", s.handleLogsSubmit)
	mux.HandleFunc("GET /api/reconcile", s.handleAPIReconcile)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, http.MethodPost)(handler)
	handler = applog.ComponentMiddleware(applog.ComponentHTTP)(handler)
	handler = applog.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) })(handler)
	handler = applog.Middleware(opts.Logger)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = s.detector.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// report returns the reconciliation of p, served from the report cache.
func (s *Server) report(ctx context.Context, p period.Period) (reconcile.Report, error) {
	missed := false
	// Other requests may join this load, so it must outlive this request's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	rep, err := s.reports.GetOrLoad(p.Key(), func() (reconcile.Report, error) {
		missed = true
		return s.svc.Reconcile(loadCtx, p)
	})
	if missed {
		s.metrics.cacheMisses.Add(1)
	} else if err == nil {
		s.metrics.cacheHits.Add(1)
	}
	return rep, err
}

// render executes a page template, answering 500 when it fails.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		s.logger.LogError(r.Context(), "Templates not loaded", nil, applog.ComponentTemplate, applog.OpRender, nil)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.LogError(r.Context(), "Template execution failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, ""))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
