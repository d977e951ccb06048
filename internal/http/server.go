package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	applog "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/log"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/middleware/ratelimit"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/middleware/security"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/middleware/trace"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/services"
)

// Service ports consumed by the handlers.
type (
	AttendanceService interface {
		Submit(ctx context.Context, snap core.Snapshot) (core.Snapshot, error)
		List(ctx context.Context, month string) ([]core.Snapshot, error)
	}

	ReportService interface {
		ClassReports(ctx context.Context, month string) ([]core.ClassReport, error)
		Statistics(ctx context.Context) ([]core.StudentStatistics, error)
	}

	ExclusionService interface {
		List(ctx context.Context) ([]core.Exclusion, error)
		Add(ctx context.Context, e core.Exclusion) (core.Exclusion, error)
		Delete(ctx context.Context, id string) error
	}

	CalendarService interface {
		Get(ctx context.Context) (core.CalendarSettings, error)
		Save(ctx context.Context, cs core.CalendarSettings) (core.CalendarSettings, error)
	}

	ImportService interface {
		ImportGrid(ctx context.Context, r io.Reader, opts services.GridImport) ([]core.Snapshot, error)
		ImportRoster(ctx context.Context, r io.Reader) (services.RosterResult, error)
	}
)

// Dependencies groups the services behind the API.
type Dependencies struct {
	Attendance AttendanceService
	Reports    ReportService
	Exclusions ExclusionService
	Calendar   CalendarService
	Import     ImportService

	// Ready is probed by /readyz; nil means always ready.
	Ready func(ctx context.Context) error
}

// Options tunes the server.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	MaxUploadBytes     int64
	Location           *time.Location
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	deps    Dependencies
	decoder *RequestDecoder
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	loc     *time.Location
	now     func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(opts Options, deps Dependencies) *Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}

	detector := security.NewDetector()
	s := &Server{
		deps:    deps,
		decoder: NewRequestDecoder(opts.MaxUploadBytes),
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:  trace.NewMiddleware(detector.ExtractClientIP),
		loc:     opts.Location,
		now:     time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/attendance", s.handleListAttendance)
	mux.HandleFunc("POST /api/attendance", s.handleSubmitAttendance)
	mux.HandleFunc("GET /api/reports", s.handleReports)
	mux.HandleFunc("GET /api/reports/excel", s.handleReportsExcel)
	mux.HandleFunc("GET /api/statistics", s.handleStatistics)
	mux.HandleFunc("GET /api/statistics/excel", s.handleStatisticsExcel)
	mux.HandleFunc("GET /api/exclusions", s.handleListExclusions)
	mux.HandleFunc("POST /api/exclusions", s.handleAddExclusion)
	mux.HandleFunc("DELETE /api/exclusions/{id}", s.handleDeleteExclusion)
	mux.HandleFunc("GET /api/calendar", s.handleGetCalendar)
	mux.HandleFunc("PUT /api/calendar", s.handleSaveCalendar)
	mux.HandleFunc("POST /api/import/attendance-csv", s.handleImportGrid)
	mux.HandleFunc("POST /api/import/roster", s.handleImportRoster)

	onLimit := func(w http.ResponseWriter, r *http.Request) {
		slog.WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldComponent, applog.ComponentRateLimit,
			applog.FieldClientIP, detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "muitas requisições, tente novamente em instantes").
			Header("Retry-After", "60").
			Write(w)
	}

	// Outermost first.
	chain := []func(http.Handler) http.Handler{
		s.tracer.Middleware,
		applog.Middleware(opts.Logger.WithComponent(applog.ComponentHTTP)),
		applog.RequestIDMiddleware(trace.RequestIDFromRequest),
		detector.Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		s.limiter.Middleware(detector.ExtractClientIP, onLimit, http.MethodPost, http.MethodPut, http.MethodDelete),
	}
	var handler http.Handler = mux
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics returns request counters for diagnostics.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Data(map[string]string{"status": "ready"}).Write(w)
}
