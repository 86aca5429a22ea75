package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"controle/internal/auth"
	"controle/internal/log"
	"controle/internal/middleware/ratelimit"
	"controle/internal/middleware/security"
	"controle/internal/services"
	"controle/internal/store"
	appweb "controle/web"
)

// Options holds the transport settings of the web server.
type Options struct {
	Addr               string
	SecureCookies      bool
	NotificationDelay  time.Duration
	RateLimitPerMinute int
	// Assets overrides the embedded templates and static files (tests).
	Assets fs.FS
}

// Deps are the services the handlers call.
type Deps struct {
	Movements *services.MovementService
	Dashboard *services.DashboardService
	Reports   *services.ReportService
	Auth      *auth.Provider
	Ready     store.Pinger
	Logger    *log.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	logger    *log.Logger

	movements *services.MovementService
	dashboard *services.DashboardService
	reports   *services.ReportService
	auth      *auth.Provider
	ready     store.Pinger

	rateLimiter       *ratelimit.Limiter
	detector          *security.Detector
	secureCookies     bool
	notificationDelay time.Duration
	startedAt         time.Time
	now               func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options, deps Deps) (*Server, error) {
	if deps.Movements == nil || deps.Dashboard == nil || deps.Reports == nil || deps.Auth == nil {
		return nil, errors.New("http: missing service dependency")
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Nop()
	}
	assets := opts.Assets
	if assets == nil {
		assets = appweb.FS
	}
	t, err := parseTemplates(assets)
	if err != nil {
		return nil, err
	}
	if opts.NotificationDelay <= 0 {
		opts.NotificationDelay = 2500 * time.Millisecond
	}

	s := &Server{
		templates:         t,
		logger:            logger.WithComponent(log.ComponentHTTP),
		movements:         deps.Movements,
		dashboard:         deps.Dashboard,
		reports:           deps.Reports,
		auth:              deps.Auth,
		ready:             deps.Ready,
		rateLimiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:          security.NewDetector(),
		secureCookies:     opts.SecureCookies,
		notificationDelay: opts.NotificationDelay,
		startedAt:         time.Now(),
		now:               time.Now,
	}

	mux := http.NewServeMux()
	s.routes(mux, assets)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux, assets fs.FS) {
	if sub, err := fs.Sub(assets, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	// Pages
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /resumo", s.requireSession(s.handleSummaryPartial))
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /registro", s.handleRegisterPage)
	mux.HandleFunc("POST /registro", s.handleRegister)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /perfil", s.requireSession(s.handleProfile))

	// Entry form
	mux.HandleFunc("GET /cadastro", s.requireSession(s.handleEntryPage))
	mux.HandleFunc("GET /cadastro/campos", s.requireSession(s.handleEntryFields))
	mux.HandleFunc("POST /movimentacoes", s.requireSession(s.handleCreateMovement))

	// Listing, edit and delete
	mux.HandleFunc("GET /movimentacao", s.requireSession(s.handleMovementList))
	mux.HandleFunc("GET /movimentacoes/{id}/editar", s.requireSession(s.handleEditModal))
	mux.HandleFunc("GET /movimentacoes/{id}/campos", s.requireSession(s.handleEditFields))
	mux.HandleFunc("POST /movimentacoes/{id}", s.requireSession(s.handleUpdateMovement))
	mux.HandleFunc("GET /movimentacoes/{id}/excluir", s.requireSession(s.handleDeleteModal))
	mux.HandleFunc("DELETE /movimentacoes/{id}", s.requireSession(s.handleDeleteMovement))

	// Reports
	mux.HandleFunc("GET /relatorios", s.requireSession(s.handleReportPage))
	mux.HandleFunc("GET /relatorios/dados", s.requireSession(s.handleReportData))
	mux.HandleFunc("GET /relatorios/pdf", s.requireSession(s.handleReportPDF))
	mux.HandleFunc("GET /relatorios/xlsx", s.requireSession(s.handleReportXLSX))

	// JSON API
	mux.HandleFunc("GET /api/movimentacoes", s.requireAPISession(s.handleAPIListMovements))
	mux.HandleFunc("POST /api/movimentacoes", s.requireAPISession(s.handleAPICreateMovement))
	mux.HandleFunc("GET /api/resumo", s.requireAPISession(s.handleAPISummary))
}

// middleware wraps the mux, outermost first: request logging, panic
// recovery, scan detection, security headers, rate limiting of mutating
// requests, session resolution.
func (s *Server) middleware(next http.Handler) http.Handler {
	h := s.sessionMiddleware(next)
	h = s.rateLimiter.Middleware(s.detector.ClientIP, ratelimit.Mutating, s.onRateLimited)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)
	h = s.recoverMiddleware(h)
	return log.RequestMiddleware(s.logger)(h)
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
