package web

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vbonduro/stockgate/internal/access"
	"github.com/vbonduro/stockgate/internal/domain"
	"github.com/vbonduro/stockgate/internal/inventory"
	"github.com/vbonduro/stockgate/internal/photostore"
)

// inventoryService is the subset of inventory.Service the web pages require.
type inventoryService interface {
	Search(name string) (domain.Item, error)
	List() []domain.Item
	Totals() inventory.Totals
	PhotoRestockEnabled() bool
	RestockFromPhoto(ctx context.Context, imageData []byte, mimeType string) (*inventory.IntakeReport, error)
}

// gateService is the subset of access.Gate the web pages require.
type gateService interface {
	Enter(ctx context.Context, a access.Attempt) (access.Decision, error)
	IsOpen() bool
}

type userDirectory interface {
	Categories() []domain.Category
	Usernames(c domain.Category) ([]string, error)
}

type Option func(*Server)

// WithInventory serves the inventory pages. ps may be nil when photos are not archived.
func WithInventory(svc inventoryService, ps photostore.PhotoStore) Option {
	return func(s *Server) {
		s.inventory = svc
		s.photoStore = ps
	}
}

// WithGate serves the gate form.
func WithGate(gate gateService, users userDirectory) Option {
	return func(s *Server) {
		s.gate = gate
		s.users = users
	}
}

type Server struct {
	inventory  inventoryService
	photoStore photostore.PhotoStore
	gate       gateService
	users      userDirectory
	templates  fs.FS
	mux        *http.ServeMux
	tmplFuncs  template.FuncMap
	logger     *slog.Logger
}

func NewServer(tmpl fs.FS, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		templates: tmpl,
		mux:       http.NewServeMux(),
		logger:    logger,
		tmplFuncs: template.FuncMap{
			"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		},
	}
	for _, o := range opts {
		o(s)
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	home := "/gate"
	if s.inventory != nil {
		home = "/inventory"
	}
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, home, http.StatusSeeOther)
	})

	if s.gate != nil {
		s.mux.HandleFunc("GET /gate", s.handleGateForm)
		s.mux.HandleFunc("POST /gate/enter", s.handleGateEnter)
		s.mux.HandleFunc("GET /gate/status", s.handleGateStatus)
	}
	if s.inventory != nil {
		s.mux.HandleFunc("GET /inventory", s.handleListInventory)
		s.mux.HandleFunc("GET /inventory/search", s.handleSearch)
		s.mux.HandleFunc("POST /inventory/photos", s.handleUploadPhoto)
		s.mux.HandleFunc("GET /inventory/photos/{key}", s.handleGetPhoto)
	}
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data:; "+
				"form-action 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// pageData returns the fields every page reads from base.html.
func (s *Server) pageData(title, active string) map[string]any {
	return map[string]any{
		"Title":         title,
		"ActiveNav":     active,
		"ShowInventory": s.inventory != nil,
		"ShowGate":      s.gate != nil,
	}
}

// renderPage parses a full-page template set and writes it with status.
// Nothing is written if execution fails.
func (s *Server) renderPage(w http.ResponseWriter, status int, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}
