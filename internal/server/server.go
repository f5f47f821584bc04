// Package server is the web surface: sign-in, upload form, batch run and
// downloads.
package server

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/porticus-lab/invoice-pdf/auth"
	"github.com/porticus-lab/invoice-pdf/batch"
)

//go:embed templates/*.html
var templates embed.FS

var indexTmpl = template.Must(template.ParseFS(templates, "templates/index.html"))

// DefaultMaxUpload bounds one /convert request body.
const DefaultMaxUpload = 64 << 20

// Config configures a Server.
type Config struct {
	Gate   *auth.Gate
	Runner *batch.Runner
	// DefaultCredential prefills the upload form and is used when the
	// request carries none.
	DefaultCredential string
	MaxUpload         int64
	Logger            *slog.Logger
}

// Server holds the last batch result of each signed-in user. Batches run
// one at a time since they share one render target.
type Server struct {
	cfg Config
	log *slog.Logger

	run sync.Mutex

	mu      sync.RWMutex
	results map[string]*batch.Result
}

// New returns a Server. Gate and Runner are required.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	return &Server{
		cfg:     cfg,
		log:     cfg.Logger,
		results: make(map[string]*batch.Result),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Mount("/auth", s.cfg.Gate.Routes())

	r.Group(func(r chi.Router) {
		r.Use(s.cfg.Gate.Require)
		r.Get("/", s.handleIndex)
		r.Post("/convert", s.handleConvert)
		r.Get("/results", s.handleResults)
		r.Get("/results/archive.zip", s.handleArchive)
		r.Get("/results/{index}", s.handleDownload)
	})
	return r
}

// NewHTTPServer wraps Handler with timeouts suited to slow batch renders.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) result(email string) *batch.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results[email]
}

func (s *Server) setResult(email string, res *batch.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[email] = res
}
