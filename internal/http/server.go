// Package http serves the ledger page and its form actions.
package http

import (
	"context"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"kesef/internal/app"
	"kesef/internal/log"
	"kesef/internal/middleware/ratelimit"
	"kesef/internal/middleware/security"
	"kesef/internal/middleware/trace"
	"kesef/internal/view"
	appweb "kesef/web"
)

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	RateLimitPerMinute int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration

	// TrustProxyHeaders takes the client address from X-Forwarded-For
	// and X-Real-IP; enable only behind a reverse proxy
	TrustProxyHeaders bool
	Logger            *log.Logger
}

type Server struct {
	http.Server
	store    *app.Store
	renderer *view.Renderer
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	clientIP func(*http.Request) string
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware around store and renderer,
// returning a ready-to-run http.Server.
func NewServer(addr string, store *app.Store, renderer *view.Renderer, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	r := mux.NewRouter()
	clientIP := clientIPFunc(opts.TrustProxyHeaders)
	s := &Server{
		Server: http.Server{
			Addr:           addr,
			Handler:        r,
			ReadTimeout:    orDefault(opts.ReadTimeout, 10*time.Second),
			WriteTimeout:   orDefault(opts.WriteTimeout, 10*time.Second),
			IdleTimeout:    orDefault(opts.IdleTimeout, 60*time.Second),
			MaxHeaderBytes: 1 << 16, // 64KB
		},
		store:    store,
		renderer: renderer,
		logger:   logger,
		limiter:  ratelimit.New(ratelimit.Config{Limit: opts.RateLimitPerMinute, Period: time.Minute}),
		tracer:   trace.NewMiddleware(logger, clientIP),
		clientIP: clientIP,
		started:  time.Now(),
	}

	chain := []mux.MiddlewareFunc{
		log.Middleware(logger),
		s.tracer.Middleware,
		security.NewHeaders(security.DefaultPolicy()).Middleware,
		security.NoStore,
	}
	r.Use(chain...)

	// mux skips r.Use middleware when no route matches, so the fallback
	// handlers get the same chain explicitly.
	r.NotFoundHandler = wrap(http.HandlerFunc(s.handleNotFound), chain)
	r.MethodNotAllowedHandler = wrap(http.HandlerFunc(s.handleMethodNotAllowed), chain)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.PathPrefix("/static/").Handler(security.Cacheable(time.Hour)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/summary", s.handleSummary).Methods(http.MethodGet)
	r.HandleFunc("/export.xlsx", s.handleExport).Methods(http.MethodGet)

	// Every state change goes through the rate limiter.
	mut := r.NewRoute().Subrouter()
	mut.Use(s.limiter.Middleware(clientIP, s.onRateLimited))
	mut.HandleFunc("/transactions", s.handleSubmit).Methods(http.MethodPost)
	mut.HandleFunc("/transactions/{id}", s.handleDelete).Methods(http.MethodDelete)
	mut.HandleFunc("/transactions/{id}/delete", s.handleDelete).Methods(http.MethodPost)
	mut.HandleFunc("/view/{view}", s.handleSetView).Methods(http.MethodPost)
	mut.HandleFunc("/theme", s.handleToggleTheme).Methods(http.MethodPost)
	mut.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost)

	return s
}

// Shutdown stops the limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.clientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path,
		"retry_after", retryAfter.String())
	ratelimit.SetRetryAfter(w, retryAfter)
	if wantsJSON(r) {
		writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

// wrap applies chain so that chain[0] runs first.
func wrap(h http.Handler, chain []mux.MiddlewareFunc) http.Handler {
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
