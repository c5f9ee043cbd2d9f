// Package server exposes the request handler over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-michi/michi"
	"github.com/mscno/vaultenv/pkg/handler"
	"github.com/mscno/vaultenv/server/middleware"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/time/rate"
)

const (
	maxHeaderBytes    = 1 << 20
	maxBodyBytes      = 1 << 20
	readTimeout       = 30 * time.Second
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 30 * time.Second
	defaultRateLimit  = time.Second / 5
	defaultRateBurst  = 20
)

// Options configures the HTTP server. Zero values select the defaults.
type Options struct {
	Addr string
	// RateLimit is the sustained number of requests per second per client IP.
	RateLimit float64
	RateBurst int
	// DisableRateLimit turns the per-IP limiter off.
	DisableRateLimit bool
	// CORSOrigins lists the allowed origins; empty allows any.
	CORSOrigins []string
}

type Server struct {
	Server  *http.Server
	Router  *michi.Router
	handler *handler.Handler
	limiter *middleware.RateLimiter
	logger  *slog.Logger
}

// New builds a server routing to h. Requests pass through CORS, logging,
// recovery and rate limiting, in that order, and HTTP/2 cleartext is accepted
// next to HTTP/1.1.
func New(h *handler.Handler, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	router := michi.NewRouter()
	s := &Server{
		Router:  router,
		handler: h,
		logger:  logger,
	}
	s.routes()

	middlewares := []func(http.Handler) http.Handler{
		middleware.WithCORS(logger, opts.CORSOrigins...),
		middleware.WithLogger(logger),
		middleware.WithRecovery(logger),
	}
	if !opts.DisableRateLimit {
		limit := rate.Every(defaultRateLimit)
		if opts.RateLimit > 0 {
			limit = rate.Limit(opts.RateLimit)
		}
		burst := defaultRateBurst
		if opts.RateBurst > 0 {
			burst = opts.RateBurst
		}
		s.limiter = middleware.NewRateLimiter(logger, middleware.IPAddressKeyFunc, limit, burst,
			middleware.WithSkipper(func(r *http.Request) bool { return r.URL.Path == "/healthz" }))
		middlewares = append(middlewares, s.limiter.Limit)
	}

	s.Server = &http.Server{
		Addr:              opts.Addr,
		Handler:           h2c.NewHandler(applyMiddleware(router, middlewares...), &http2.Server{}),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}
	return s
}

// ServeHTTP implements the http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Server.Handler.ServeHTTP(w, r)
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.Server.Addr)
	err := s.Server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Debug("shutting down server")
	if s.limiter != nil {
		s.limiter.Stop()
	}
	err := s.Server.Shutdown(ctx)
	if err != nil {
		s.logger.Error("error shutting down server", "error", err)
		return err
	}
	return nil
}

func applyMiddleware(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	// Apply middleware in reverse order so the first middleware in the slice
	// is the outermost one (first to process the request)
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
