// Package server assembles the HTTP router and owns the server lifecycle.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"product-enricher/internal/common/ratelimit"
	"product-enricher/internal/handlers"
	"product-enricher/internal/middleware"
)

// Server wraps http.Server with graceful shutdown
type Server struct {
	srv *http.Server
}

// NewRouter builds the full route table with the middleware chain applied.
// The rate limiter only guards the enrichment endpoints; health, metrics and
// cache introspection stay unthrottled.
func NewRouter(h *handlers.Handlers, limiter *ratelimit.Limiter) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)
	router.Use(middleware.Metrics)

	router.HandleFunc("/health", h.Health).Methods("GET")
	router.HandleFunc("/ping", h.Ping).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/cache/stats", h.CacheStats).Methods("GET")
	api.HandleFunc("/cache/clear", h.CacheClear).Methods("POST")
	api.HandleFunc("/fields", h.ListFields).Methods("GET")

	enrich := api.PathPrefix("/products").Subrouter()
	if limiter != nil && limiter.Enabled() {
		enrich.Use(middleware.RateLimit(limiter))
	}
	enrich.HandleFunc("/enrich", h.EnrichProduct).Methods("POST")
	enrich.HandleFunc("/enrich/batch", h.EnrichBatch).Methods("POST")

	return router
}

// New creates a server listening on addr
func New(handler http.Handler, addr string) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Start starts the server in a goroutine. Startup failures other than a
// normal close are reported on the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
