// Package api exposes the shop to a game host over HTTP. The host reports
// player connects and disconnects; players' clients query points and buy
// offers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/fadedpez/playtimeshop/internal/logging"
	"github.com/fadedpez/playtimeshop/pkg/catalog"
	"github.com/fadedpez/playtimeshop/pkg/entities"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Shop is the shop surface served over HTTP
type Shop interface {
	OnConnect(ctx context.Context, playerID string) error
	OnDisconnect(ctx context.Context, playerID string) (int64, error)
	ShowPoints(ctx context.Context, playerID string) (int64, error)
	Buy(ctx context.Context, playerID, offerText string) (entities.PurchaseResult, error)
	Catalog() *catalog.Catalog
	Rate() entities.RewardRate
}

// Server is the shop's HTTP API
type Server struct {
	shop    Shop
	logger  *logging.Logger
	metrics http.Handler // nil disables /metrics
}

// NewServer creates a new API server
func NewServer(shop Shop, logger *logging.Logger) *Server {
	return &Server{shop: shop, logger: logging.OrDefault(logger)}
}

// EnableMetrics serves the instruments gathered by g on /metrics
func (s *Server) EnableMetrics(g prometheus.Gatherer) {
	s.metrics = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Handler returns the chi router with all routes mounted
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)

		r.Route("/players/{playerID}", func(r chi.Router) {
			r.Post("/connect", s.handleConnect)
			r.Post("/disconnect", s.handleDisconnect)
			r.Get("/points", s.handlePoints)
			r.Post("/purchases", s.handlePurchase)
		})
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	return r
}

// requestLogger logs one line per request at DEBUG, or WARN for server errors
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logf := s.logger.Debug
			if status >= http.StatusInternalServerError {
				logf = s.logger.Warn
			}
			logf("[API] %s %s %d %s (%s)", r.Method, r.URL.Path, status,
				time.Since(start).Round(time.Microsecond), middleware.GetReqID(r.Context()))
		}()

		next.ServeHTTP(ww, r)
	})
}
