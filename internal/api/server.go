package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server exposes the ledger engine over HTTP.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// NewServer wires the routes and creates the HTTP server.
func NewServer(port int, handler *Handler, logger *zap.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(requireUser)

		r.Get("/portfolio", handler.GetPortfolio)
		r.Post("/portfolio/reset", handler.ResetPortfolio)
		r.Post("/portfolio/funds", handler.AddFunds)
		r.Get("/portfolio/analytics", handler.GetAnalytics)

		r.Post("/trade", handler.PlaceMarketOrder)
		r.Get("/trade/history", handler.TradeHistory)

		r.Post("/orders", handler.PlaceLimitOrder)
		r.Get("/orders", handler.ListLimitOrders)
		r.Delete("/orders/{id}", handler.CancelLimitOrder)

		r.Get("/leaderboard", handler.Leaderboard)
	})

	return &Server{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		},
		logger: logger.Named("api-server"),
	}
}

// Start runs the HTTP server in a new goroutine.
func (s *Server) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

// Router is exposed for tests.
func (s *Server) Router() http.Handler {
	return s.server.Handler
}
