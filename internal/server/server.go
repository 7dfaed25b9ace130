package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/forkmarket/market-data/internal/exchange"
	"github.com/forkmarket/market-data/internal/model"
	"github.com/forkmarket/market-data/internal/trading"
)

// ReadStore is the store surface the read endpoints need.
type ReadStore interface {
	GetEventBySlug(ctx context.Context, slug string) (*model.Event, error)
	GetMarketsByEventSlug(ctx context.Context, slug string) ([]model.Market, error)
	GetOutcomesByConditionIDs(ctx context.Context, conditionIDs []string) ([]model.Outcome, error)
	GetRecentTrades(ctx context.Context, tokenID string, limit int) ([]model.RecentTrade, error)
	GetUserByToken(ctx context.Context, token string) (*model.User, error)
}

// Refresher decides staleness and schedules background refreshes.
type Refresher interface {
	ShouldRefresh(m *model.Market) bool
	TriggerRefresh(slug string)
}

// BookSource fetches live order books from the exchange.
type BookSource interface {
	FetchOrderBook(ctx context.Context, tokenID string) (*exchange.OrderBook, error)
}

// OrderSubmitter runs the order submission pipeline.
type OrderSubmitter interface {
	Submit(ctx context.Context, user *model.User, in *trading.OrderInput) (*trading.Receipt, error)
}

// Pinger reports backing-store liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves the HTTP API.
type Server struct {
	store     ReadStore
	refresher Refresher
	books     BookSource
	orders    OrderSubmitter
	db        Pinger
	logger    *slog.Logger

	httpServer *http.Server
}

// New creates a Server listening on the given port.
func New(port int, store ReadStore, refresher Refresher, books BookSource, orders OrderSubmitter, db Pinger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:     store,
		refresher: refresher,
		books:     books,
		orders:    orders,
		db:        db,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/events/{slug}", s.handleGetEvent)
	mux.HandleFunc("GET /api/book", s.handleGetBook)
	mux.HandleFunc("GET /api/trades", s.handleGetTrades)
	mux.HandleFunc("POST /api/orders", s.handleSubmitOrder)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Handler exposes the mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving. Blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
