package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/forkmarket/market-data/internal/exchange"
	"github.com/forkmarket/market-data/internal/model"
	"github.com/forkmarket/market-data/internal/store"
	"github.com/forkmarket/market-data/internal/trading"
)

// eventResponse is the GET /api/events/{slug} payload.
type eventResponse struct {
	Event    *model.Event    `json:"event"`
	Markets  []model.Market  `json:"markets"`
	Outcomes []model.Outcome `json:"outcomes"`

	// Stale reports that at least one market's snapshot exceeded the
	// staleness threshold; a background refresh has been scheduled.
	Stale bool `json:"stale"`
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	ctx := r.Context()

	event, err := s.store.GetEventBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		s.logger.Error("get event failed", "slug", slug, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	markets, err := s.store.GetMarketsByEventSlug(ctx, slug)
	if err != nil {
		s.logger.Error("get markets failed", "slug", slug, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	outcomes, err := s.store.GetOutcomesByConditionIDs(ctx, event.ConditionIDs)
	if err != nil {
		s.logger.Error("get outcomes failed", "slug", slug, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Serve whatever the store holds right now; freshness arrives on a
	// later request.
	stale := len(markets) == 0
	for i := range markets {
		if s.refresher.ShouldRefresh(&markets[i]) {
			stale = true
			break
		}
	}
	if stale {
		s.refresher.TriggerRefresh(slug)
	}

	writeJSON(w, http.StatusOK, eventResponse{
		Event:    event,
		Markets:  markets,
		Outcomes: outcomes,
		Stale:    stale,
	})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	tokenID := r.URL.Query().Get("token_id")
	if tokenID == "" {
		writeError(w, http.StatusBadRequest, "token_id is required")
		return
	}

	book, err := s.books.FetchOrderBook(r.Context(), tokenID)
	if err != nil {
		s.writeExchangeError(w, err, "fetch order book", tokenID)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	tokenID := r.URL.Query().Get("token_id")
	if tokenID == "" {
		writeError(w, http.StatusBadRequest, "token_id is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	trades, err := s.store.GetRecentTrades(r.Context(), tokenID, limit)
	if err != nil {
		s.logger.Error("get trades failed", "token_id", tokenID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token_id": tokenID,
		"trades":   trades,
	})
}

// orderResponse is the POST /api/orders success payload.
type orderResponse struct {
	OrderID         int64  `json:"order_id"`
	ExchangeOrderID string `json:"exchange_order_id"`
	TotalFee        string `json:"total_fee"`
	AffiliateFee    string `json:"affiliate_fee"`
	ForkFee         string `json:"fork_fee"`
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	user, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var in trading.OrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	receipt, err := s.orders.Submit(r.Context(), user, &in)
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, orderResponse{
		OrderID:         receipt.OrderID,
		ExchangeOrderID: receipt.ExchangeOrderID,
		TotalFee:        receipt.Split.TotalFee.String(),
		AffiliateFee:    receipt.Split.AffiliateFee.String(),
		ForkFee:         receipt.Split.ForkFee.String(),
	})
}

// authenticate resolves the bearer session token to a user.
func (s *Server) authenticate(r *http.Request) (*model.User, error) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return nil, trading.ErrUnauthenticated
	}
	user, err := s.store.GetUserByToken(r.Context(), token)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// writeSubmitError maps pipeline errors onto HTTP responses. Exchange
// rejections keep the exchange's own status and body.
func (s *Server) writeSubmitError(w http.ResponseWriter, err error) {
	var verr *trading.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": verr.Message,
			"field": verr.Field,
		})
		return
	}
	if errors.Is(err, trading.ErrUnauthenticated) {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if errors.Is(err, trading.ErrPersistFailed) {
		// The exchange accepted the order; only the local record is
		// missing. The client must not resubmit.
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "order accepted by exchange but not recorded; do not resubmit",
			"code":  "persist_failed",
		})
		return
	}

	s.writeExchangeError(w, err, "submit order", "")
}

// writeExchangeError maps exchange client errors onto HTTP responses.
func (s *Server) writeExchangeError(w http.ResponseWriter, err error, op, tokenID string) {
	var exErr *exchange.ExchangeError
	if errors.As(err, &exErr) {
		// Pass the exchange's rejection through verbatim.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(exErr.StatusCode)
		w.Write(exErr.Body)
		return
	}
	if errors.Is(err, exchange.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusGatewayTimeout, "exchange timed out")
		return
	}

	s.logger.Error(op+" failed", "token_id", tokenID, "error", err)
	writeError(w, http.StatusBadGateway, "exchange unavailable")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}{
		Status:     "healthy",
		Components: make(map[string]any),
	}

	if err := s.db.Ping(ctx); err != nil {
		health.Status = "unhealthy"
		health.Components["postgres"] = map[string]string{
			"status": "disconnected",
			"error":  err.Error(),
		}
	} else {
		health.Components["postgres"] = "connected"
	}

	status := http.StatusOK
	if health.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
