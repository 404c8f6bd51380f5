package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"paper-trading-go/internal/ledger"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handler holds dependencies for the API endpoints.
type Handler struct {
	log    *zap.Logger
	engine *ledger.Engine
}

// NewHandler creates a new Handler.
func NewHandler(log *zap.Logger, engine *ledger.Engine) *Handler {
	return &Handler{log: log, engine: engine}
}

// userID extracts the caller's user id. Authentication itself is out of
// scope; an upstream proxy is expected to set this header.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the engine's error kinds to HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrInvalidArgument),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientHoldings):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrInvalidOrderState):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrQuoteUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrForbidden):
		status = http.StatusForbidden
	}
	if status == http.StatusInternalServerError {
		h.log.Error("Request failed", zap.Error(err))
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// GetPortfolio returns the refreshed portfolio. The refresh also writes
// the daily snapshot and sweeps pending limit orders.
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.engine.GetPortfolio(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

type tradeRequest struct {
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
	Type     string `json:"type"`
}

// PlaceMarketOrder executes a market BUY/SELL at the current quote price.
func (h *Handler) PlaceMarketOrder(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	trade, err := h.engine.PlaceMarketOrder(r.Context(), userID(r), req.Symbol, req.Quantity, req.Type)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, trade)
}

// TradeHistory returns the caller's trade ledger, newest first.
func (h *Handler) TradeHistory(w http.ResponseWriter, r *http.Request) {
	trades, err := h.engine.TradeHistory(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, trades)
}

type limitOrderRequest struct {
	Symbol      string          `json:"symbol"`
	Quantity    int64           `json:"quantity"`
	TargetPrice decimal.Decimal `json:"targetPrice"`
	Type        string          `json:"type"`
}

// PlaceLimitOrder submits a resting limit order.
func (h *Handler) PlaceLimitOrder(w http.ResponseWriter, r *http.Request) {
	var req limitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	order, err := h.engine.PlaceLimitOrder(r.Context(), userID(r), req.Symbol, req.Quantity, req.TargetPrice, req.Type)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, order)
}

// ListLimitOrders returns all of the caller's limit orders.
func (h *Handler) ListLimitOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.engine.ListLimitOrders(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, orders)
}

// CancelLimitOrder cancels a PENDING order owned by the caller.
func (h *Handler) CancelLimitOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if err := h.engine.CancelLimitOrder(r.Context(), userID(r), orderID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetAnalytics returns the derived risk statistics and snapshot history.
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.engine.GetAnalytics(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, analytics)
}

// ResetPortfolio restores the starting balance and clears the trade ledger.
func (h *Handler) ResetPortfolio(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ResetPortfolio(r.Context(), userID(r)); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "portfolio reset successfully"})
}

type addFundsRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// AddFunds credits simulated cash to the caller's portfolio.
func (h *Handler) AddFunds(w http.ResponseWriter, r *http.Request) {
	var req addFundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	p, err := h.engine.AddFunds(r.Context(), userID(r), req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// leaderboardEntry is the public slice of a portfolio.
type leaderboardEntry struct {
	UserID     string          `json:"userId"`
	TotalValue decimal.Decimal `json:"totalValue"`
	TotalPL    decimal.Decimal `json:"totalPL"`
}

// Leaderboard ranks portfolios by total value.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.engine.Leaderboard(r.Context(), 25)
	if err != nil {
		h.writeError(w, err)
		return
	}
	entries := make([]leaderboardEntry, 0, len(portfolios))
	for i := range portfolios {
		entries = append(entries, leaderboardEntry{
			UserID:     portfolios[i].UserID,
			TotalValue: portfolios[i].TotalValue,
			TotalPL:    portfolios[i].TotalPL,
		})
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// requireUser rejects requests without a user id header.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID(r) == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(errorResponse{Error: "missing X-User-ID header"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
