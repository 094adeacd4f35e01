package httpserver

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/mselser95/crossvenue-arb/internal/arbitrage"
	"github.com/mselser95/crossvenue-arb/internal/execution"
	"github.com/mselser95/crossvenue-arb/internal/scanner"
	"github.com/mselser95/crossvenue-arb/internal/storage"
	"github.com/mselser95/crossvenue-arb/pkg/types"
	"go.uber.org/zap"
)

var errNotFinite = errors.New("not a finite number")

const (
	maxTradeBodyBytes = 1 << 20
	maxListLimit      = 500
)

// MarketQuerier answers market queries from the current snapshot.
type MarketQuerier interface {
	RequestRefresh(ctx context.Context) (*scanner.Snapshot, bool)
	Query(ctx context.Context, minConfidence, minProfitPct float64) (*scanner.QueryResult, error)
}

// TradeSubmitter places user-confirmed hedges.
type TradeSubmitter interface {
	Submit(ctx context.Context, req *execution.SubmitRequest) (*execution.SubmitResult, error)
}

// TradeLister reads the trade log.
type TradeLister interface {
	ListTrades(ctx context.Context, limit int) ([]types.ArbTrade, error)
}

// APIHandler serves the market, trade and trade history endpoints.
type APIHandler struct {
	markets MarketQuerier
	trades  TradeSubmitter
	history TradeLister
	logger  *zap.Logger
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(markets MarketQuerier, trades TradeSubmitter, history TradeLister, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		markets: markets,
		trades:  trades,
		history: history,
		logger:  logger,
	}
}

// Envelope wraps every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TradeList is the payload of GET /api/trades.
type TradeList struct {
	Trades []types.ArbTrade `json:"trades"`
	Count  int              `json:"count"`
}

// HandleMarkets handles GET /api/markets?minConfidence=&minProfitPct=&refresh=.
func (h *APIHandler) HandleMarkets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	minConfidence, err := floatParam(q.Get("minConfidence"), arbitrage.DefaultMinConfidence)
	if err != nil {
		h.writeError(w, "minConfidence must be a number", http.StatusBadRequest)
		return
	}
	minProfitPct, err := floatParam(q.Get("minProfitPct"), arbitrage.DefaultMinProfitPct)
	if err != nil {
		h.writeError(w, "minProfitPct must be a number", http.StatusBadRequest)
		return
	}

	if q.Get("refresh") == "true" {
		h.markets.RequestRefresh(r.Context())
	}

	result, err := h.markets.Query(r.Context(), minConfidence, minProfitPct)
	if err != nil {
		h.logger.Error("market-query-failed", zap.Error(err))
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.logger.Debug("market-query-served",
		zap.Float64("min-confidence", minConfidence),
		zap.Float64("min-profit-pct", minProfitPct),
		zap.Int("opportunities", len(result.Opportunities)),
		zap.Int("warnings", len(result.Errors)))

	h.writeJSON(w, http.StatusOK, Envelope{Success: true, Data: result})
}

// HandleTrade handles POST /api/trade.
func (h *APIHandler) HandleTrade(w http.ResponseWriter, r *http.Request) {
	var req execution.SubmitRequest

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTradeBodyBytes)).Decode(&req)
	if err != nil {
		h.writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	result, err := h.trades.Submit(r.Context(), &req)
	if errors.Is(err, execution.ErrInvalidRequest) {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("trade-submit-failed", zap.Error(err))
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, Envelope{Success: result.Success, Data: result})
}

// HandleTrades handles GET /api/trades?limit=N, newest first.
func (h *APIHandler) HandleTrades(w http.ResponseWriter, r *http.Request) {
	limit := storage.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	trades, err := h.history.ListTrades(r.Context(), limit)
	if err != nil {
		h.logger.Error("trade-list-failed", zap.Error(err))
		h.writeError(w, "failed to list trades", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, Envelope{Success: true, Data: TradeList{Trades: trades, Count: len(trades)}})
}

func floatParam(raw string, defaultValue float64) (float64, error) {
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, statusCode int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *APIHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	h.writeJSON(w, statusCode, Envelope{Success: false, Error: message})
}
