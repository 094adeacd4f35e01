package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/mselser95/crossvenue-arb/pkg/types"
)

// MockGammaAPI simulates the Polymarket Gamma /markets listing with offset
// pagination, and the CLOB /order endpoint. Markets are served in Gamma's
// record shape.
type MockGammaAPI struct {
	*httptest.Server
	Markets  []types.Market
	Requests atomic.Int32
	Orders   []map[string]any

	mu        sync.RWMutex
	failWith  int
	orderErr  int
	orderSeq  int
	rateLimit atomic.Int32
}

// NewMockGammaAPI creates a new mock Gamma API server.
func NewMockGammaAPI(markets []types.Market) *MockGammaAPI {
	mock := &MockGammaAPI{Markets: markets}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/order" {
			mock.handleOrder(w, r)
			return
		}

		mock.Requests.Add(1)

		if r.URL.Path != "/markets" {
			http.NotFound(w, r)
			return
		}
		if mock.rateLimit.Load() > 0 {
			mock.rateLimit.Add(-1)
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		mock.mu.RLock()
		defer mock.mu.RUnlock()

		if mock.failWith != 0 {
			w.WriteHeader(mock.failWith)
			_, _ = w.Write([]byte(`{"error":"mock failure"}`))
			return
		}

		limit := atoiOr(r.URL.Query().Get("limit"), 100)
		offset := atoiOr(r.URL.Query().Get("offset"), 0)

		records := make([]map[string]any, 0, limit)
		for i := offset; i < len(mock.Markets) && i < offset+limit; i++ {
			records = append(records, gammaRecord(&mock.Markets[i]))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(records)
	})

	mock.Server = httptest.NewServer(handler)
	return mock
}

// FailWith makes every listing request answer with the given status.
// Zero restores normal behaviour.
func (m *MockGammaAPI) FailWith(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = status
}

func (m *MockGammaAPI) handleOrder(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.Header.Get("POLY_API_KEY") == "" || r.Header.Get("POLY_SIGNATURE") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"missing auth headers"}`))
		return
	}
	if m.orderErr != 0 {
		w.WriteHeader(m.orderErr)
		_, _ = w.Write([]byte(`{"error":"not enough balance / allowance"}`))
		return
	}

	var order map[string]any
	err := json.NewDecoder(r.Body).Decode(&order)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m.Orders = append(m.Orders, order)
	m.orderSeq++

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"orderID": fmt.Sprintf("pm-order-%d", m.orderSeq),
		"status":  "live",
	})
}

// RejectOrdersWith makes every order request answer with the given status.
func (m *MockGammaAPI) RejectOrdersWith(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderErr = status
}

// OrderCount returns the number of accepted orders.
func (m *MockGammaAPI) OrderCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Orders)
}

// RateLimitNext makes the next n requests answer 429.
func (m *MockGammaAPI) RateLimitNext(n int) {
	m.rateLimit.Store(int32(n))
}

// SetMarkets replaces the served markets.
func (m *MockGammaAPI) SetMarkets(markets []types.Market) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Markets = markets
}

func gammaRecord(m *types.Market) map[string]any {
	return map[string]any{
		"id":              "gamma-" + m.ID,
		"conditionId":     m.ID,
		"question":        m.Title,
		"slug":            m.Slug,
		"category":        m.Category,
		"endDateIso":      m.EndDate,
		"outcomePrices":   fmt.Sprintf(`["%v", "%v"]`, m.YesPrice, m.NoPrice),
		"volume":          strconv.FormatFloat(m.Volume, 'f', -1, 64),
		"liquidity":       m.Liquidity,
		"active":          true,
		"closed":          false,
		"enableOrderBook": true,
	}
}

// MockKalshiAPI simulates the Kalshi /markets listing with cursor
// pagination and the /portfolio/orders endpoint.
type MockKalshiAPI struct {
	*httptest.Server
	Markets  []types.Market
	Requests atomic.Int32
	Orders   []map[string]any

	mu       sync.RWMutex
	failWith int
	orderErr int
	orderSeq int
}

// NewMockKalshiAPI creates a new mock Kalshi API server.
func NewMockKalshiAPI(markets []types.Market) *MockKalshiAPI {
	mock := &MockKalshiAPI{Markets: markets}

	mux := http.NewServeMux()
	mux.HandleFunc("/markets", mock.handleMarkets)
	mux.HandleFunc("/portfolio/orders", mock.handleOrder)

	mock.Server = httptest.NewServer(mux)
	return mock
}

func (m *MockKalshiAPI) handleMarkets(w http.ResponseWriter, r *http.Request) {
	m.Requests.Add(1)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failWith != 0 {
		w.WriteHeader(m.failWith)
		_, _ = w.Write([]byte(`{"error":"mock failure"}`))
		return
	}

	limit := atoiOr(r.URL.Query().Get("limit"), 200)
	offset := atoiOr(r.URL.Query().Get("cursor"), 0)

	records := make([]map[string]any, 0, limit)
	for i := offset; i < len(m.Markets) && i < offset+limit; i++ {
		records = append(records, kalshiRecord(&m.Markets[i]))
	}

	cursor := ""
	if offset+limit < len(m.Markets) {
		cursor = strconv.Itoa(offset + limit)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"markets": records, "cursor": cursor})
}

func (m *MockKalshiAPI) handleOrder(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.orderErr != 0 {
		w.WriteHeader(m.orderErr)
		_, _ = w.Write([]byte(`{"error":{"code":"order_rejected","message":"mock rejection"}}`))
		return
	}

	var order map[string]any
	err := json.NewDecoder(r.Body).Decode(&order)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m.Orders = append(m.Orders, order)
	m.orderSeq++

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"order": map[string]any{"order_id": fmt.Sprintf("kx-order-%d", m.orderSeq), "status": "resting"},
	})
}

// FailWith makes every listing request answer with the given status.
func (m *MockKalshiAPI) FailWith(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = status
}

// RejectOrdersWith makes every order request answer with the given status.
func (m *MockKalshiAPI) RejectOrdersWith(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderErr = status
}

// OrderCount returns the number of accepted orders.
func (m *MockKalshiAPI) OrderCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Orders)
}

func kalshiRecord(m *types.Market) map[string]any {
	return map[string]any{
		"ticker":          m.ID,
		"title":           m.Title,
		"category":        m.Category,
		"status":          "active",
		"close_time":      m.EndDate,
		"yes_ask_dollars": strconv.FormatFloat(m.YesPrice, 'f', 4, 64),
		"no_ask_dollars":  strconv.FormatFloat(m.NoPrice, 'f', 4, 64),
		"volume":          m.Volume,
		"open_interest":   m.Liquidity,
	}
}

func atoiOr(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
