package healthprobe

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// HealthChecker provides liveness and readiness checks. The service is
// ready once a market snapshot exists, and stops being ready when the
// snapshot grows older than the staleness limit.
type HealthChecker struct {
	startTime  time.Time
	staleAfter time.Duration
	now        func() time.Time

	mu          sync.RWMutex
	lastRefresh time.Time
	warnings    []string
}

// New creates a HealthChecker. staleAfter <= 0 disables the staleness check.
func New(staleAfter time.Duration) *HealthChecker {
	return &HealthChecker{
		startTime:  time.Now(),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// MarkRefreshed records a completed snapshot and its venue warnings.
func (h *HealthChecker) MarkRefreshed(at time.Time, warnings []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastRefresh = at
	h.warnings = append([]string(nil), warnings...)
}

// IsReady reports whether a fresh enough snapshot exists.
func (h *HealthChecker) IsReady() bool {
	ready, _ := h.state()
	return ready
}

func (h *HealthChecker) state() (bool, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch {
	case h.lastRefresh.IsZero():
		return false, "waiting for first market snapshot"
	case h.staleAfter > 0 && h.now().Sub(h.lastRefresh) > h.staleAfter:
		return false, "market snapshot is stale"
	default:
		return true, ""
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string     `json:"status"`
	Uptime      string     `json:"uptime"`
	Message     string     `json:"message,omitempty"`
	LastRefresh *time.Time `json:"lastRefresh,omitempty"`
	Warnings    []string   `json:"warnings,omitempty"`
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK if the application is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status: "healthy",
			Uptime: time.Since(h.startTime).String(),
		})
	}
}

// Ready returns an HTTP handler for readiness checks.
// Returns 200 OK if ready, 503 Service Unavailable if not.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ready, reason := h.state()

		h.mu.RLock()
		resp := HealthResponse{
			Uptime:   time.Since(h.startTime).String(),
			Warnings: h.warnings,
		}
		if !h.lastRefresh.IsZero() {
			at := h.lastRefresh
			resp.LastRefresh = &at
		}
		h.mu.RUnlock()

		if !ready {
			resp.Status = "not_ready"
			resp.Message = reason
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}

		resp.Status = "ready"
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
