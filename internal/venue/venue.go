// Package venue talks to the two prediction-market venues: it lists open
// markets as normalized types.Market records and places limit buy orders.
package venue

import (
	"context"
	"net/http"
	"time"

	"github.com/mselser95/crossvenue-arb/pkg/types"
	"go.uber.org/zap"
)

// OrderPlacer submits a limit buy for one side of a market and returns the
// venue's order id.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, creds types.Credentials, marketID string, side types.Side, price float64, amount int64) (string, error)
}

// Adapter is a venue that can list markets and take orders.
type Adapter interface {
	OrderPlacer
	Platform() types.Platform
	FetchMarkets(ctx context.Context) ([]types.Market, error)
}

// Config holds the settings shared by both venue clients.
type Config struct {
	// MarketsURL is the base URL of the market listing API.
	MarketsURL string
	// OrdersURL is the base URL of the order API. Defaults to MarketsURL.
	OrdersURL string

	PageSize       int
	PageDelay      time.Duration
	RateLimitDelay time.Duration
	MaxRetries     int
	MaxPages       int

	HTTPClient *http.Client
	Logger     *zap.Logger
}

const (
	defaultPageDelay      = 500 * time.Millisecond
	defaultRateLimitDelay = 2 * time.Second
	defaultMaxRetries     = 5
	defaultMaxPages       = 500
	defaultHTTPTimeout    = 30 * time.Second

	userAgent = "crossvenue-arb/1.0"
)

func (c *Config) withDefaults(pageSize int) Config {
	out := *c
	if out.OrdersURL == "" {
		out.OrdersURL = out.MarketsURL
	}
	if out.PageSize <= 0 {
		out.PageSize = pageSize
	}
	if out.PageDelay < 0 {
		out.PageDelay = defaultPageDelay
	}
	if out.RateLimitDelay <= 0 {
		out.RateLimitDelay = defaultRateLimitDelay
	}
	if out.MaxRetries < 0 {
		out.MaxRetries = defaultMaxRetries
	}
	if out.MaxPages <= 0 {
		out.MaxPages = defaultMaxPages
	}
	if out.HTTPClient == nil {
		out.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return out
}
