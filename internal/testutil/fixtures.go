package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mselser95/crossvenue-arb/pkg/types"
)

// CreateTestMarket creates an open market on the given venue.
func CreateTestMarket(platform types.Platform, id, title string, yesPrice, noPrice float64) types.Market {
	return types.Market{
		ID:        id,
		Platform:  platform,
		Title:     title,
		Slug:      id,
		Category:  "test",
		EndDate:   "2026-12-31",
		YesPrice:  yesPrice,
		NoPrice:   noPrice,
		Volume:    1000,
		Liquidity: 100,
		Active:    true,
	}
}

// MatchingMarkets returns two venue lists with two profitable pairs and one
// unmatched market per venue.
//
//	pm-fed   / KXFED    YES pm 0.45 + NO kalshi 0.50 = 0.95 (5.26%)
//	pm-btc   / KXBTC    YES kalshi 0.40 + NO pm 0.50 = 0.90 (11.1%)
func MatchingMarkets() (polymarket, kalshi []types.Market) {
	polymarket = []types.Market{
		CreateTestMarket(types.PlatformPolymarket, "pm-fed", "Fed cuts rates in March", 0.45, 0.56),
		CreateTestMarket(types.PlatformPolymarket, "pm-btc", "Bitcoin above 100k on December 31", 0.62, 0.50),
		CreateTestMarket(types.PlatformPolymarket, "pm-nba", "Lakers win the NBA championship", 0.20, 0.81),
	}
	kalshi = []types.Market{
		CreateTestMarket(types.PlatformKalshi, "KXFED", "Fed cuts rates in March", 0.52, 0.50),
		CreateTestMarket(types.PlatformKalshi, "KXBTC", "Bitcoin above 100k on December 31", 0.40, 0.61),
		CreateTestMarket(types.PlatformKalshi, "KXRAIN", "Rain in Seattle tomorrow", 0.70, 0.31),
	}
	return polymarket, kalshi
}

// FakeSource is an in-memory market source.
type FakeSource struct {
	Venue types.Platform
	Calls atomic.Int32

	mu      sync.Mutex
	markets []types.Market
	err     error
	delay   time.Duration
	block   chan struct{}
}

// NewFakeSource creates a source serving the given markets.
func NewFakeSource(venue types.Platform, markets []types.Market) *FakeSource {
	return &FakeSource{Venue: venue, markets: markets}
}

// Platform returns the configured venue.
func (f *FakeSource) Platform() types.Platform {
	return f.Venue
}

// FetchMarkets returns the configured markets or error.
func (f *FakeSource) FetchMarkets(ctx context.Context) ([]types.Market, error) {
	f.Calls.Add(1)

	f.mu.Lock()
	delay, block := f.delay, f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-block:
		}
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	out := make([]types.Market, len(f.markets))
	copy(out, f.markets)
	return out, nil
}

// SetMarkets replaces the served markets.
func (f *FakeSource) SetMarkets(markets []types.Market) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markets = markets
}

// SetError makes fetches fail with err. Nil restores success.
func (f *FakeSource) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// SetDelay makes fetches wait before answering.
func (f *FakeSource) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// Block makes fetches wait until the returned release function is called.
func (f *FakeSource) Block() (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.block = ch
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.block = nil
			f.mu.Unlock()
			close(ch)
		})
	}
}
