// Package scanner owns the periodic ingest-and-match cycle and the current
// market snapshot.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mselser95/crossvenue-arb/internal/arbitrage"
	"github.com/mselser95/crossvenue-arb/internal/discovery"
	"github.com/mselser95/crossvenue-arb/pkg/types"
	"go.uber.org/zap"
)

// Ingester fetches one cycle of markets from both venues.
type Ingester interface {
	Ingest(ctx context.Context) *discovery.Result
}

// OpportunityStore receives the opportunities of every new snapshot.
type OpportunityStore interface {
	Store(opps []types.ArbOpportunity) int
}

// Snapshot is an immutable view of one refresh cycle.
type Snapshot struct {
	Polymarket    []types.Market
	Kalshi        []types.Market
	Opportunities []types.ArbOpportunity
	Warnings      []string
	MinConfidence float64
	MinProfitPct  float64
	RefreshedAt   time.Time
	Duration      time.Duration
}

// Counts returns the number of markets per venue.
func (s *Snapshot) Counts() MarketCounts {
	return MarketCounts{Polymarket: len(s.Polymarket), Kalshi: len(s.Kalshi)}
}

// Scanner refreshes the snapshot on an interval. Refreshes never overlap: a
// refresh requested while another is running is skipped.
type Scanner struct {
	ingester      Ingester
	matcher       *arbitrage.Matcher
	store         OpportunityStore
	interval      time.Duration
	minConfidence float64
	minProfitPct  float64
	onSnapshot    func(*Snapshot)
	timeout       time.Duration
	logger        *zap.Logger

	snapshot   atomic.Pointer[Snapshot]
	refreshing atomic.Bool
	ready      chan struct{}
	readyOnce  sync.Once
}

// Config holds scanner configuration.
type Config struct {
	Ingester Ingester
	Matcher  *arbitrage.Matcher
	// Store is optional.
	Store OpportunityStore
	// Interval <= 0 disables the timer; only the initial refresh runs.
	Interval      time.Duration
	MinConfidence float64
	MinProfitPct  float64
	// OnSnapshot is called after each new snapshot is published. Optional.
	OnSnapshot func(*Snapshot)
	// RefreshTimeout bounds refreshes requested by callers. Defaults to
	// DefaultRefreshTimeout.
	RefreshTimeout time.Duration
	Logger         *zap.Logger
}

// DefaultRefreshTimeout bounds a caller-requested refresh.
const DefaultRefreshTimeout = 2 * time.Minute

// New creates a new scanner.
func New(cfg *Config) *Scanner {
	timeout := cfg.RefreshTimeout
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}

	return &Scanner{
		ingester:      cfg.Ingester,
		matcher:       cfg.Matcher,
		store:         cfg.Store,
		interval:      cfg.Interval,
		minConfidence: cfg.MinConfidence,
		minProfitPct:  cfg.MinProfitPct,
		onSnapshot:    cfg.OnSnapshot,
		timeout:       timeout,
		logger:        cfg.Logger,
		ready:         make(chan struct{}),
	}
}

// Run refreshes immediately and then on every tick until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.Info("scanner-starting",
		zap.Duration("interval", s.interval),
		zap.Float64("min-confidence", s.minConfidence),
		zap.Float64("min-profit-pct", s.minProfitPct))

	s.Refresh(ctx)

	if s.interval <= 0 {
		<-ctx.Done()
		s.logger.Info("scanner-stopping")
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scanner-stopping")
			return ctx.Err()
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Refresh runs one ingest-and-match cycle and publishes the result. It
// returns false without doing anything if a refresh is already running, and
// false without publishing if ctx ends before the venues answer; the previous
// snapshot stays current.
func (s *Scanner) Refresh(ctx context.Context) (*Snapshot, bool) {
	if !s.refreshing.CompareAndSwap(false, true) {
		RefreshSkippedTotal.Inc()
		s.logger.Debug("refresh-skipped-in-flight")
		return nil, false
	}
	defer s.refreshing.Store(false)

	start := time.Now()

	result := s.ingester.Ingest(ctx)
	if ctx.Err() != nil {
		RefreshAbandonedTotal.Inc()
		s.logger.Warn("refresh-abandoned",
			zap.Error(ctx.Err()),
			zap.Strings("warnings", result.Warnings),
			zap.Duration("elapsed", time.Since(start)))
		return nil, false
	}

	opps := s.matcher.Match(result.Polymarket, result.Kalshi, s.minConfidence, s.minProfitPct)

	snap := &Snapshot{
		Polymarket:    result.Polymarket,
		Kalshi:        result.Kalshi,
		Opportunities: opps,
		Warnings:      result.Warnings,
		MinConfidence: s.minConfidence,
		MinProfitPct:  s.minProfitPct,
		RefreshedAt:   start,
		Duration:      time.Since(start),
	}

	s.snapshot.Store(snap)
	s.readyOnce.Do(func() { close(s.ready) })

	if s.store != nil {
		s.store.Store(opps)
	}

	RefreshDurationSeconds.Observe(snap.Duration.Seconds())
	OpportunitiesCurrent.Set(float64(len(opps)))
	RefreshesTotal.Inc()

	s.logger.Info("snapshot-published",
		zap.Int("polymarket-markets", len(snap.Polymarket)),
		zap.Int("kalshi-markets", len(snap.Kalshi)),
		zap.Int("opportunities", len(opps)),
		zap.Int("warnings", len(snap.Warnings)),
		zap.Duration("duration", snap.Duration))

	if s.onSnapshot != nil {
		s.onSnapshot(snap)
	}

	return snap, true
}

// RequestRefresh runs Refresh for a caller outside the refresh loop, such as
// an HTTP request. The caller's values are kept but its cancellation is not:
// the cycle is bounded by the scanner's refresh timeout instead.
func (s *Scanner) RequestRefresh(ctx context.Context) (*Snapshot, bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	return s.Refresh(ctx)
}

// Snapshot returns the current snapshot, or nil before the first refresh.
func (s *Scanner) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Refreshing reports whether a refresh is in flight.
func (s *Scanner) Refreshing() bool {
	return s.refreshing.Load()
}

// MarketSet holds the raw markets per venue.
type MarketSet struct {
	Polymarket []types.Market `json:"polymarket"`
	Kalshi     []types.Market `json:"kalshi"`
}

// MarketCounts holds the market count per venue.
type MarketCounts struct {
	Polymarket int `json:"polymarket"`
	Kalshi     int `json:"kalshi"`
}

// QueryResult answers a market query.
type QueryResult struct {
	Markets       MarketSet              `json:"markets"`
	Opportunities []types.ArbOpportunity `json:"opportunities"`
	Errors        []string               `json:"errors"`
	MarketCounts  MarketCounts           `json:"marketCounts"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// Query matches the current snapshot with the given thresholds. Opportunities
// re-matched at other thresholds are added to the store as well. Before the
// first snapshot exists it refreshes, or waits for the refresh in flight.
func (s *Scanner) Query(ctx context.Context, minConfidence, minProfitPct float64) (*QueryResult, error) {
	snap, err := s.awaitSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	opps := snap.Opportunities
	if minConfidence != snap.MinConfidence || minProfitPct != snap.MinProfitPct {
		opps = s.matcher.Match(snap.Polymarket, snap.Kalshi, minConfidence, minProfitPct)
		// Any listed opportunity can be submitted, so it must be resolvable.
		if s.store != nil {
			s.store.Store(opps)
		}
	}

	errs := snap.Warnings
	if errs == nil {
		errs = []string{}
	}

	return &QueryResult{
		Markets:       MarketSet{Polymarket: snap.Polymarket, Kalshi: snap.Kalshi},
		Opportunities: opps,
		Errors:        errs,
		MarketCounts:  snap.Counts(),
		UpdatedAt:     snap.RefreshedAt,
	}, nil
}

func (s *Scanner) awaitSnapshot(ctx context.Context) (*Snapshot, error) {
	snap := s.snapshot.Load()
	if snap != nil {
		return snap, nil
	}

	snap, ran := s.RequestRefresh(ctx)
	if ran {
		return snap, nil
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for first snapshot: %w", ctx.Err())
	case <-s.ready:
		return s.snapshot.Load(), nil
	}
}
