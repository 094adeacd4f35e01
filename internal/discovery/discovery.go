package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/mselser95/crossvenue-arb/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MarketSource lists the open markets of one venue.
type MarketSource interface {
	Platform() types.Platform
	FetchMarkets(ctx context.Context) ([]types.Market, error)
}

// Service ingests markets from both venues concurrently. A failing venue
// never discards the other venue's markets; it becomes a warning.
type Service struct {
	polymarket MarketSource
	kalshi     MarketSource
	logger     *zap.Logger
	now        func() time.Time
}

// Config holds discovery service configuration.
type Config struct {
	Polymarket MarketSource
	Kalshi     MarketSource
	Logger     *zap.Logger
}

// New creates a new discovery service.
func New(cfg *Config) *Service {
	return &Service{
		polymarket: cfg.Polymarket,
		kalshi:     cfg.Kalshi,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// Result is one ingestion cycle. Markets of a failed venue are empty.
type Result struct {
	Polymarket []types.Market
	Kalshi     []types.Market
	Warnings   []string
	Failures   map[types.Platform]error
	FetchedAt  time.Time
	Duration   time.Duration
}

// Counts returns the number of markets per venue.
func (r *Result) Counts() map[types.Platform]int {
	return map[types.Platform]int{
		types.PlatformPolymarket: len(r.Polymarket),
		types.PlatformKalshi:     len(r.Kalshi),
	}
}

// Failed reports whether the given venue's fetch failed.
func (r *Result) Failed(p types.Platform) bool {
	_, ok := r.Failures[p]
	return ok
}

// ZeroMarketsWarning is the warning for a venue that answered with no open markets.
func ZeroMarketsWarning(p types.Platform) string {
	return fmt.Sprintf("%s: API returned 0 markets (check filters or API availability)", p.DisplayName())
}

// FailureWarning is the warning for a venue whose fetch failed.
func FailureWarning(p types.Platform, err error) string {
	return fmt.Sprintf("%s: %v", p.DisplayName(), err)
}

type venueOutcome struct {
	markets []types.Market
	err     error
}

// Ingest fetches both venues in parallel and waits for both. It never fails;
// per-venue problems are reported in Result.Warnings and Result.Failures.
func (s *Service) Ingest(ctx context.Context) *Result {
	start := s.now()

	// Venue failures are captured in each outcome, so no goroutine returns an
	// error and Wait only joins them.
	var pm, kx venueOutcome
	var g errgroup.Group

	g.Go(func() error {
		pm = s.fetch(ctx, s.polymarket)
		return nil
	})
	g.Go(func() error {
		kx = s.fetch(ctx, s.kalshi)
		return nil
	})
	_ = g.Wait()

	result := &Result{
		Polymarket: pm.markets,
		Kalshi:     kx.markets,
		Warnings:   make([]string, 0, 2),
		Failures:   make(map[types.Platform]error),
		FetchedAt:  start,
		Duration:   time.Since(start),
	}

	s.record(result, types.PlatformPolymarket, pm)
	s.record(result, types.PlatformKalshi, kx)

	IngestDurationSeconds.Observe(result.Duration.Seconds())

	s.logger.Info("ingest-complete",
		zap.Int("polymarket-markets", len(result.Polymarket)),
		zap.Int("kalshi-markets", len(result.Kalshi)),
		zap.Strings("warnings", result.Warnings),
		zap.Duration("duration", result.Duration))

	return result
}

func (s *Service) fetch(ctx context.Context, src MarketSource) venueOutcome {
	markets, err := src.FetchMarkets(ctx)
	if err != nil {
		return venueOutcome{markets: []types.Market{}, err: err}
	}
	if markets == nil {
		markets = []types.Market{}
	}
	return venueOutcome{markets: markets}
}

func (s *Service) record(result *Result, p types.Platform, outcome venueOutcome) {
	MarketsIngested.WithLabelValues(string(p)).Set(float64(len(outcome.markets)))

	switch {
	case outcome.err != nil:
		result.Failures[p] = outcome.err
		result.Warnings = append(result.Warnings, FailureWarning(p, outcome.err))
		IngestWarningsTotal.WithLabelValues(string(p), "failure").Inc()
		s.logger.Warn("venue-fetch-failed",
			zap.String("venue", string(p)),
			zap.Error(outcome.err))
	case len(outcome.markets) == 0:
		result.Warnings = append(result.Warnings, ZeroMarketsWarning(p))
		IngestWarningsTotal.WithLabelValues(string(p), "empty").Inc()
		s.logger.Warn("venue-returned-no-markets", zap.String("venue", string(p)))
	}
}
