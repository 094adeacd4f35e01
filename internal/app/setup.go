package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mselser95/crossvenue-arb/internal/arbitrage"
	"github.com/mselser95/crossvenue-arb/internal/discovery"
	"github.com/mselser95/crossvenue-arb/internal/execution"
	"github.com/mselser95/crossvenue-arb/internal/scanner"
	"github.com/mselser95/crossvenue-arb/internal/storage"
	"github.com/mselser95/crossvenue-arb/internal/venue"
	"github.com/mselser95/crossvenue-arb/pkg/cache"
	"github.com/mselser95/crossvenue-arb/pkg/config"
	"github.com/mselser95/crossvenue-arb/pkg/healthprobe"
	"github.com/mselser95/crossvenue-arb/pkg/httpserver"
	"github.com/mselser95/crossvenue-arb/pkg/types"
	"go.uber.org/zap"
)

// staleRefreshes is how many refresh intervals may pass without a snapshot
// before the service reports not ready.
const staleRefreshes = 3

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := setupHealthChecker(cfg)

	appCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}
	opportunities := cache.NewOpportunityCache(appCache, cfg.OpportunityCacheTTL)

	tradeLog, err := NewStorage(ctx, cfg, logger)
	if err != nil {
		appCache.Close()
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	polymarket, kalshi := NewVenueClients(cfg, logger)

	marketScanner := setupScanner(cfg, logger, NewDiscovery(polymarket, kalshi, logger), opportunities, healthChecker)

	executor := NewExecutor(cfg, logger, polymarket, kalshi, tradeLog, opportunities)

	httpServer := setupHTTPServer(cfg, logger, healthChecker, marketScanner, executor, tradeLog)

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		scanner:       marketScanner,
		executor:      executor,
		storage:       tradeLog,
		cache:         appCache,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// NewVenueClients builds the Polymarket and Kalshi clients from configuration.
func NewVenueClients(cfg *config.Config, logger *zap.Logger) (*venue.PolymarketClient, *venue.KalshiClient) {
	httpClient := &http.Client{Timeout: cfg.VenueHTTPTimeout}

	polymarket := venue.NewPolymarketClient(&venue.Config{
		MarketsURL:     cfg.PolymarketGammaURL,
		OrdersURL:      cfg.PolymarketCLOBURL,
		PageSize:       cfg.PolymarketPageSize,
		PageDelay:      cfg.VenuePageDelay,
		RateLimitDelay: cfg.VenueRateLimitDelay,
		MaxRetries:     cfg.VenueRateLimitMaxRetries,
		MaxPages:       cfg.VenueMaxPages,
		HTTPClient:     httpClient,
		Logger:         logger,
	})

	kalshi := venue.NewKalshiClient(&venue.Config{
		MarketsURL:     cfg.KalshiAPIURL,
		PageSize:       cfg.KalshiPageSize,
		PageDelay:      cfg.VenuePageDelay,
		RateLimitDelay: cfg.VenueRateLimitDelay,
		MaxRetries:     cfg.VenueRateLimitMaxRetries,
		MaxPages:       cfg.VenueMaxPages,
		HTTPClient:     httpClient,
		Logger:         logger,
	})

	return polymarket, kalshi
}

// NewDiscovery builds the two-venue ingestion service.
func NewDiscovery(polymarket, kalshi discovery.MarketSource, logger *zap.Logger) *discovery.Service {
	return discovery.New(&discovery.Config{
		Polymarket: polymarket,
		Kalshi:     kalshi,
		Logger:     logger,
	})
}

// NewStorage builds the trade log selected by STORAGE_MODE.
func NewStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.StorageMode {
	case "postgres":
		pgStorage, err := storage.NewPostgresStorage(ctx, &storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	case "console":
		return storage.NewConsoleStorage(logger), nil
	default:
		return storage.NewMemoryStorage(), nil
	}
}

// NewExecutor builds the hedge executor. Paper mode swaps both venues for
// paper placers; live mode places orders through the venue clients.
func NewExecutor(
	cfg *config.Config,
	logger *zap.Logger,
	polymarket, kalshi venue.OrderPlacer,
	tradeLog storage.Storage,
	opportunities execution.OpportunityLookup,
) *execution.Executor {
	placers := map[types.Platform]venue.OrderPlacer{
		types.PlatformPolymarket: polymarket,
		types.PlatformKalshi:     kalshi,
	}
	if cfg.ExecutionMode != "live" {
		placers = map[types.Platform]venue.OrderPlacer{
			types.PlatformPolymarket: venue.NewPaperPlacer(types.PlatformPolymarket, logger),
			types.PlatformKalshi:     venue.NewPaperPlacer(types.PlatformKalshi, logger),
		}
	}

	return execution.New(&execution.Config{
		Mode:          cfg.ExecutionMode,
		Placers:       placers,
		Storage:       tradeLog,
		Opportunities: opportunities,
		MaxStake:      cfg.ExecutionMaxStake,
		LegTimeout:    cfg.ExecutionLegTimeout,
		Logger:        logger,
	})
}

func setupHealthChecker(cfg *config.Config) *healthprobe.HealthChecker {
	return healthprobe.New(staleRefreshes * cfg.RefreshInterval)
}

func setupCache(logger *zap.Logger) (*cache.RistrettoCache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		Name:        "opportunities",
		NumCounters: 100000, // 10x expected max opportunities
		MaxCost:     10000,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupScanner(
	cfg *config.Config,
	logger *zap.Logger,
	ingester scanner.Ingester,
	opportunities scanner.OpportunityStore,
	healthChecker *healthprobe.HealthChecker,
) *scanner.Scanner {
	return scanner.New(&scanner.Config{
		Ingester:      ingester,
		Matcher:       arbitrage.NewMatcher(logger),
		Store:         opportunities,
		Interval:      cfg.RefreshInterval,
		MinConfidence: cfg.MatchMinConfidence,
		MinProfitPct:  cfg.MatchMinProfitPct,
		OnSnapshot: func(s *scanner.Snapshot) {
			healthChecker.MarkRefreshed(s.RefreshedAt, s.Warnings)
		},
		Logger: logger,
	})
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	markets httpserver.MarketQuerier,
	trades httpserver.TradeSubmitter,
	history httpserver.TradeLister,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Markets:       markets,
		Trades:        trades,
		History:       history,
	})
}
