package app

import (
	"context"
	"sync"

	"github.com/mselser95/crossvenue-arb/internal/execution"
	"github.com/mselser95/crossvenue-arb/internal/scanner"
	"github.com/mselser95/crossvenue-arb/internal/storage"
	"github.com/mselser95/crossvenue-arb/pkg/cache"
	"github.com/mselser95/crossvenue-arb/pkg/config"
	"github.com/mselser95/crossvenue-arb/pkg/healthprobe"
	"github.com/mselser95/crossvenue-arb/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	scanner       *scanner.Scanner
	executor      *execution.Executor
	storage       storage.Storage
	cache         cache.Cache
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	shutdownOnce  sync.Once
}

// Scanner returns the market scanner.
func (a *App) Scanner() *scanner.Scanner {
	return a.scanner
}

// Executor returns the hedge executor.
func (a *App) Executor() *execution.Executor {
	return a.executor
}

// Storage returns the trade log.
func (a *App) Storage() storage.Storage {
	return a.storage
}
