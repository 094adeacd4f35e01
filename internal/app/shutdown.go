package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Shutdown gracefully shuts down the application. In-flight hedges finish
// before the trade log closes. Calling it more than once is a no-op.
func (a *App) Shutdown() error {
	var errs []error
	a.shutdownOnce.Do(func() {
		errs = a.shutdown()
	})
	return errors.Join(errs...)
}

func (a *App) shutdown() []error {
	a.logger.Info("application-shutting-down")

	// Cancel context to stop the scanner
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var errs []error

	// Stop accepting requests; waits for in-flight trade submissions
	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
		errs = append(errs, err)
	}

	// Wait for all goroutines
	a.wg.Wait()

	err = a.storage.Close()
	if err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
		errs = append(errs, err)
	}

	a.cache.Close()

	a.logger.Info("application-shutdown-complete")

	return errs
}
