package cmd

import (
	"fmt"
	"os"

	"github.com/mselser95/crossvenue-arb/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "crossvenue-arb",
	Short: "Cross-venue prediction market arbitrage scanner",
	Long: `Cross-venue arbitrage scanner for Polymarket and Kalshi.

Lists the open binary markets of both venues, pairs markets that describe the
same event by title similarity, and ranks the pairs where buying YES on one
venue and NO on the other costs less than the $1 payout. Hedges are placed as
two concurrent limit orders, one per venue.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig loads configuration and builds the logger it asks for.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, logger, nil
}
