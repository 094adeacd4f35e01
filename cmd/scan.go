package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mselser95/crossvenue-arb/internal/app"
	"github.com/mselser95/crossvenue-arb/internal/arbitrage"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Fetch both venues once and print ranked opportunities",
	Long: `Fetches the open markets of Polymarket and Kalshi, matches them across venues
and prints the arbitrage opportunities ranked by profit.

Thresholds default to MATCH_MIN_CONFIDENCE and MATCH_MIN_PROFIT_PCT.`,
	RunE: runScan,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Float64P("min-confidence", "c", arbitrage.DefaultMinConfidence, "Minimum title similarity in [0,1]")
	scanCmd.Flags().Float64P("min-profit", "m", 0.5, "Minimum profit percentage")
	scanCmd.Flags().IntP("limit", "l", 25, "Maximum number of opportunities to print (0 prints all)")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	minConfidence := cfg.MatchMinConfidence
	if cmd.Flags().Changed("min-confidence") {
		minConfidence, _ = cmd.Flags().GetFloat64("min-confidence")
	}
	minProfit := cfg.MatchMinProfitPct
	if cmd.Flags().Changed("min-profit") {
		minProfit, _ = cmd.Flags().GetFloat64("min-profit")
	}
	limit, _ := cmd.Flags().GetInt("limit")

	if minConfidence < 0 || minConfidence > 1 {
		return fmt.Errorf("min-confidence must be between 0 and 1, got %f", minConfidence)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Fetching markets from Polymarket and Kalshi...")

	polymarket, kalshi := app.NewVenueClients(cfg, logger)
	result := app.NewDiscovery(polymarket, kalshi, logger).Ingest(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	fmt.Fprintf(out, "Polymarket: %d markets | Kalshi: %d markets | %s\n\n",
		len(result.Polymarket), len(result.Kalshi), result.Duration.Round(time.Millisecond))
	renderWarnings(out, result.Warnings)

	opps := arbitrage.NewMatcher(logger).Match(result.Polymarket, result.Kalshi, minConfidence, minProfit)

	fmt.Fprintf(out, "%d opportunities (confidence >= %.2f, profit > %.2f%%)\n", len(opps), minConfidence, minProfit)
	return renderOpportunities(out, opps, limit)
}
