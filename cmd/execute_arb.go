package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mselser95/crossvenue-arb/internal/app"
	"github.com/mselser95/crossvenue-arb/internal/arbitrage"
	"github.com/mselser95/crossvenue-arb/pkg/types"
	"github.com/spf13/cobra"
)

var errMissingCredentials = errors.New("live mode needs POLYMARKET_API_KEY, POLYMARKET_API_SECRET, KALSHI_API_KEY and KALSHI_API_SECRET")

//nolint:gochecknoglobals // Cobra boilerplate
var executeArbCmd = &cobra.Command{
	Use:   "execute-arb <opportunity-id>",
	Short: "Execute a hedge for one opportunity",
	Long: `Scans both venues, finds the opportunity with the given id and places its
best strategy: YES on one venue and NO on the other, sized from the stake.

In paper mode (EXECUTION_MODE=paper) legs fill without calling the venues. In
live mode the venue credentials are read from POLYMARKET_API_KEY,
POLYMARKET_API_SECRET, KALSHI_API_KEY and KALSHI_API_SECRET.

Example:
  crossvenue-arb execute-arb 0xabc123__KXFEDDECISION-25DEC --stake 50`,
	Args: cobra.ExactArgs(1),
	RunE: runExecuteArb,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(executeArbCmd)
	executeArbCmd.Flags().Float64P("stake", "s", 10.0, "Stake in USD")
	executeArbCmd.Flags().Float64P("min-confidence", "c", arbitrage.DefaultMinConfidence, "Minimum title similarity used when matching")
}

func runExecuteArb(cmd *cobra.Command, args []string) error {
	opportunityID := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	stake, _ := cmd.Flags().GetFloat64("stake")
	minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")

	creds := credentialsFromEnv()
	if cfg.ExecutionMode == "live" && (creds.Polymarket.Empty() || creds.Kalshi.Empty()) {
		return errMissingCredentials
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "=== Cross-venue Hedge (%s mode) ===\n\n", cfg.ExecutionMode)
	fmt.Fprintf(out, "Opportunity: %s\n", opportunityID)
	fmt.Fprintf(out, "Stake: $%.2f\n\n", stake)

	polymarket, kalshi := app.NewVenueClients(cfg, logger)
	result := app.NewDiscovery(polymarket, kalshi, logger).Ingest(ctx)
	renderWarnings(out, result.Warnings)

	// Any positive spread qualifies; the user picked this pair explicitly.
	opps := arbitrage.NewMatcher(logger).Match(result.Polymarket, result.Kalshi, minConfidence, 0)
	opp, err := findOpportunity(opps, opportunityID)
	if err != nil {
		return err
	}

	err = renderOpportunities(out, []types.ArbOpportunity{*opp}, 1)
	if err != nil {
		return err
	}

	tradeLog, err := app.NewStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer tradeLog.Close()

	executor := app.NewExecutor(cfg, logger, polymarket, kalshi, tradeLog, nil)

	trade, err := executor.Execute(ctx, opp, stake, creds)
	if err != nil {
		return fmt.Errorf("execute hedge: %w", err)
	}

	fmt.Fprintln(out)
	err = renderTrade(out, trade)
	if err != nil {
		return err
	}

	if trade.Status != types.StatusFilled {
		return fmt.Errorf("hedge %s", trade.Status)
	}
	return nil
}

// credentialsFromEnv reads venue API credentials. They are never part of Config.
func credentialsFromEnv() types.CredentialSet {
	return types.CredentialSet{
		Polymarket: types.Credentials{
			APIKey:    os.Getenv("POLYMARKET_API_KEY"),
			APISecret: os.Getenv("POLYMARKET_API_SECRET"),
		},
		Kalshi: types.Credentials{
			APIKey:    os.Getenv("KALSHI_API_KEY"),
			APISecret: os.Getenv("KALSHI_API_SECRET"),
		},
	}
}

func findOpportunity(opps []types.ArbOpportunity, id string) (*types.ArbOpportunity, error) {
	for i := range opps {
		if opps[i].ID == id {
			return &opps[i], nil
		}
	}
	return nil, fmt.Errorf("opportunity %q not found among %d current opportunities", id, len(opps))
}
