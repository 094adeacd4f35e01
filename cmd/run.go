package cmd

import (
	"fmt"

	"github.com/mselser95/crossvenue-arb/internal/app"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the scanner and HTTP API",
	Long: `Starts the cross-venue arbitrage service, which will:
1. Fetch open markets from Polymarket and Kalshi
2. Match markets across venues and rank arbitrage opportunities
3. Refresh the snapshot every REFRESH_INTERVAL
4. Serve /api/markets, /api/trade and /api/trades

EXECUTION_MODE=paper (the default) fills hedges without calling the venues.`,
	RunE: runService,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("port", "p", "", "HTTP port (overrides HTTP_PORT)")
}

func runService(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	port, _ := cmd.Flags().GetString("port")
	if port != "" {
		cfg.HTTPPort = port
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
