package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mselser95/crossvenue-arb/internal/app"
	"github.com/mselser95/crossvenue-arb/internal/discovery"
	"github.com/mselser95/crossvenue-arb/internal/textmatch"
	"github.com/mselser95/crossvenue-arb/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var listMarketsCmd = &cobra.Command{
	Use:   "list-markets",
	Short: "List open markets from Polymarket and Kalshi",
	Long:  `Fetches and displays open binary markets from one or both venues, by volume, for debugging purposes.`,
	RunE:  runListMarkets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(listMarketsCmd)
	listMarketsCmd.Flags().StringP("venue", "v", "all", "Venue to list: polymarket, kalshi or all")
	listMarketsCmd.Flags().IntP("limit", "l", 20, "Maximum number of markets to show per venue")
	listMarketsCmd.Flags().StringP("search", "s", "", "Only show markets whose title contains these words")
	listMarketsCmd.Flags().Duration("timeout", 5*time.Minute, "Give up after this long")
}

func runListMarkets(cmd *cobra.Command, args []string) error {
	venueName, _ := cmd.Flags().GetString("venue")
	limit, _ := cmd.Flags().GetInt("limit")
	search, _ := cmd.Flags().GetString("search")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	venues, err := parseVenues(venueName)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	polymarket, kalshi := app.NewVenueClients(cfg, logger)
	sources := map[types.Platform]discovery.MarketSource{
		types.PlatformPolymarket: polymarket,
		types.PlatformKalshi:     kalshi,
	}

	out := cmd.OutOrStdout()
	for _, p := range venues {
		fmt.Fprintf(out, "Fetching open markets from %s...\n", p.DisplayName())

		markets, fetchErr := sources[p].FetchMarkets(ctx)
		if fetchErr != nil {
			return fmt.Errorf("fetch %s markets: %w", p, fetchErr)
		}

		shown := selectMarkets(markets, search, limit)
		err = renderMarkets(out, shown)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Total: %d markets (showing %d)\n\n", len(markets), len(shown))
	}

	return nil
}

func parseVenues(name string) ([]types.Platform, error) {
	switch strings.ToLower(name) {
	case "all", "":
		return []types.Platform{types.PlatformPolymarket, types.PlatformKalshi}, nil
	case string(types.PlatformPolymarket):
		return []types.Platform{types.PlatformPolymarket}, nil
	case string(types.PlatformKalshi):
		return []types.Platform{types.PlatformKalshi}, nil
	default:
		return nil, fmt.Errorf("invalid venue: %s. Valid options: polymarket, kalshi, all", name)
	}
}

// selectMarkets keeps the markets whose normalized title contains every
// search token, sorted by volume, capped at limit (limit <= 0 keeps all).
func selectMarkets(markets []types.Market, search string, limit int) []types.Market {
	want := textmatch.Tokens(search)

	selected := make([]types.Market, 0, len(markets))
	for i := range markets {
		if len(want) > 0 && !containsAll(textmatch.Tokens(markets[i].Title), want) {
			continue
		}
		selected = append(selected, markets[i])
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Volume > selected[j].Volume
	})

	if limit > 0 && len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}

func containsAll(have, want map[string]struct{}) bool {
	for token := range want {
		if _, ok := have[token]; !ok {
			return false
		}
	}
	return true
}
