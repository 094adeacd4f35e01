package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/mselser95/crossvenue-arb/pkg/types"
	"github.com/olekukonko/tablewriter"
)

const maxTitleWidth = 50

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

func formatPrice(p float64) string {
	if p == 0 {
		return "-"
	}
	return fmt.Sprintf("%.3f", p)
}

// renderOpportunities prints up to limit opportunities as a table. limit <= 0 prints all.
func renderOpportunities(out io.Writer, opps []types.ArbOpportunity, limit int) error {
	if len(opps) == 0 {
		_, err := fmt.Fprintln(out, "No arbitrage opportunities found.")
		return err
	}
	if limit > 0 && len(opps) > limit {
		opps = opps[:limit]
	}

	table := tablewriter.NewWriter(out)
	table.Header("#", "Opportunity", "Event", "Buy YES", "Buy NO", "Cost/100", "Profit %", "Match")

	for i := range opps {
		opp := &opps[i]
		s := &opp.BestStrategy
		err := table.Append(
			fmt.Sprintf("%d", i+1),
			opp.ID,
			truncate(opp.MarketA.Title, maxTitleWidth),
			fmt.Sprintf("%s @ %.3f", s.BuyYesOn.DisplayName(), s.YesPrice),
			fmt.Sprintf("%s @ %.3f", s.BuyNoOn.DisplayName(), s.NoPrice),
			fmt.Sprintf("$%.2f", s.CostPer100),
			fmt.Sprintf("%.2f%%", s.ProfitPct),
			fmt.Sprintf("%.0f%%", opp.MatchConfidence*100),
		)
		if err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}

	return table.Render()
}

// renderMarkets prints markets as a table.
func renderMarkets(out io.Writer, markets []types.Market) error {
	if len(markets) == 0 {
		_, err := fmt.Fprintln(out, "No markets found.")
		return err
	}

	table := tablewriter.NewWriter(out)
	table.Header("Venue", "ID", "Title", "YES", "NO", "Volume", "Ends")

	for i := range markets {
		m := &markets[i]
		err := table.Append(
			m.Platform.DisplayName(),
			m.ID,
			truncate(m.Title, maxTitleWidth),
			formatPrice(m.YesPrice),
			formatPrice(m.NoPrice),
			fmt.Sprintf("%.0f", m.Volume),
			m.EndDate,
		)
		if err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}

	return table.Render()
}

// renderWarnings prints venue warnings, one per line.
func renderWarnings(out io.Writer, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(out, "WARNING %s\n", w)
	}
}

// renderTrade prints the legs of a hedge and its outcome.
func renderTrade(out io.Writer, trade *types.ArbTrade) error {
	table := tablewriter.NewWriter(out)
	table.Header("Leg", "Venue", "Market", "Side", "Price", "Contracts", "Status", "Order / Error")

	for _, leg := range []struct {
		name  string
		order *types.TradeOrder
	}{
		{"A", &trade.LegA},
		{"B", &trade.LegB},
	} {
		detail := leg.order.OrderID
		if leg.order.Status == types.StatusFailed {
			detail = leg.order.Error
		}
		err := table.Append(
			leg.name,
			leg.order.Platform.DisplayName(),
			leg.order.MarketID,
			strings.ToUpper(string(leg.order.Side)),
			fmt.Sprintf("%.3f", leg.order.Price),
			fmt.Sprintf("%d", leg.order.Amount),
			string(leg.order.Status),
			detail,
		)
		if err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}

	err := table.Render()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nTrade:           %s\n", trade.ID)
	fmt.Fprintf(out, "Status:          %s\n", strings.ToUpper(string(trade.Status)))
	fmt.Fprintf(out, "Stake:           $%.2f\n", trade.Stake)
	fmt.Fprintf(out, "Expected profit: $%.2f\n", trade.ExpectedProfit)
	if trade.Status == types.StatusPartial {
		fmt.Fprintln(out, "One leg filled without its hedge. Reconcile the open position manually.")
	}

	return nil
}
