package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mselser95/crossvenue-arb/pkg/types"
	"go.uber.org/zap"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// ConsoleStorage pretty-prints each trade and keeps the log in memory so it
// can still be listed.
type ConsoleStorage struct {
	out    io.Writer
	memory *MemoryStorage
	logger *zap.Logger
}

// NewConsoleStorage creates a console storage writing to stdout.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	return NewConsoleStorageTo(os.Stdout, logger)
}

// NewConsoleStorageTo creates a console storage writing to out.
func NewConsoleStorageTo(out io.Writer, logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		out:    out,
		memory: NewMemoryStorage(),
		logger: logger,
	}
}

// AppendTrade prints the trade and records it.
func (c *ConsoleStorage) AppendTrade(_ context.Context, trade *types.ArbTrade) error {
	if trade == nil {
		return ErrNilTrade
	}

	var b strings.Builder
	b.WriteString("\n" + rule + "\n")
	fmt.Fprintf(&b, "%s HEDGE %s\n", statusIcon(trade.Status), strings.ToUpper(string(trade.Status)))
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Trade:       %s\n", trade.ID)
	fmt.Fprintf(&b, "Opportunity: %s\n", trade.OpportunityID)
	fmt.Fprintf(&b, "Time:        %s\n", trade.CreatedAt.Format("2006-01-02 15:04:05"))
	b.WriteString(rule + "\n")
	writeLeg(&b, "Leg A", &trade.LegA)
	writeLeg(&b, "Leg B", &trade.LegB)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "💰 Stake:            $%.2f\n", trade.Stake)
	fmt.Fprintf(&b, "   Expected profit:  $%.2f\n", trade.ExpectedProfit)
	if trade.Status == types.StatusPartial {
		b.WriteString("   ⚠️  One leg is unhedged; reconcile manually\n")
	}
	b.WriteString(rule + "\n")

	_, err := io.WriteString(c.out, b.String())
	if err != nil {
		StorageErrorsTotal.WithLabelValues("console", "append").Inc()
		return fmt.Errorf("write trade: %w", err)
	}

	c.memory.add(trade)
	TradesAppendedTotal.WithLabelValues("console", string(trade.Status)).Inc()
	return nil
}

func writeLeg(b *strings.Builder, label string, leg *types.TradeOrder) {
	fmt.Fprintf(b, "%s  %-10s %-3s %s x%d @ %.4f  [%s]\n",
		label, leg.Platform.DisplayName(), strings.ToUpper(string(leg.Side)),
		leg.MarketID, leg.Amount, leg.Price, leg.Status)
	switch {
	case leg.OrderID != "":
		fmt.Fprintf(b, "       order %s\n", leg.OrderID)
	case leg.Error != "":
		fmt.Fprintf(b, "       error %s\n", leg.Error)
	}
}

func statusIcon(s types.TradeStatus) string {
	switch s {
	case types.StatusFilled:
		return "✅"
	case types.StatusPartial:
		return "⚠️"
	default:
		return "❌"
	}
}

// ListTrades returns up to limit printed trades, newest first.
func (c *ConsoleStorage) ListTrades(ctx context.Context, limit int) ([]types.ArbTrade, error) {
	return c.memory.ListTrades(ctx, limit)
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
