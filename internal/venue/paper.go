package venue

import (
	"context"

	"github.com/google/uuid"
	"github.com/mselser95/crossvenue-arb/pkg/types"
	"go.uber.org/zap"
)

// PaperPlacer fills every valid order immediately without contacting a venue.
type PaperPlacer struct {
	venue  types.Platform
	logger *zap.Logger
}

// NewPaperPlacer creates a paper order placer for one venue.
func NewPaperPlacer(venue types.Platform, logger *zap.Logger) *PaperPlacer {
	return &PaperPlacer{venue: venue, logger: logger}
}

// PlaceOrder validates the order and returns a paper-<uuid> order id.
// Credentials are not required.
func (p *PaperPlacer) PlaceOrder(ctx context.Context, _ types.Credentials, marketID string, side types.Side, price float64, amount int64) (string, error) {
	err := ctx.Err()
	if err != nil {
		return "", err
	}

	err = validateOrder(p.venue, types.Credentials{APIKey: "paper"}, marketID, side, price, amount)
	if err != nil {
		return "", err
	}

	orderID := "paper-" + uuid.NewString()
	OrdersTotal.WithLabelValues(string(p.venue), "paper").Inc()

	p.logger.Info("paper-order-filled",
		zap.String("venue", string(p.venue)),
		zap.String("market-id", marketID),
		zap.String("side", string(side)),
		zap.Float64("price", price),
		zap.Int64("amount", amount),
		zap.String("order-id", orderID))

	return orderID, nil
}
