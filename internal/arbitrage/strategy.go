package arbitrage

import (
	"math"

	"github.com/mselser95/crossvenue-arb/pkg/types"
)

// CalculateStrategy prices the hedge "buy YES on buyYesOn, buy NO on buyNoOn"
// for a pair of markets.
//
// A combined cost of zero (both venues missing prices) or any non-finite
// price yields a zero-profit strategy instead of a division by zero.
func CalculateStrategy(a, b *types.Market, buyYesOn, buyNoOn types.Platform) types.ArbStrategy {
	yesPrice := b.YesPrice
	if buyYesOn == a.Platform {
		yesPrice = a.YesPrice
	}

	noPrice := b.NoPrice
	if buyNoOn == a.Platform {
		noPrice = a.NoPrice
	}

	strategy := types.ArbStrategy{
		BuyYesOn: buyYesOn,
		BuyNoOn:  buyNoOn,
		YesPrice: yesPrice,
		NoPrice:  noPrice,
	}

	totalCost := yesPrice + noPrice
	if totalCost <= 0 || math.IsNaN(totalCost) || math.IsInf(totalCost, 0) {
		return strategy
	}

	spread := 1 - totalCost

	strategy.Spread = spread
	strategy.CostPer100 = totalCost * 100
	strategy.ProfitPer100 = spread * 100
	if spread > 0 {
		strategy.ProfitPct = spread / totalCost * 100
	}

	return strategy
}
