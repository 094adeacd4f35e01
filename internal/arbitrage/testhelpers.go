package arbitrage

import (
	"github.com/mselser95/crossvenue-arb/pkg/types"
)

// CreateTestMarket builds an active market for tests in this and dependent packages.
func CreateTestMarket(platform types.Platform, id, title string, yesPrice, noPrice float64) types.Market {
	return types.Market{
		ID:       id,
		Platform: platform,
		Title:    title,
		Slug:     id,
		Category: "test",
		YesPrice: yesPrice,
		NoPrice:  noPrice,
		Active:   true,
	}
}

// CreateTestOpportunity builds a profitable opportunity that buys YES on
// Polymarket at 0.45 and NO on Kalshi at 0.50.
func CreateTestOpportunity() *types.ArbOpportunity {
	pm := CreateTestMarket(types.PlatformPolymarket, "pm-1", "Fed cuts rates in March", 0.45, 0.56)
	kl := CreateTestMarket(types.PlatformKalshi, "KXFED-MAR", "Fed cuts rates in March", 0.52, 0.50)

	opps := Match([]types.Market{pm}, []types.Market{kl}, DefaultMinConfidence, DefaultMinProfitPct)
	if len(opps) != 1 {
		panic("test opportunity fixture did not match")
	}

	return &opps[0]
}
