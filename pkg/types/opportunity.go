package types

import "time"

// ArbStrategy is one hedge orientation for a market pair: buy YES on one
// venue and NO on the other. All figures are derived from the two prices.
type ArbStrategy struct {
	BuyYesOn     Platform `json:"buyYesOn"`
	BuyNoOn      Platform `json:"buyNoOn"`
	YesPrice     float64  `json:"yesPrice"`
	NoPrice      float64  `json:"noPrice"`
	Spread       float64  `json:"spread"`
	ProfitPct    float64  `json:"profitPct"`
	CostPer100   float64  `json:"costPer100"`
	ProfitPer100 float64  `json:"profitPer100"`
}

// Profitable reports whether buying both legs costs less than the payout.
func (s *ArbStrategy) Profitable() bool {
	return s.Spread > 0 && s.ProfitPct > 0
}

// ArbOpportunity pairs two same-event markets from different venues.
type ArbOpportunity struct {
	ID                string       `json:"id"`
	MarketA           Market       `json:"marketA"`
	MarketB           Market       `json:"marketB"`
	BestStrategy      ArbStrategy  `json:"bestStrategy"`
	AlternateStrategy *ArbStrategy `json:"alternateStrategy"`
	MatchConfidence   float64      `json:"matchConfidence"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// MarketOn returns the paired market listed on the given venue.
func (o *ArbOpportunity) MarketOn(p Platform) (*Market, bool) {
	if o.MarketA.Platform == p {
		return &o.MarketA, true
	}
	if o.MarketB.Platform == p {
		return &o.MarketB, true
	}
	return nil, false
}

// OpportunityID builds the deterministic identity of a market pair.
func OpportunityID(marketAID, marketBID string) string {
	return marketAID + "__" + marketBID
}
