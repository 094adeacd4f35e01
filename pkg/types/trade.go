package types

import "time"

// TradeStatus is the lifecycle state of a leg or a whole trade.
type TradeStatus string

const (
	StatusPending TradeStatus = "pending"
	StatusFilled  TradeStatus = "filled"
	StatusPartial TradeStatus = "partial"
	StatusFailed  TradeStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s TradeStatus) Terminal() bool {
	return s == StatusFilled || s == StatusFailed || s == StatusPartial
}

// TradeOrder is one leg of a hedge.
type TradeOrder struct {
	Platform Platform    `json:"platform"`
	MarketID string      `json:"marketId"`
	Side     Side        `json:"side"`
	Price    float64     `json:"price"`
	Amount   int64       `json:"amount"`
	Status   TradeStatus `json:"status"`
	OrderID  string      `json:"orderId,omitempty"`
	FilledAt *time.Time  `json:"filledAt,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Fill moves a pending leg to filled. Legs already in a terminal state are left untouched.
func (o *TradeOrder) Fill(orderID string, at time.Time) {
	if o.Status.Terminal() {
		return
	}
	o.Status = StatusFilled
	o.OrderID = orderID
	o.FilledAt = &at
}

// Fail moves a pending leg to failed. Legs already in a terminal state are left untouched.
func (o *TradeOrder) Fail(reason string) {
	if o.Status.Terminal() {
		return
	}
	o.Status = StatusFailed
	o.Error = reason
}

// ArbTrade aggregates the two legs submitted together for one opportunity.
type ArbTrade struct {
	ID             string          `json:"id"`
	OpportunityID  string          `json:"opportunityId"`
	Opportunity    *ArbOpportunity `json:"opportunity,omitempty"`
	LegA           TradeOrder      `json:"legA"`
	LegB           TradeOrder      `json:"legB"`
	Stake          float64         `json:"stake"`
	ExpectedProfit float64         `json:"expectedProfit"`
	Status         TradeStatus     `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
}

// AggregateStatus derives the trade status from its two legs.
func AggregateStatus(legA, legB TradeStatus) TradeStatus {
	switch {
	case legA == StatusFilled && legB == StatusFilled:
		return StatusFilled
	case legA == StatusFilled || legB == StatusFilled:
		return StatusPartial
	case legA == StatusFailed && legB == StatusFailed:
		return StatusFailed
	default:
		return StatusPending
	}
}

// Credentials is an API key/secret pair for one venue.
type Credentials struct {
	APIKey    string `json:"apiKey"`
	APISecret string `json:"apiSecret"`
}

// Empty reports whether no key was supplied.
func (c Credentials) Empty() bool {
	return c.APIKey == ""
}

// CredentialSet holds credentials for both venues.
type CredentialSet struct {
	Polymarket Credentials `json:"polymarket"`
	Kalshi     Credentials `json:"kalshi"`
}

// For returns the credentials of the given venue.
func (c CredentialSet) For(p Platform) Credentials {
	if p == PlatformKalshi {
		return c.Kalshi
	}
	return c.Polymarket
}
