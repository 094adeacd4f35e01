package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/mselser95/crossvenue-arb/internal/arbitrage"
	"github.com/mselser95/crossvenue-arb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type opportunityMap map[string]*types.ArbOpportunity

func (m opportunityMap) Lookup(id string) (*types.ArbOpportunity, bool) {
	opp, ok := m[id]
	return opp, ok
}

func validSubmitRequest() *SubmitRequest {
	return &SubmitRequest{
		OpportunityID: "pm-1__KXFED-MAR",
		LegA: &LegRequest{
			Platform: types.PlatformPolymarket,
			MarketID: "pm-1",
			Side:     types.SideYes,
			Price:    0.45,
			Amount:   10,
		},
		LegB: &LegRequest{
			Platform: types.PlatformKalshi,
			MarketID: "KXFED-MAR",
			Side:     types.SideNo,
			Price:    0.50,
			Amount:   10,
		},
		PolymarketCreds: testCreds.Polymarket,
		KalshiCreds:     testCreds.Kalshi,
	}
}

func TestSubmitRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SubmitRequest)
		wantMsg string
	}{
		{"missing-opportunity", func(r *SubmitRequest) { r.OpportunityID = "" }, "opportunityId is required"},
		{"missing-leg-a", func(r *SubmitRequest) { r.LegA = nil }, "legA is required"},
		{"missing-leg-b", func(r *SubmitRequest) { r.LegB = nil }, "legB is required"},
		{"bad-platform", func(r *SubmitRequest) { r.LegA.Platform = "betfair" }, "legA.platform"},
		{"missing-market", func(r *SubmitRequest) { r.LegB.MarketID = "" }, "legB.marketId is required"},
		{"bad-side", func(r *SubmitRequest) { r.LegB.Side = "maybe" }, "legB.side"},
		{"price-out-of-range", func(r *SubmitRequest) { r.LegA.Price = 1.2 }, "legA.price"},
		{"zero-amount", func(r *SubmitRequest) { r.LegA.Amount = 0 }, "legA.amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSubmitRequest()
			tt.mutate(req)

			err := req.Validate()
			require.ErrorIs(t, err, ErrInvalidRequest)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	assert.NoError(t, validSubmitRequest().Validate())
}

func TestSubmit_BothLegsSucceed(t *testing.T) {
	opp := arbitrage.CreateTestOpportunity()
	f := newFixture(t, func(cfg *Config) {
		cfg.Opportunities = opportunityMap{opp.ID: opp}
	})

	result, err := f.executor.Submit(context.Background(), validSubmitRequest())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, types.StatusFilled, result.Status)
	assert.Equal(t, LegResult{Success: true, OrderID: "polymarket-order-1"}, result.LegA)
	assert.Equal(t, LegResult{Success: true, OrderID: "kalshi-order-1"}, result.LegB)

	trades := f.trades(t)
	require.Len(t, trades, 1)
	assert.Equal(t, result.TradeID, trades[0].ID)
	require.NotNil(t, trades[0].Opportunity, "cached opportunity is attached")
	assert.Equal(t, opp.ID, trades[0].Opportunity.ID)
	assert.InDelta(t, 9.5, trades[0].Stake, 1e-9)
	assert.InDelta(t, 0.5, trades[0].ExpectedProfit, 1e-9)

	pmOrders := f.polymarket.GetPlacedOrders()
	require.Len(t, pmOrders, 1)
	assert.Equal(t, "pm-1", pmOrders[0].MarketID)
	assert.Equal(t, int64(10), pmOrders[0].Amount)
	assert.Equal(t, testCreds.Polymarket, pmOrders[0].Creds)
}

func TestSubmit_OneLegFails(t *testing.T) {
	f := newFixture(t, nil)
	f.polymarket.SetFailure(errors.New("invalid signature"))

	result, err := f.executor.Submit(context.Background(), validSubmitRequest())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, types.StatusPartial, result.Status)
	assert.Equal(t, LegResult{Success: false, Error: "invalid signature"}, result.LegA)
	assert.True(t, result.LegB.Success)
	assert.NotEmpty(t, result.LegB.OrderID)

	trades := f.trades(t)
	require.Len(t, trades, 1)
	assert.Nil(t, trades[0].Opportunity, "unknown opportunity is not attached")
}

func TestSubmit_InvalidRequestPlacesNothing(t *testing.T) {
	f := newFixture(t, nil)
	req := validSubmitRequest()
	req.LegB = nil

	result, err := f.executor.Submit(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Nil(t, result)
	assert.Empty(t, f.polymarket.GetPlacedOrders())
	assert.Empty(t, f.trades(t))
}

func TestExpectedProfit(t *testing.T) {
	legA := &types.TradeOrder{Side: types.SideYes, Price: 0.45, Amount: 10}
	legB := &types.TradeOrder{Side: types.SideNo, Price: 0.50, Amount: 8}

	assert.InDelta(t, 0.4, expectedProfit(nil, legA, legB), 1e-9, "hedged contracts are the smaller leg")

	opp := &types.ArbOpportunity{BestStrategy: types.ArbStrategy{ProfitPer100: 10}}
	assert.InDelta(t, 0.8, expectedProfit(opp, legA, legB), 1e-9)

	sameSide := &types.TradeOrder{Side: types.SideYes, Price: 0.40, Amount: 8}
	assert.Zero(t, expectedProfit(nil, legA, sameSide))
}
