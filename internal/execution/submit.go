package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mselser95/crossvenue-arb/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrInvalidRequest is returned when a submission is missing required fields.
var ErrInvalidRequest = errors.New("invalid trade request")

// LegRequest is one fully specified leg of a submission.
type LegRequest struct {
	Platform types.Platform `json:"platform"`
	MarketID string         `json:"marketId"`
	Side     types.Side     `json:"side"`
	Price    float64        `json:"price"`
	Amount   int64          `json:"amount"`
}

// SubmitRequest is a user-confirmed hedge with per-venue credentials.
type SubmitRequest struct {
	OpportunityID   string            `json:"opportunityId"`
	LegA            *LegRequest       `json:"legA"`
	LegB            *LegRequest       `json:"legB"`
	PolymarketCreds types.Credentials `json:"polymarketCreds"`
	KalshiCreds     types.Credentials `json:"kalshiCreds"`
}

// Validate reports the missing or invalid fields.
func (r *SubmitRequest) Validate() error {
	var problems []string
	if r.OpportunityID == "" {
		problems = append(problems, "opportunityId is required")
	}
	problems = append(problems, validateLeg("legA", r.LegA)...)
	problems = append(problems, validateLeg("legB", r.LegB)...)

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return nil
}

func validateLeg(name string, leg *LegRequest) []string {
	if leg == nil {
		return []string{name + " is required"}
	}

	var problems []string
	if !leg.Platform.Valid() {
		problems = append(problems, name+".platform must be polymarket or kalshi")
	}
	if leg.MarketID == "" {
		problems = append(problems, name+".marketId is required")
	}
	if !leg.Side.Valid() {
		problems = append(problems, name+".side must be yes or no")
	}
	if leg.Price <= 0 || leg.Price >= 1 {
		problems = append(problems, name+".price must be between 0 and 1")
	}
	if leg.Amount <= 0 {
		problems = append(problems, name+".amount must be positive")
	}
	return problems
}

func (r *SubmitRequest) credentials() types.CredentialSet {
	return types.CredentialSet{Polymarket: r.PolymarketCreds, Kalshi: r.KalshiCreds}
}

// LegResult is the outcome of one submitted leg.
type LegResult struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SubmitResult is the outcome of a submission. Success is true only when
// both legs succeeded.
type SubmitResult struct {
	Success bool              `json:"success"`
	TradeID string            `json:"tradeId"`
	Status  types.TradeStatus `json:"status"`
	LegA    LegResult         `json:"legA"`
	LegB    LegResult         `json:"legB"`
}

func legResult(leg *types.TradeOrder) LegResult {
	return LegResult{
		Success: leg.Status == types.StatusFilled,
		OrderID: leg.OrderID,
		Error:   leg.Error,
	}
}

// Submit places the two legs exactly as requested and records the trade.
// Leg failures are reported in the result, not as an error; the error is
// non-nil only for an invalid request.
func (e *Executor) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	err := req.Validate()
	if err != nil {
		return nil, err
	}

	legA := orderFromRequest(req.LegA)
	legB := orderFromRequest(req.LegB)

	var opp *types.ArbOpportunity
	if e.opportunities != nil {
		found, ok := e.opportunities.Lookup(req.OpportunityID)
		if ok {
			opp = found
		}
	}

	stake := legCost(&legA).Add(legCost(&legB)).Round(4).InexactFloat64()
	expected := expectedProfit(opp, &legA, &legB)

	e.logger.Info("submitting-hedge",
		zap.String("opportunity-id", req.OpportunityID),
		zap.Bool("opportunity-known", opp != nil),
		zap.String("mode", e.mode),
		zap.Float64("stake", stake))

	trade := e.run(ctx, req.OpportunityID, opp, legA, legB, req.credentials(), stake, expected)

	return &SubmitResult{
		Success: trade.Status == types.StatusFilled,
		TradeID: trade.ID,
		Status:  trade.Status,
		LegA:    legResult(&trade.LegA),
		LegB:    legResult(&trade.LegB),
	}, nil
}

func orderFromRequest(leg *LegRequest) types.TradeOrder {
	return types.TradeOrder{
		Platform: leg.Platform,
		MarketID: leg.MarketID,
		Side:     leg.Side,
		Price:    leg.Price,
		Amount:   leg.Amount,
		Status:   types.StatusPending,
	}
}

func legCost(leg *types.TradeOrder) decimal.Decimal {
	return decimal.NewFromFloat(leg.Price).Mul(decimal.NewFromInt(leg.Amount))
}

// expectedProfit prices the hedged contracts with the opportunity's best
// strategy when known, otherwise with the leg prices. Legs on the same side
// are not a hedge and have no expected profit.
func expectedProfit(opp *types.ArbOpportunity, legA, legB *types.TradeOrder) float64 {
	if legA.Side == legB.Side {
		return 0
	}

	hedged := decimal.NewFromInt(min(legA.Amount, legB.Amount))
	per := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(legA.Price)).Sub(decimal.NewFromFloat(legB.Price))
	if opp != nil {
		per = decimal.NewFromFloat(opp.BestStrategy.ProfitPer100).Div(decimal.NewFromInt(100))
	}
	return per.Mul(hedged).Round(4).InexactFloat64()
}
