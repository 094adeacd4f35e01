package execution

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mselser95/crossvenue-arb/internal/storage"
	"github.com/mselser95/crossvenue-arb/internal/venue"
	"github.com/mselser95/crossvenue-arb/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultLegTimeout bounds a single leg's order request.
const DefaultLegTimeout = 30 * time.Second

var (
	// ErrInvalidStake is returned for a non-positive or non-finite stake.
	ErrInvalidStake = errors.New("stake must be a positive amount")

	// ErrStakeAboveCap is returned when the stake exceeds the configured cap.
	ErrStakeAboveCap = errors.New("stake exceeds max stake")

	// ErrNoContracts is returned when the stake buys less than one contract.
	ErrNoContracts = errors.New("stake too small to buy one contract")

	// ErrUnknownVenue is returned when no order placer serves a leg's venue.
	ErrUnknownVenue = errors.New("no order placer for venue")
)

// OpportunityLookup resolves an opportunity id to its latest priced version.
type OpportunityLookup interface {
	Lookup(id string) (*types.ArbOpportunity, bool)
}

// Executor submits both legs of a hedge concurrently and records the
// aggregated trade. A failed leg is never retried.
type Executor struct {
	mode          string
	placers       map[types.Platform]venue.OrderPlacer
	storage       storage.Storage
	opportunities OpportunityLookup
	maxStake      float64
	legTimeout    time.Duration
	logger        *zap.Logger
	now           func() time.Time
	newID         func() string
}

// Config holds executor configuration.
type Config struct {
	// Mode labels metrics and logs ("paper" or "live").
	Mode    string
	Placers map[types.Platform]venue.OrderPlacer
	Storage storage.Storage
	// Opportunities is optional; Submit attaches the cached opportunity when set.
	Opportunities OpportunityLookup
	// MaxStake <= 0 disables the stake cap.
	MaxStake   float64
	LegTimeout time.Duration
	Logger     *zap.Logger
}

// New creates a new trade executor.
func New(cfg *Config) *Executor {
	legTimeout := cfg.LegTimeout
	if legTimeout <= 0 {
		legTimeout = DefaultLegTimeout
	}

	return &Executor{
		mode:          cfg.Mode,
		placers:       cfg.Placers,
		storage:       cfg.Storage,
		opportunities: cfg.Opportunities,
		maxStake:      cfg.MaxStake,
		legTimeout:    legTimeout,
		logger:        cfg.Logger,
		now:           time.Now,
		newID:         func() string { return "trade-" + uuid.NewString() },
	}
}

// Sizing is the contract count and money figures derived from a strategy.
type Sizing struct {
	Contracts      int64
	TotalCost      float64
	ExpectedProfit float64
}

// Size converts a stake into whole contracts of the strategy. A contract pairs
// one YES and one NO share, so it costs YesPrice+NoPrice and pays out 1.
func Size(strategy *types.ArbStrategy, stake float64) (Sizing, error) {
	if stake <= 0 || math.IsNaN(stake) || math.IsInf(stake, 0) {
		return Sizing{}, ErrInvalidStake
	}

	pairCost := decimal.NewFromFloat(strategy.YesPrice).Add(decimal.NewFromFloat(strategy.NoPrice))
	if pairCost.Sign() <= 0 {
		return Sizing{}, ErrNoContracts
	}

	contracts := decimal.NewFromFloat(stake).Div(pairCost).Floor()
	if contracts.Sign() <= 0 {
		return Sizing{}, ErrNoContracts
	}

	return Sizing{
		Contracts:      contracts.IntPart(),
		TotalCost:      pairCost.Mul(contracts).Round(4).InexactFloat64(),
		ExpectedProfit: decimal.NewFromInt(1).Sub(pairCost).Mul(contracts).Round(4).InexactFloat64(),
	}, nil
}

// Execute sizes the opportunity's best strategy for stake, buys YES and NO
// on their venues concurrently and records the resulting trade. The trade is
// recorded whatever the leg outcomes.
func (e *Executor) Execute(ctx context.Context, opp *types.ArbOpportunity, stake float64, creds types.CredentialSet) (*types.ArbTrade, error) {
	if e.maxStake > 0 && stake > e.maxStake {
		return nil, fmt.Errorf("%w: %.2f > %.2f", ErrStakeAboveCap, stake, e.maxStake)
	}

	strategy := opp.BestStrategy
	sizing, err := Size(&strategy, stake)
	if err != nil {
		return nil, err
	}

	yesMarket, ok := opp.MarketOn(strategy.BuyYesOn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVenue, strategy.BuyYesOn)
	}
	noMarket, ok := opp.MarketOn(strategy.BuyNoOn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVenue, strategy.BuyNoOn)
	}

	legA := types.TradeOrder{
		Platform: strategy.BuyYesOn,
		MarketID: yesMarket.ID,
		Side:     types.SideYes,
		Price:    strategy.YesPrice,
		Amount:   sizing.Contracts,
		Status:   types.StatusPending,
	}
	legB := types.TradeOrder{
		Platform: strategy.BuyNoOn,
		MarketID: noMarket.ID,
		Side:     types.SideNo,
		Price:    strategy.NoPrice,
		Amount:   sizing.Contracts,
		Status:   types.StatusPending,
	}

	err = e.checkPlacers(&legA, &legB)
	if err != nil {
		return nil, err
	}

	e.logger.Info("executing-hedge",
		zap.String("opportunity-id", opp.ID),
		zap.String("mode", e.mode),
		zap.Float64("stake", stake),
		zap.Int64("contracts", sizing.Contracts),
		zap.Float64("total-cost", sizing.TotalCost),
		zap.Float64("expected-profit", sizing.ExpectedProfit))

	oppCopy := *opp
	trade := e.run(ctx, opp.ID, &oppCopy, legA, legB, creds, stake, sizing.ExpectedProfit)
	return trade, nil
}

func (e *Executor) checkPlacers(legs ...*types.TradeOrder) error {
	for _, leg := range legs {
		if _, ok := e.placers[leg.Platform]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownVenue, leg.Platform)
		}
	}
	return nil
}

// run places both legs, aggregates them into a trade and appends it to the log.
func (e *Executor) run(
	ctx context.Context,
	opportunityID string,
	opp *types.ArbOpportunity,
	legA, legB types.TradeOrder,
	creds types.CredentialSet,
	stake, expectedProfit float64,
) *types.ArbTrade {
	start := e.now()

	e.placeLegs(ctx, creds, &legA, &legB)

	completed := e.now()
	trade := &types.ArbTrade{
		ID:             e.newID(),
		OpportunityID:  opportunityID,
		Opportunity:    opp,
		LegA:           legA,
		LegB:           legB,
		Stake:          stake,
		ExpectedProfit: expectedProfit,
		Status:         types.AggregateStatus(legA.Status, legB.Status),
		CreatedAt:      completed,
		CompletedAt:    &completed,
	}

	ExecutionDurationSeconds.Observe(completed.Sub(start).Seconds())
	TradesTotal.WithLabelValues(e.mode, string(trade.Status)).Inc()
	if trade.Status == types.StatusFilled {
		ExpectedProfitUSD.WithLabelValues(e.mode).Add(expectedProfit)
	}

	fields := []zap.Field{
		zap.String("trade-id", trade.ID),
		zap.String("opportunity-id", opportunityID),
		zap.String("status", string(trade.Status)),
		zap.String("leg-a-order-id", legA.OrderID),
		zap.String("leg-b-order-id", legB.OrderID),
		zap.Float64("expected-profit", expectedProfit),
	}
	switch trade.Status {
	case types.StatusFilled:
		e.logger.Info("hedge-filled", fields...)
	case types.StatusPartial:
		e.logger.Warn("hedge-partial-unhedged-exposure", fields...)
	default:
		e.logger.Error("hedge-failed", fields...)
	}

	if e.storage != nil {
		err := e.storage.AppendTrade(context.WithoutCancel(ctx), trade)
		if err != nil {
			RecordErrorsTotal.Inc()
			e.logger.Error("trade-record-failed",
				zap.String("trade-id", trade.ID),
				zap.Error(err))
		}
	}

	return trade
}

// placeLegs submits both legs at once and waits for both. Once sent, a leg is
// not cancelled by the caller's context; only the leg timeout bounds it.
func (e *Executor) placeLegs(ctx context.Context, creds types.CredentialSet, legs ...*types.TradeOrder) {
	detached := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for _, leg := range legs {
		wg.Add(1)
		go func(leg *types.TradeOrder) {
			defer wg.Done()
			e.placeLeg(detached, creds.For(leg.Platform), leg)
		}(leg)
	}
	wg.Wait()
}

func (e *Executor) placeLeg(ctx context.Context, creds types.Credentials, leg *types.TradeOrder) {
	ctx, cancel := context.WithTimeout(ctx, e.legTimeout)
	defer cancel()

	placer, ok := e.placers[leg.Platform]
	if !ok {
		leg.Fail(fmt.Sprintf("%s: %s", ErrUnknownVenue, leg.Platform))
		LegsTotal.WithLabelValues(string(leg.Platform), "failed").Inc()
		return
	}

	orderID, err := placer.PlaceOrder(ctx, creds, leg.MarketID, leg.Side, leg.Price, leg.Amount)
	if err != nil {
		leg.Fail(err.Error())
		LegsTotal.WithLabelValues(string(leg.Platform), "failed").Inc()
		e.logger.Warn("leg-failed",
			zap.String("venue", string(leg.Platform)),
			zap.String("market-id", leg.MarketID),
			zap.String("side", string(leg.Side)),
			zap.Error(err))
		return
	}

	leg.Fill(orderID, e.now())
	LegsTotal.WithLabelValues(string(leg.Platform), "filled").Inc()
	e.logger.Debug("leg-filled",
		zap.String("venue", string(leg.Platform)),
		zap.String("market-id", leg.MarketID),
		zap.String("order-id", orderID))
}
