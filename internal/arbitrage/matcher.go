package arbitrage

import (
	"sort"
	"time"

	"github.com/mselser95/crossvenue-arb/internal/textmatch"
	"github.com/mselser95/crossvenue-arb/pkg/types"
	"go.uber.org/zap"
)

const (
	// DefaultMinConfidence is the title similarity below which pairs are discarded.
	DefaultMinConfidence = 0.4

	// DefaultMinProfitPct is the profit percentage a best strategy must exceed.
	DefaultMinProfitPct = 0.0
)

// Match cross-joins markets from two venues and returns the profitable pairs
// ranked by best-strategy profit percentage, highest first. Equal profits keep
// input order. Match is pure: UpdatedAt is left zero.
func Match(marketsA, marketsB []types.Market, minConfidence, minProfitPct float64) []types.ArbOpportunity {
	tokensB := make([]map[string]struct{}, len(marketsB))
	for j := range marketsB {
		tokensB[j] = textmatch.Tokens(marketsB[j].Title)
	}

	seen := make(map[pairKey]struct{})
	opportunities := make([]types.ArbOpportunity, 0)

	for i := range marketsA {
		mA := &marketsA[i]
		tokensA := textmatch.Tokens(mA.Title)

		for j := range marketsB {
			mB := &marketsB[j]

			if mA.Platform == mB.Platform {
				continue
			}

			confidence := textmatch.Jaccard(tokensA, tokensB[j])
			if confidence < minConfidence {
				continue
			}

			key := newPairKey(mA, mB)
			if _, dup := seen[key]; dup {
				continue
			}

			opp, ok := evaluatePair(mA, mB, confidence, minProfitPct)
			if !ok {
				continue
			}

			seen[key] = struct{}{}
			opportunities = append(opportunities, opp)
		}
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].BestStrategy.ProfitPct > opportunities[j].BestStrategy.ProfitPct
	})

	return opportunities
}

// evaluatePair prices both orientations and keeps the better one.
func evaluatePair(mA, mB *types.Market, confidence, minProfitPct float64) (types.ArbOpportunity, bool) {
	yesOnA := CalculateStrategy(mA, mB, mA.Platform, mB.Platform)
	yesOnB := CalculateStrategy(mA, mB, mB.Platform, mA.Platform)

	best, alt := yesOnA, yesOnB
	if yesOnB.ProfitPct > yesOnA.ProfitPct {
		best, alt = yesOnB, yesOnA
	}

	if best.ProfitPct <= minProfitPct {
		return types.ArbOpportunity{}, false
	}

	opp := types.ArbOpportunity{
		ID:              types.OpportunityID(mA.ID, mB.ID),
		MarketA:         *mA,
		MarketB:         *mB,
		BestStrategy:    best,
		MatchConfidence: confidence,
	}
	if alt.ProfitPct > 0 {
		opp.AlternateStrategy = &alt
	}

	return opp, true
}

// pairKey identifies an unordered pair of venue-scoped market ids.
type pairKey struct {
	first  string
	second string
}

func newPairKey(a, b *types.Market) pairKey {
	x := string(a.Platform) + ":" + a.ID
	y := string(b.Platform) + ":" + b.ID
	if x > y {
		x, y = y, x
	}
	return pairKey{first: x, second: y}
}

// Matcher runs Match with logging, metrics and timestamps.
type Matcher struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewMatcher creates a matcher.
func NewMatcher(logger *zap.Logger) *Matcher {
	return &Matcher{
		logger: logger,
		now:    time.Now,
	}
}

// Match ranks opportunities between the two market lists and stamps them with
// the matching time.
func (m *Matcher) Match(marketsA, marketsB []types.Market, minConfidence, minProfitPct float64) []types.ArbOpportunity {
	start := m.now()
	opportunities := Match(marketsA, marketsB, minConfidence, minProfitPct)
	elapsed := time.Since(start)

	for i := range opportunities {
		opportunities[i].UpdatedAt = start
		OpportunityProfitPct.Observe(opportunities[i].BestStrategy.ProfitPct)
		MatchConfidence.Observe(opportunities[i].MatchConfidence)
	}

	MatchDurationSeconds.Observe(elapsed.Seconds())
	PairsComparedTotal.Add(float64(len(marketsA) * len(marketsB)))
	OpportunitiesDetectedTotal.Add(float64(len(opportunities)))

	m.logger.Debug("match-complete",
		zap.Int("markets-a", len(marketsA)),
		zap.Int("markets-b", len(marketsB)),
		zap.Float64("min-confidence", minConfidence),
		zap.Float64("min-profit-pct", minProfitPct),
		zap.Int("opportunities", len(opportunities)),
		zap.Duration("duration", elapsed))

	return opportunities
}
