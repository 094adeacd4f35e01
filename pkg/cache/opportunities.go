package cache

import (
	"time"

	"github.com/mselser95/crossvenue-arb/pkg/types"
)

// OpportunityCache indexes the latest opportunities by id so a trade
// submission can be linked to the opportunity it was priced from.
type OpportunityCache struct {
	cache Cache
	ttl   time.Duration
}

// NewOpportunityCache wraps c. Entries expire after ttl.
func NewOpportunityCache(c Cache, ttl time.Duration) *OpportunityCache {
	return &OpportunityCache{cache: c, ttl: ttl}
}

// Store caches a copy of each opportunity and returns how many were admitted.
func (o *OpportunityCache) Store(opps []types.ArbOpportunity) int {
	stored := 0
	for i := range opps {
		opp := opps[i]
		if o.cache.Set(opp.ID, &opp, o.ttl) {
			stored++
		}
	}
	o.cache.Wait()
	return stored
}

// Lookup returns a copy of the cached opportunity.
func (o *OpportunityCache) Lookup(id string) (*types.ArbOpportunity, bool) {
	value, found := o.cache.Get(id)
	if !found {
		return nil, false
	}

	opp, ok := value.(*types.ArbOpportunity)
	if !ok {
		return nil, false
	}

	out := *opp
	return &out, true
}
