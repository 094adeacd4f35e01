package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mselser95/crossvenue-arb/internal/testutil"
	"github.com/mselser95/crossvenue-arb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(pm, kx *testutil.FakeSource) *Service {
	return New(&Config{
		Polymarket: pm,
		Kalshi:     kx,
		Logger:     zap.NewNop(),
	})
}

func TestIngest_BothVenues(t *testing.T) {
	pmMarkets, kxMarkets := testutil.MatchingMarkets()
	pm := testutil.NewFakeSource(types.PlatformPolymarket, pmMarkets)
	kx := testutil.NewFakeSource(types.PlatformKalshi, kxMarkets)

	result := newTestService(pm, kx).Ingest(context.Background())

	assert.Len(t, result.Polymarket, 3)
	assert.Len(t, result.Kalshi, 3)
	assert.Empty(t, result.Warnings)
	assert.Empty(t, result.Failures)
	assert.Equal(t, map[types.Platform]int{
		types.PlatformPolymarket: 3,
		types.PlatformKalshi:     3,
	}, result.Counts())
	assert.False(t, result.FetchedAt.IsZero())
}

func TestIngest_OneVenueFails(t *testing.T) {
	pmMarkets, _ := testutil.MatchingMarkets()
	pm := testutil.NewFakeSource(types.PlatformPolymarket, pmMarkets)
	kx := testutil.NewFakeSource(types.PlatformKalshi, nil)
	kx.SetError(&types.VenueError{Venue: types.PlatformKalshi, StatusCode: 503, Body: "maintenance"})

	result := newTestService(pm, kx).Ingest(context.Background())

	assert.Len(t, result.Polymarket, 3)
	assert.NotNil(t, result.Kalshi)
	assert.Empty(t, result.Kalshi)
	assert.True(t, result.Failed(types.PlatformKalshi))
	assert.False(t, result.Failed(types.PlatformPolymarket))

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "Kalshi: kalshi API error (status 503): maintenance", result.Warnings[0])
}

func TestIngest_ZeroMarketsIsDistinctWarning(t *testing.T) {
	pm := testutil.NewFakeSource(types.PlatformPolymarket, []types.Market{})
	kx := testutil.NewFakeSource(types.PlatformKalshi, nil)
	kx.SetError(errors.New("dial tcp: connection refused"))

	result := newTestService(pm, kx).Ingest(context.Background())

	require.Len(t, result.Warnings, 2)
	assert.Equal(t, "Polymarket: API returned 0 markets (check filters or API availability)", result.Warnings[0])
	assert.Equal(t, "Kalshi: dial tcp: connection refused", result.Warnings[1])
	assert.False(t, result.Failed(types.PlatformPolymarket), "empty is not a failure")
}

func TestIngest_BothFailStillReturns(t *testing.T) {
	pm := testutil.NewFakeSource(types.PlatformPolymarket, nil)
	pm.SetError(errors.New("boom"))
	kx := testutil.NewFakeSource(types.PlatformKalshi, nil)
	kx.SetError(errors.New("bang"))

	result := newTestService(pm, kx).Ingest(context.Background())

	require.NotNil(t, result)
	assert.Len(t, result.Warnings, 2)
	assert.Len(t, result.Failures, 2)
}

func TestIngest_VenuesRunConcurrently(t *testing.T) {
	pmMarkets, kxMarkets := testutil.MatchingMarkets()
	pm := testutil.NewFakeSource(types.PlatformPolymarket, pmMarkets)
	kx := testutil.NewFakeSource(types.PlatformKalshi, kxMarkets)
	pm.SetDelay(150 * time.Millisecond)
	kx.SetDelay(150 * time.Millisecond)

	start := time.Now()
	result := newTestService(pm, kx).Ingest(context.Background())
	elapsed := time.Since(start)

	assert.Len(t, result.Polymarket, 3)
	assert.Len(t, result.Kalshi, 3)
	assert.Less(t, elapsed, 280*time.Millisecond)
}

func TestIngest_SlowVenueDoesNotLoseOther(t *testing.T) {
	pmMarkets, _ := testutil.MatchingMarkets()
	pm := testutil.NewFakeSource(types.PlatformPolymarket, pmMarkets)
	kx := testutil.NewFakeSource(types.PlatformKalshi, nil)
	release := kx.Block()
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result := newTestService(pm, kx).Ingest(ctx)

	assert.Len(t, result.Polymarket, 3)
	assert.True(t, result.Failed(types.PlatformKalshi))
	assert.ErrorIs(t, result.Failures[types.PlatformKalshi], context.DeadlineExceeded)
}
