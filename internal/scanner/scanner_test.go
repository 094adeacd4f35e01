package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mselser95/crossvenue-arb/internal/arbitrage"
	"github.com/mselser95/crossvenue-arb/internal/discovery"
	"github.com/mselser95/crossvenue-arb/internal/testutil"
	"github.com/mselser95/crossvenue-arb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingStore struct {
	mu     sync.Mutex
	stored [][]types.ArbOpportunity
}

func (r *recordingStore) Store(opps []types.ArbOpportunity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored = append(r.stored, opps)
	return len(opps)
}

func newTestScanner(t *testing.T, pm, kx *testutil.FakeSource, interval time.Duration) (*Scanner, *recordingStore) {
	t.Helper()

	logger := zap.NewNop()
	store := &recordingStore{}
	s := New(&Config{
		Ingester: discovery.New(&discovery.Config{
			Polymarket: pm,
			Kalshi:     kx,
			Logger:     logger,
		}),
		Matcher:       arbitrage.NewMatcher(logger),
		Store:         store,
		Interval:      interval,
		MinConfidence: arbitrage.DefaultMinConfidence,
		MinProfitPct:  arbitrage.DefaultMinProfitPct,
		Logger:        logger,
	})
	return s, store
}

func matchingSources() (*testutil.FakeSource, *testutil.FakeSource) {
	pmMarkets, kxMarkets := testutil.MatchingMarkets()
	return testutil.NewFakeSource(types.PlatformPolymarket, pmMarkets),
		testutil.NewFakeSource(types.PlatformKalshi, kxMarkets)
}

func TestRefresh_PublishesSnapshot(t *testing.T) {
	pm, kx := matchingSources()

	var seen *Snapshot
	s, store := newTestScanner(t, pm, kx, 0)
	s.onSnapshot = func(snap *Snapshot) { seen = snap }

	assert.Nil(t, s.Snapshot())

	snap, ran := s.Refresh(context.Background())
	require.True(t, ran)
	require.NotNil(t, snap)

	assert.Same(t, snap, s.Snapshot())
	assert.Same(t, snap, seen)
	assert.Len(t, snap.Polymarket, 3)
	assert.Len(t, snap.Kalshi, 3)
	require.Len(t, snap.Opportunities, 2)
	assert.Equal(t, "pm-btc__KXBTC", snap.Opportunities[0].ID)
	assert.Equal(t, "pm-fed__KXFED", snap.Opportunities[1].ID)
	assert.Equal(t, MarketCounts{Polymarket: 3, Kalshi: 3}, snap.Counts())
	assert.False(t, snap.RefreshedAt.IsZero())

	require.Len(t, store.stored, 1)
	assert.Len(t, store.stored[0], 2)
}

func TestRefresh_SkipsWhileInFlight(t *testing.T) {
	pm, kx := matchingSources()
	release := kx.Block()

	s, _ := newTestScanner(t, pm, kx, 0)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Refresh(context.Background())
	}()

	require.Eventually(t, s.Refreshing, time.Second, 5*time.Millisecond)

	snap, ran := s.Refresh(context.Background())
	assert.False(t, ran)
	assert.Nil(t, snap)

	release()
	<-done

	assert.NotNil(t, s.Snapshot())
	assert.False(t, s.Refreshing())
	assert.Equal(t, int32(1), kx.Calls.Load())
}

func TestRefresh_VenueFailureKeepsOtherVenue(t *testing.T) {
	pm, kx := matchingSources()
	kx.SetError(errors.New("connection refused"))

	s, _ := newTestScanner(t, pm, kx, 0)

	snap, ran := s.Refresh(context.Background())
	require.True(t, ran)

	assert.Len(t, snap.Polymarket, 3)
	assert.Empty(t, snap.Kalshi)
	assert.Empty(t, snap.Opportunities)
	assert.Equal(t, []string{"Kalshi: connection refused"}, snap.Warnings)
}

func TestRefresh_ExpiredContextKeepsPreviousSnapshot(t *testing.T) {
	pm, kx := matchingSources()

	published := 0
	s, store := newTestScanner(t, pm, kx, 0)
	s.onSnapshot = func(*Snapshot) { published++ }

	good, ran := s.Refresh(context.Background())
	require.True(t, ran)
	require.Len(t, good.Opportunities, 2)

	pm.SetDelay(200 * time.Millisecond)
	kx.SetDelay(200 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	snap, ran := s.Refresh(ctx)
	assert.False(t, ran)
	assert.Nil(t, snap)

	assert.Same(t, good, s.Snapshot(), "previous snapshot stays current")
	assert.Len(t, s.Snapshot().Opportunities, 2)
	assert.Len(t, store.stored, 1, "cache is not overwritten")
	assert.Equal(t, 1, published)
	assert.False(t, s.Refreshing())
}

func TestRequestRefresh_OutlivesCallerContext(t *testing.T) {
	pm, kx := matchingSources()
	pm.SetDelay(50 * time.Millisecond)
	kx.SetDelay(50 * time.Millisecond)

	s, _ := newTestScanner(t, pm, kx, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	snap, ran := s.RequestRefresh(ctx)
	require.True(t, ran)
	assert.Len(t, snap.Polymarket, 3)
	assert.Len(t, snap.Kalshi, 3)
	assert.Len(t, snap.Opportunities, 2)
	assert.Empty(t, snap.Warnings)
}

func TestRequestRefresh_BoundedByRefreshTimeout(t *testing.T) {
	pm, kx := matchingSources()
	s, _ := newTestScanner(t, pm, kx, 0)

	good, ran := s.Refresh(context.Background())
	require.True(t, ran)

	s.timeout = 20 * time.Millisecond
	pm.SetDelay(time.Second)
	kx.SetDelay(time.Second)

	start := time.Now()
	_, ran = s.RequestRefresh(context.Background())
	assert.False(t, ran)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Same(t, good, s.Snapshot())
}

func TestNew_DefaultRefreshTimeout(t *testing.T) {
	s := New(&Config{Logger: zap.NewNop()})
	assert.Equal(t, DefaultRefreshTimeout, s.timeout)
}

func TestQuery_RefreshesWhenNoSnapshot(t *testing.T) {
	pm, kx := matchingSources()
	s, _ := newTestScanner(t, pm, kx, 0)

	result, err := s.Query(context.Background(), arbitrage.DefaultMinConfidence, arbitrage.DefaultMinProfitPct)
	require.NoError(t, err)

	assert.Len(t, result.Opportunities, 2)
	assert.Equal(t, MarketCounts{Polymarket: 3, Kalshi: 3}, result.MarketCounts)
	assert.NotNil(t, result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, int32(1), pm.Calls.Load())
}

func TestQuery_ReusesSnapshot(t *testing.T) {
	pm, kx := matchingSources()
	s, _ := newTestScanner(t, pm, kx, 0)

	_, ran := s.Refresh(context.Background())
	require.True(t, ran)

	_, err := s.Query(context.Background(), arbitrage.DefaultMinConfidence, arbitrage.DefaultMinProfitPct)
	require.NoError(t, err)
	_, err = s.Query(context.Background(), 0.9, 10)
	require.NoError(t, err)

	assert.Equal(t, int32(1), pm.Calls.Load(), "queries never refetch")
}

func TestQuery_CustomThresholdsRematch(t *testing.T) {
	pm, kx := matchingSources()
	s, _ := newTestScanner(t, pm, kx, 0)

	result, err := s.Query(context.Background(), arbitrage.DefaultMinConfidence, 10)
	require.NoError(t, err)

	require.Len(t, result.Opportunities, 1)
	assert.Equal(t, "pm-btc__KXBTC", result.Opportunities[0].ID)

	result, err = s.Query(context.Background(), 1.01, 0)
	require.NoError(t, err)
	assert.NotNil(t, result.Opportunities)
	assert.Empty(t, result.Opportunities)
}

func TestQuery_RematchedOpportunitiesAreStored(t *testing.T) {
	pm, kx := matchingSources()
	s, store := newTestScanner(t, pm, kx, 0)

	_, ran := s.Refresh(context.Background())
	require.True(t, ran)

	_, err := s.Query(context.Background(), arbitrage.DefaultMinConfidence, arbitrage.DefaultMinProfitPct)
	require.NoError(t, err)
	require.Len(t, store.stored, 1, "snapshot thresholds reuse stored opportunities")

	result, err := s.Query(context.Background(), arbitrage.DefaultMinConfidence, 10)
	require.NoError(t, err)
	require.Len(t, result.Opportunities, 1)

	require.Len(t, store.stored, 2)
	assert.Equal(t, result.Opportunities, store.stored[1])
}

func TestQuery_WaitsForInFlightRefresh(t *testing.T) {
	pm, kx := matchingSources()
	release := kx.Block()

	s, _ := newTestScanner(t, pm, kx, 0)

	go s.Refresh(context.Background())
	require.Eventually(t, s.Refreshing, time.Second, 5*time.Millisecond)

	results := make(chan *QueryResult, 1)
	go func() {
		result, err := s.Query(context.Background(), arbitrage.DefaultMinConfidence, arbitrage.DefaultMinProfitPct)
		assert.NoError(t, err)
		results <- result
	}()

	time.Sleep(20 * time.Millisecond)
	release()

	select {
	case result := <-results:
		require.NotNil(t, result)
		assert.Len(t, result.Opportunities, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("query did not return after refresh completed")
	}
	assert.Equal(t, int32(1), kx.Calls.Load())
}

func TestQuery_ContextCancelledWhileWaiting(t *testing.T) {
	pm, kx := matchingSources()
	release := kx.Block()
	defer release()

	s, _ := newTestScanner(t, pm, kx, 0)

	go s.Refresh(context.Background())
	require.Eventually(t, s.Refreshing, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := s.Query(ctx, arbitrage.DefaultMinConfidence, arbitrage.DefaultMinProfitPct)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRun_RefreshesOnInterval(t *testing.T) {
	pm, kx := matchingSources()
	s, _ := newTestScanner(t, pm, kx, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return pm.Calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRun_NoIntervalRefreshesOnce(t *testing.T) {
	pm, kx := matchingSources()
	s, _ := newTestScanner(t, pm, kx, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Snapshot() != nil }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, int32(1), pm.Calls.Load())
}

func TestQuery_FirstRefreshIgnoresShortCallerDeadline(t *testing.T) {
	pm, kx := matchingSources()
	pm.SetDelay(50 * time.Millisecond)
	kx.SetDelay(50 * time.Millisecond)

	s, _ := newTestScanner(t, pm, kx, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	result, err := s.Query(ctx, arbitrage.DefaultMinConfidence, arbitrage.DefaultMinProfitPct)
	require.NoError(t, err)
	assert.Len(t, result.Opportunities, 2)
	assert.Empty(t, result.Errors)
}
