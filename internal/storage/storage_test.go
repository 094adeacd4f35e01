package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/goccy/go-json"
	"github.com/mselser95/crossvenue-arb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createTestTrade(id string, status types.TradeStatus, createdAt time.Time) *types.ArbTrade {
	legA := types.TradeOrder{
		Platform: types.PlatformPolymarket,
		MarketID: "pm-fed",
		Side:     types.SideYes,
		Price:    0.45,
		Amount:   105,
		Status:   types.StatusFilled,
		OrderID:  "pm-order-1",
	}
	legB := types.TradeOrder{
		Platform: types.PlatformKalshi,
		MarketID: "KXFED",
		Side:     types.SideNo,
		Price:    0.50,
		Amount:   105,
		Status:   types.StatusFilled,
		OrderID:  "kx-order-1",
	}
	if status == types.StatusPartial {
		legB.Status = types.StatusFailed
		legB.OrderID = ""
		legB.Error = "kalshi no order failed (status 400): insufficient balance"
	}

	completed := createdAt.Add(time.Second)
	return &types.ArbTrade{
		ID:             id,
		OpportunityID:  "pm-fed__KXFED",
		LegA:           legA,
		LegB:           legB,
		Stake:          100,
		ExpectedProfit: 5.25,
		Status:         status,
		CreatedAt:      createdAt,
		CompletedAt:    &completed,
	}
}

func TestMemoryStorage_AppendAndList(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"trade-1", "trade-2", "trade-3"} {
		require.NoError(t, s.AppendTrade(ctx, createTestTrade(id, types.StatusFilled, base.Add(time.Duration(i)*time.Minute))))
	}

	trades, err := s.ListTrades(ctx, 2)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "trade-3", trades[0].ID)
	assert.Equal(t, "trade-2", trades[1].ID)

	all, err := s.ListTrades(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStorage_StoresCopies(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	trade := createTestTrade("trade-1", types.StatusFilled, time.Now())
	require.NoError(t, s.AppendTrade(ctx, trade))
	trade.Status = types.StatusFailed

	trades, err := s.ListTrades(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFilled, trades[0].Status)
}

func TestMemoryStorage_Empty(t *testing.T) {
	trades, err := NewMemoryStorage().ListTrades(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, trades)
	assert.Empty(t, trades)
}

func TestMemoryStorage_NilTrade(t *testing.T) {
	err := NewMemoryStorage().AppendTrade(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilTrade)
}

func TestConsoleStorage_AppendTrade(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleStorageTo(&buf, zap.NewNop())
	ctx := context.Background()

	trade := createTestTrade("trade-abc", types.StatusPartial, time.Now())
	require.NoError(t, s.AppendTrade(ctx, trade))

	output := buf.String()
	assert.Contains(t, output, "HEDGE PARTIAL")
	assert.Contains(t, output, "trade-abc")
	assert.Contains(t, output, "pm-fed__KXFED")
	assert.Contains(t, output, "order pm-order-1")
	assert.Contains(t, output, "insufficient balance")
	assert.Contains(t, output, "unhedged")

	trades, err := s.ListTrades(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "trade-abc", trades[0].ID)
}

func TestConsoleStorage_Close(t *testing.T) {
	s := NewConsoleStorageTo(&bytes.Buffer{}, zap.NewNop())
	assert.NoError(t, s.Close())
}

func TestPostgresStorage_AppendTrade(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := &PostgresStorage{db: db, logger: zap.NewNop()}
	trade := createTestTrade("trade-1", types.StatusFilled, time.Now())

	legA, err := json.Marshal(trade.LegA)
	require.NoError(t, err)
	legB, err := json.Marshal(trade.LegB)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO arb_trades").
		WithArgs(
			trade.ID,
			trade.OpportunityID,
			"filled",
			trade.Stake,
			trade.ExpectedProfit,
			legA,
			legB,
			nil,              // no opportunity attached
			sqlmock.AnyArg(), // created_at
			sqlmock.AnyArg(), // completed_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.AppendTrade(context.Background(), trade))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_AppendTrade_WithOpportunity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := &PostgresStorage{db: db, logger: zap.NewNop()}
	trade := createTestTrade("trade-1", types.StatusFilled, time.Now())
	trade.Opportunity = &types.ArbOpportunity{ID: "pm-fed__KXFED", MatchConfidence: 1}

	opp, err := json.Marshal(trade.Opportunity)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO arb_trades").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), opp, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.AppendTrade(context.Background(), trade))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_AppendTrade_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := &PostgresStorage{db: db, logger: zap.NewNop()}

	mock.ExpectExec("INSERT INTO arb_trades").WillReturnError(sqlmock.ErrCancelled)

	err = s.AppendTrade(context.Background(), createTestTrade("trade-1", types.StatusFilled, time.Now()))
	require.Error(t, err)
	assert.ErrorIs(t, err, sqlmock.ErrCancelled)
	assert.Contains(t, err.Error(), "insert trade")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_ListTrades(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := &PostgresStorage{db: db, logger: zap.NewNop()}

	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	partial := createTestTrade("trade-2", types.StatusPartial, createdAt.Add(time.Minute))
	filled := createTestTrade("trade-1", types.StatusFilled, createdAt)

	rows := sqlmock.NewRows([]string{
		"id", "opportunity_id", "status", "stake", "expected_profit",
		"leg_a", "leg_b", "opportunity", "created_at", "completed_at",
	})
	for _, tr := range []*types.ArbTrade{partial, filled} {
		legA, err := json.Marshal(tr.LegA)
		require.NoError(t, err)
		legB, err := json.Marshal(tr.LegB)
		require.NoError(t, err)
		rows.AddRow(tr.ID, tr.OpportunityID, string(tr.Status), tr.Stake, tr.ExpectedProfit,
			legA, legB, nil, tr.CreatedAt, nil)
	}

	mock.ExpectQuery("SELECT (.+) FROM arb_trades").WithArgs(10).WillReturnRows(rows)

	trades, err := s.ListTrades(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, "trade-2", trades[0].ID)
	assert.Equal(t, types.StatusPartial, trades[0].Status)
	assert.Equal(t, types.StatusFailed, trades[0].LegB.Status)
	assert.Contains(t, trades[0].LegB.Error, "insufficient balance")
	assert.Equal(t, "pm-order-1", trades[0].LegA.OrderID)
	assert.Nil(t, trades[0].CompletedAt)
	assert.Nil(t, trades[0].Opportunity)
	assert.True(t, createdAt.Equal(trades[1].CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_ListTrades_DefaultLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := &PostgresStorage{db: db, logger: zap.NewNop()}

	mock.ExpectQuery("SELECT (.+) FROM arb_trades").
		WithArgs(DefaultListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	trades, err := s.ListTrades(context.Background(), -1)
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_ListTrades_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := &PostgresStorage{db: db, logger: zap.NewNop()}
	boom := errors.New("connection reset")

	mock.ExpectQuery("SELECT (.+) FROM arb_trades").WillReturnError(boom)

	_, err = s.ListTrades(context.Background(), 5)
	assert.ErrorIs(t, err, boom)
}

func TestPostgresStorage_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := &PostgresStorage{db: db, logger: zap.NewNop()}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS arb_trades").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_Close(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	s := &PostgresStorage{db: db, logger: zap.NewNop()}
	mock.ExpectClose()

	require.NoError(t, s.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
