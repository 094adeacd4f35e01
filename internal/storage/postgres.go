package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"github.com/mselser95/crossvenue-arb/pkg/types"
	"go.uber.org/zap"
)

const createTradesTable = `
	CREATE TABLE IF NOT EXISTS arb_trades (
		id              TEXT PRIMARY KEY,
		opportunity_id  TEXT NOT NULL,
		status          TEXT NOT NULL,
		stake           DOUBLE PRECISION NOT NULL,
		expected_profit DOUBLE PRECISION NOT NULL,
		leg_a           JSONB NOT NULL,
		leg_b           JSONB NOT NULL,
		opportunity     JSONB,
		created_at      TIMESTAMPTZ NOT NULL,
		completed_at    TIMESTAMPTZ
	)
`

const insertTrade = `
	INSERT INTO arb_trades (
		id, opportunity_id, status, stake, expected_profit,
		leg_a, leg_b, opportunity, created_at, completed_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
	)
`

const selectTrades = `
	SELECT id, opportunity_id, status, stake, expected_profit,
		leg_a, leg_b, opportunity, created_at, completed_at
	FROM arb_trades
	ORDER BY created_at DESC
	LIMIT $1
`

// PostgresStorage implements Storage using PostgreSQL. Legs and the
// opportunity are stored as JSONB.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage connects to PostgreSQL and creates the trade table if
// it does not exist.
func NewPostgresStorage(ctx context.Context, cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &PostgresStorage{db: db, logger: cfg.Logger}

	err = p.EnsureSchema(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return p, nil
}

// EnsureSchema creates the trade table if missing.
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, createTradesTable)
	if err != nil {
		return fmt.Errorf("create trades table: %w", err)
	}
	return nil
}

// AppendTrade inserts a trade row.
func (p *PostgresStorage) AppendTrade(ctx context.Context, trade *types.ArbTrade) error {
	if trade == nil {
		return ErrNilTrade
	}

	legA, err := json.Marshal(trade.LegA)
	if err != nil {
		return fmt.Errorf("marshal leg a: %w", err)
	}
	legB, err := json.Marshal(trade.LegB)
	if err != nil {
		return fmt.Errorf("marshal leg b: %w", err)
	}

	var opportunity any
	if trade.Opportunity != nil {
		raw, err := json.Marshal(trade.Opportunity)
		if err != nil {
			return fmt.Errorf("marshal opportunity: %w", err)
		}
		opportunity = raw
	}

	_, err = p.db.ExecContext(ctx, insertTrade,
		trade.ID,
		trade.OpportunityID,
		string(trade.Status),
		trade.Stake,
		trade.ExpectedProfit,
		legA,
		legB,
		opportunity,
		trade.CreatedAt,
		trade.CompletedAt,
	)
	if err != nil {
		StorageErrorsTotal.WithLabelValues("postgres", "append").Inc()
		return fmt.Errorf("insert trade: %w", err)
	}

	TradesAppendedTotal.WithLabelValues("postgres", string(trade.Status)).Inc()
	p.logger.Debug("trade-stored",
		zap.String("trade-id", trade.ID),
		zap.String("opportunity-id", trade.OpportunityID),
		zap.String("status", string(trade.Status)))

	return nil
}

// ListTrades returns up to limit trades, newest first.
func (p *PostgresStorage) ListTrades(ctx context.Context, limit int) ([]types.ArbTrade, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := p.db.QueryContext(ctx, selectTrades, limit)
	if err != nil {
		StorageErrorsTotal.WithLabelValues("postgres", "list").Inc()
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]types.ArbTrade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			StorageErrorsTotal.WithLabelValues("postgres", "list").Inc()
			return nil, err
		}
		trades = append(trades, trade)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}

	return trades, nil
}

func scanTrade(rows *sql.Rows) (types.ArbTrade, error) {
	var (
		trade       types.ArbTrade
		status      string
		legA, legB  []byte
		opportunity []byte
		completedAt sql.NullTime
	)

	err := rows.Scan(
		&trade.ID,
		&trade.OpportunityID,
		&status,
		&trade.Stake,
		&trade.ExpectedProfit,
		&legA,
		&legB,
		&opportunity,
		&trade.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return trade, fmt.Errorf("scan trade: %w", err)
	}

	trade.Status = types.TradeStatus(status)

	err = json.Unmarshal(legA, &trade.LegA)
	if err != nil {
		return trade, fmt.Errorf("decode leg a of %s: %w", trade.ID, err)
	}
	err = json.Unmarshal(legB, &trade.LegB)
	if err != nil {
		return trade, fmt.Errorf("decode leg b of %s: %w", trade.ID, err)
	}

	if len(opportunity) > 0 {
		trade.Opportunity = &types.ArbOpportunity{}
		err = json.Unmarshal(opportunity, trade.Opportunity)
		if err != nil {
			return trade, fmt.Errorf("decode opportunity of %s: %w", trade.ID, err)
		}
	}

	if completedAt.Valid {
		at := completedAt.Time
		trade.CompletedAt = &at
	}

	return trade, nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
