package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/mselser95/crossvenue-arb/pkg/types"
)

// DefaultListLimit is used when ListTrades receives a non-positive limit.
const DefaultListLimit = 50

// ErrNilTrade is returned when AppendTrade is called without a trade.
var ErrNilTrade = errors.New("nil trade")

// Storage is the append-only trade log. Trades are never updated or removed.
type Storage interface {
	// AppendTrade records a completed trade.
	AppendTrade(ctx context.Context, trade *types.ArbTrade) error

	// ListTrades returns up to limit trades, newest first.
	ListTrades(ctx context.Context, limit int) ([]types.ArbTrade, error)

	// Close closes the storage connection.
	Close() error
}

// MemoryStorage keeps the trade log in process memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	trades []types.ArbTrade
}

// NewMemoryStorage creates an empty in-memory trade log.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// AppendTrade stores a copy of trade.
func (m *MemoryStorage) AppendTrade(_ context.Context, trade *types.ArbTrade) error {
	if trade == nil {
		return ErrNilTrade
	}

	m.add(trade)
	TradesAppendedTotal.WithLabelValues("memory", string(trade.Status)).Inc()
	return nil
}

func (m *MemoryStorage) add(trade *types.ArbTrade) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trades = append(m.trades, *trade)
}

// ListTrades returns up to limit trades, newest first.
func (m *MemoryStorage) ListTrades(_ context.Context, limit int) ([]types.ArbTrade, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := min(limit, len(m.trades))
	out := make([]types.ArbTrade, 0, n)
	for i := len(m.trades) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.trades[i])
	}
	return out, nil
}

// Close is a no-op for memory storage.
func (m *MemoryStorage) Close() error {
	return nil
}
