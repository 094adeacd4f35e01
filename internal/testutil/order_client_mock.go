package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mselser95/crossvenue-arb/pkg/types"
)

// MockOrderPlacer simulates one venue's order placement for testing.
type MockOrderPlacer struct {
	mu             sync.Mutex
	venue          types.Platform
	placedOrders   []MockPlacedOrder
	failure        error
	delay          time.Duration
	orderIDCounter int
}

// MockPlacedOrder records details of a placed order for verification.
type MockPlacedOrder struct {
	MarketID string
	Side     types.Side
	Price    float64
	Amount   int64
	Creds    types.Credentials
	OrderID  string
}

// NewMockOrderPlacer creates a mock order placer for a venue.
func NewMockOrderPlacer(venue types.Platform) *MockOrderPlacer {
	return &MockOrderPlacer{
		venue:          venue,
		placedOrders:   make([]MockPlacedOrder, 0),
		orderIDCounter: 1,
	}
}

// PlaceOrder records the order and returns a sequential id, or the
// configured failure.
func (m *MockOrderPlacer) PlaceOrder(ctx context.Context, creds types.Credentials, marketID string, side types.Side, price float64, amount int64) (string, error) {
	m.mu.Lock()
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failure != nil {
		return "", m.failure
	}

	orderID := fmt.Sprintf("%s-order-%d", m.venue, m.orderIDCounter)
	m.orderIDCounter++

	m.placedOrders = append(m.placedOrders, MockPlacedOrder{
		MarketID: marketID,
		Side:     side,
		Price:    price,
		Amount:   amount,
		Creds:    creds,
		OrderID:  orderID,
	})

	return orderID, nil
}

// SetFailure makes subsequent orders fail with err. Nil restores success.
func (m *MockOrderPlacer) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}

// SetDelay makes each order wait before answering.
func (m *MockOrderPlacer) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// GetPlacedOrders returns a copy of all placed orders.
func (m *MockOrderPlacer) GetPlacedOrders() []MockPlacedOrder {
	m.mu.Lock()
	defer m.mu.Unlock()

	orders := make([]MockPlacedOrder, len(m.placedOrders))
	copy(orders, m.placedOrders)
	return orders
}
