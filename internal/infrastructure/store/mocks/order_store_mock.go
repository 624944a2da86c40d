package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/example/order-core/internal/domain/order"
)

// MockOrderStore is a mock implementation of OrderStore for testing
type MockOrderStore struct {
	mu     sync.RWMutex
	orders map[string]order.Order

	// For tracking calls in tests
	SaveCalls         []order.Order
	UpdateStatusCalls []UpdateStatusCall
	DiscardCalls      []string
	SaveErr           error
	FindErr           error
	UpdateErr         error
	DiscardErr        error
}

// UpdateStatusCall records parameters passed to UpdateStatus
type UpdateStatusCall struct {
	ID     string
	Status order.Status
}

// NewMockOrderStore creates a new MockOrderStore
func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{
		orders:    make(map[string]order.Order),
		SaveCalls: make([]order.Order, 0),
	}
}

// Save stores an order in memory
func (m *MockOrderStore) Save(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveCalls = append(m.SaveCalls, *o)

	if m.SaveErr != nil {
		return m.SaveErr
	}

	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	m.orders[o.ID] = *o
	return nil
}

// FindByID returns an order by id
func (m *MockOrderStore) FindByID(ctx context.Context, id string) (*order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FindErr != nil {
		return nil, m.FindErr
	}

	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return &o, nil
}

// FindByOrderNumber returns an order by its business number
func (m *MockOrderStore) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FindErr != nil {
		return nil, m.FindErr
	}

	for _, o := range m.orders {
		if o.OrderNumber == orderNumber {
			o := o
			return &o, nil
		}
	}
	return nil, order.ErrOrderNotFound
}

// UpdateStatus updates the status of a stored order
func (m *MockOrderStore) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateStatusCalls = append(m.UpdateStatusCalls, UpdateStatusCall{ID: id, Status: status})

	if m.UpdateErr != nil {
		return m.UpdateErr
	}

	o, ok := m.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	m.orders[id] = o
	return nil
}

// Discard removes an order row entirely
func (m *MockOrderStore) Discard(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DiscardCalls = append(m.DiscardCalls, id)

	if m.DiscardErr != nil {
		return m.DiscardErr
	}

	if _, ok := m.orders[id]; !ok {
		return order.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

// Count returns the number of persisted orders
func (m *MockOrderStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}

// Reset clears all orders and recorded calls
func (m *MockOrderStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = make(map[string]order.Order)
	m.SaveCalls = make([]order.Order, 0)
	m.UpdateStatusCalls = nil
	m.DiscardCalls = nil
	m.SaveErr = nil
	m.FindErr = nil
	m.UpdateErr = nil
	m.DiscardErr = nil
}
