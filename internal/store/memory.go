package store

import (
	"context"
	"sort"
	"sync"

	"github.com/example/courier-orders/internal/models"
)

// Memory is the in-process Repository twin, used when no Postgres DSN is
// configured and throughout the tests.
type Memory struct {
	mu       sync.RWMutex
	orders   map[string]models.Order
	services map[string]models.Service
}

func NewMemory(services ...models.Service) *Memory {
	m := &Memory{orders: make(map[string]models.Order), services: make(map[string]models.Service)}
	for _, s := range services {
		m.services[s.ID] = s
	}
	return m
}

func (m *Memory) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) Insert(ctx context.Context, o models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	return nil
}

func (m *Memory) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	m.orders[orderID] = o
	return nil
}

func (m *Memory) ServiceByID(ctx context.Context, id string) (models.Service, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.services[id]
	return s, ok, nil
}

func (m *Memory) ServiceByName(ctx context.Context, name string) (models.Service, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matches []models.Service
	for _, s := range m.services {
		if s.Name == name {
			matches = append(matches, s)
		}
	}
	if len(matches) != 1 {
		return models.Service{}, false, nil
	}
	return matches[0], true, nil
}
