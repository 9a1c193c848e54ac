package booking

import (
	"context"
	"sync"

	"operation-list/internal/models"
)

// MockStore is a Store with overridable behaviour. Without overrides it keeps
// rows in memory.
type MockStore struct {
	mu   sync.Mutex
	rows []*models.Booking

	ListFunc    func(ctx context.Context) ([]*models.Booking, error)
	AppendFunc  func(ctx context.Context, b *models.Booking) error
	ReplaceFunc func(ctx context.Context, rows []*models.Booking) error
}

func (m *MockStore) List(ctx context.Context) ([]*models.Booking, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Booking, len(m.rows))
	for i, b := range m.rows {
		c := *b
		out[i] = &c
	}
	return out, nil
}

func (m *MockStore) Append(ctx context.Context, b *models.Booking) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, b)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *b
	m.rows = append(m.rows, &c)
	return nil
}

func (m *MockStore) Replace(ctx context.Context, rows []*models.Booking) error {
	if m.ReplaceFunc != nil {
		return m.ReplaceFunc(ctx, rows)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = nil
	for _, b := range rows {
		c := *b
		m.rows = append(m.rows, &c)
	}
	return nil
}

func (m *MockStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type MockMirror struct {
	PushFunc func(ctx context.Context, rows []*models.Booking, message string) error
}

func (m *MockMirror) Push(ctx context.Context, rows []*models.Booking, message string) error {
	if m.PushFunc != nil {
		return m.PushFunc(ctx, rows, message)
	}
	return nil
}
