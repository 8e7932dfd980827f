package numerator

import (
	"context"

	"stockledger/internal/core/id"
)

// MockCounter is a test implementation of Counter.
type MockCounter struct {
	IncrementFunc func(ctx context.Context, tenantID id.ID, year int) (int64, error)
}

// Increment implements Counter.
func (m *MockCounter) Increment(ctx context.Context, tenantID id.ID, year int) (int64, error) {
	if m.IncrementFunc != nil {
		return m.IncrementFunc(ctx, tenantID, year)
	}
	return 1, nil
}

var _ Counter = (*MockCounter)(nil)
