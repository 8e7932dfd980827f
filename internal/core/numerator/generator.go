package numerator

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/id"
)

// Counter atomically increments (or creates at 1) the (tenant, year) counter and
// returns the new value. It must run inside the caller's transaction so a rolled
// back document releases nothing twice: gaps are possible, duplicates are not.
type Counter interface {
	Increment(ctx context.Context, tenantID id.ID, year int) (int64, error)
}

// Sequencer mints invoice numbers.
type Sequencer struct {
	counter Counter
	now     func() time.Time
}

// NewSequencer creates a sequencer over counter.
func NewSequencer(counter Counter) *Sequencer {
	return &Sequencer{counter: counter, now: time.Now}
}

// NextInvoice returns the next invoice for tenantID using the tenant's prefix.
func (s *Sequencer) NextInvoice(ctx context.Context, tenantID id.ID, prefix string, at time.Time) (string, error) {
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()
	num, err := s.counter.Increment(ctx, tenantID, at.Year())
	if err != nil {
		return "", fmt.Errorf("increment invoice counter: %w", err)
	}
	return DefaultConfig(prefix).Format(at, num), nil
}
