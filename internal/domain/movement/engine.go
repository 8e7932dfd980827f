// Package movement is the stock-ledger consistency engine. Each business event
// (purchase, sale, cancellation, edit, return decision) runs as one transaction
// that locks the affected inventory rows, appends ledger records and writes the
// resulting stock position back exactly once per item.
package movement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/catalogs/inventory"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/pkg/logger"
)

var tracer = otel.Tracer("stockledger/movement")

// Engine executes stock movements.
type Engine struct {
	store     domain.Store
	txManager tx.Manager
	sequencer *numerator.Sequencer
	now       func() time.Time
}

// NewEngine creates an engine. Invoice numbers come from the store's counter.
func NewEngine(store domain.Store, txManager tx.Manager) *Engine {
	return &Engine{
		store:     store,
		txManager: txManager,
		sequencer: numerator.NewSequencer(store.InvoiceCounter()),
		now:       time.Now,
	}
}

// run wraps one engine operation in a span and a transaction.
func (e *Engine) run(ctx context.Context, op string, tenantID id.ID, fn func(ctx context.Context, ts domain.TenantStore) error) error {
	ctx, span := tracer.Start(ctx, "movement."+op,
		trace.WithAttributes(attribute.String("tenant.id", tenantID.String())))
	defer span.End()

	ts := e.store.Tenant(tenantID)
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return fn(ctx, ts)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if apperror.IsConsistency(err) {
			logger.Alert(ctx, "ledger_consistency", "ledger inconsistency detected",
				"operation", op, "error", err)
		}
	}
	return err
}

// lockItems reads and locks ids, failing with a validation error naming the
// first id that does not belong to the tenant.
func lockItems(ctx context.Context, ts domain.TenantStore, ids []id.ID, field string) (map[id.ID]*inventory.Item, error) {
	items, err := ts.Inventory().GetForUpdate(ctx, id.SortedUnique(ids))
	if err != nil {
		return nil, fmt.Errorf("lock inventory: %w", err)
	}
	for _, invID := range ids {
		if _, ok := items[invID]; !ok {
			return nil, apperror.NewValidation("inventory item not found").
				WithField(field, "unknown inventory "+invID.String()).
				WithDetail("inventory_id", invID)
		}
	}
	return items, nil
}

func openingBalances(items map[id.ID]*inventory.Item) map[id.ID]ledger.Balance {
	out := make(map[id.ID]ledger.Balance, len(items))
	for k, it := range items {
		out[k] = it.Balance()
	}
	return out
}

// post applies m to the posting, turning a shortage into INSUFFICIENT_STOCK.
func post(p *ledger.Posting, items map[id.ID]*inventory.Item, m ledger.Movement, note string) error {
	_, err := p.Post(m, note)
	var short *ledger.Shortage
	if errors.As(err, &short) {
		name := short.InventoryID.String()
		if it, ok := items[short.InventoryID]; ok {
			name = it.Name
		}
		return apperror.NewInsufficientStock(short.InventoryID.String(), name, short.Requested, short.Available)
	}
	return err
}

// flush appends the posting's records and writes each touched item once.
func (e *Engine) flush(ctx context.Context, ts domain.TenantStore, p *ledger.Posting, items map[id.ID]*inventory.Item) error {
	if err := ts.Ledger().Append(ctx, p.Records()); err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	changes := p.Changes()
	if err := ts.Inventory().ApplyBalances(ctx, changes); err != nil {
		return fmt.Errorf("apply balances: %w", err)
	}
	now := e.now()
	for _, c := range changes {
		if it, ok := items[c.InventoryID]; ok {
			it.Apply(c.Balance, now)
		}
	}
	return nil
}

func (e *Engine) audit(ctx context.Context, ts domain.TenantStore, entityType string, entityID id.ID, action audit.Action, before, after any) error {
	entry, err := audit.NewEntry(ctx, ts.TenantID(), entityType, entityID, action, before, after, e.now())
	if err != nil {
		return err
	}
	if err := ts.Audit().Record(ctx, entry); err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

func (e *Engine) mintInvoice(ctx context.Context, ts domain.TenantStore) (string, error) {
	profile, err := ts.Profile(ctx)
	if err != nil {
		return "", err
	}
	return e.sequencer.NextInvoice(ctx, ts.TenantID(), profile.InvoicePrefix, e.now())
}

// checkSupplierInvoice keeps supplier invoices out of the tenant's minted
// "<prefix>-<year>-<n>" space. A taken number there would block every later mint.
func checkSupplierInvoice(ctx context.Context, ts domain.TenantStore, invoice string) error {
	prefix, _, _, err := numerator.Parse(invoice)
	if err != nil {
		return nil
	}
	profile, err := ts.Profile(ctx)
	if err != nil {
		return err
	}
	if !strings.EqualFold(prefix, profile.InvoicePrefix) {
		return nil
	}
	return apperror.NewValidation("invoice collides with the store's own numbering").
		WithField("invoice", "must not use prefix "+profile.InvoicePrefix).
		WithDetail("invoice", invoice)
}

func recordedBy(ctx context.Context) string {
	return appctx.GetUserID(ctx)
}
