// Package documents provides read access to purchases, sales and returns.
// Every mutation goes through the movement engine.
package documents

import (
	"context"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/documents/purchase"
	"stockledger/internal/domain/documents/purchasereturn"
	"stockledger/internal/domain/documents/sale"
	"stockledger/internal/domain/filter"
	"stockledger/internal/domain/registers/ledger"
)

// Service answers document queries for one tenant at a time.
type Service struct {
	store domain.Store
	now   func() time.Time
}

// NewService creates a query service.
func NewService(store domain.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// ListQuery is the raw listing input. Zero dates mean today.
type ListQuery struct {
	State string
	From  time.Time
	To    time.Time
	Page  filter.Page
}

func (s *Service) documents(q ListQuery) filter.Documents {
	st, ok := filter.ParseState(q.State)
	if !ok {
		st = filter.StateActive
	}
	return filter.Documents{
		State:  st,
		Period: filter.Days(q.From, q.To, s.now()),
		Page:   q.Page.Normalize(),
	}
}

// PurchaseDetail is a purchase with its payment history.
type PurchaseDetail struct {
	*purchase.Purchase
	Payments []purchase.Payment `json:"payments"`
}

// GetPurchase returns a purchase with items and payments.
func (s *Service) GetPurchase(ctx context.Context, tenantID, purchaseID id.ID) (*PurchaseDetail, error) {
	repo := s.store.Tenant(tenantID).Purchases()
	p, err := repo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	pays, err := repo.Payments(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if pays == nil {
		pays = []purchase.Payment{}
	}
	return &PurchaseDetail{Purchase: p, Payments: pays}, nil
}

// Payments returns the payment history of a purchase.
func (s *Service) Payments(ctx context.Context, tenantID, purchaseID id.ID) ([]purchase.Payment, error) {
	return s.store.Tenant(tenantID).Purchases().Payments(ctx, purchaseID)
}

// ListPurchases returns a page of purchases.
func (s *Service) ListPurchases(ctx context.Context, tenantID id.ID, q ListQuery) (filter.ListResult[*purchase.Purchase], error) {
	return s.store.Tenant(tenantID).Purchases().List(ctx, s.documents(q))
}

// GetSale returns a sale with items.
func (s *Service) GetSale(ctx context.Context, tenantID, saleID id.ID) (*sale.Sale, error) {
	return s.store.Tenant(tenantID).Sales().GetByID(ctx, saleID)
}

// ListSales returns a page of sales.
func (s *Service) ListSales(ctx context.Context, tenantID id.ID, q ListQuery) (filter.ListResult[*sale.Sale], error) {
	return s.store.Tenant(tenantID).Sales().List(ctx, s.documents(q))
}

// GetReturn returns a purchase return with items.
func (s *Service) GetReturn(ctx context.Context, tenantID, returnID id.ID) (*purchasereturn.Return, error) {
	return s.store.Tenant(tenantID).Returns().GetByID(ctx, returnID)
}

// ReturnQuery narrows return listings.
type ReturnQuery struct {
	PurchaseID *id.ID
	Status     purchasereturn.Status
	From       time.Time
	To         time.Time
	Page       filter.Page
}

// ListReturns returns a page of purchase returns.
func (s *Service) ListReturns(ctx context.Context, tenantID id.ID, q ReturnQuery) (filter.ListResult[*purchasereturn.Return], error) {
	period := filter.Days(q.From, q.To, s.now())
	if q.PurchaseID != nil && q.From.IsZero() && q.To.IsZero() {
		// Returns of one purchase are listed whole.
		period = filter.Period{}
	}
	return s.store.Tenant(tenantID).Returns().List(ctx, purchasereturn.ListFilter{
		PurchaseID: q.PurchaseID,
		Status:     q.Status,
		Period:     period,
		Page:       q.Page.Normalize(),
	})
}

// Ledger returns a page of ledger records, newest first.
func (s *Service) Ledger(ctx context.Context, tenantID id.ID, f ledger.Filter) (filter.ListResult[ledger.Record], error) {
	f.Page = f.Page.Normalize()
	return s.store.Tenant(tenantID).Ledger().List(ctx, f)
}

// History returns the audit trail of a document.
func (s *Service) History(ctx context.Context, tenantID id.ID, entityType string, entityID id.ID) ([]audit.Entry, error) {
	return s.store.Tenant(tenantID).Audit().History(ctx, entityType, entityID, filter.MaxLimit)
}
