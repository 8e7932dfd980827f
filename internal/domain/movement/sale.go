package movement

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/catalogs/inventory"
	"stockledger/internal/domain/documents/purchase"
	"stockledger/internal/domain/documents/sale"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/pkg/logger"
)

// SaleInput describes a sale.
type SaleInput struct {
	Items  []sale.Line
	Method purchase.Method
}

func lineIDs(lines []sale.Line) []id.ID {
	out := make([]id.ID, len(lines))
	for i, l := range lines {
		out[i] = l.InventoryID
	}
	return out
}

func prices(items map[id.ID]*inventory.Item) map[id.ID]int64 {
	out := make(map[id.ID]int64, len(items))
	for k, it := range items {
		out[k] = it.Price
	}
	return out
}

// checkStock fails on the first line, in request order, that asks for more than is on hand.
func checkStock(lines []sale.Line, items map[id.ID]*inventory.Item) error {
	for _, l := range lines {
		it := items[l.InventoryID]
		if it.Stock < l.Quantity {
			return apperror.NewInsufficientStock(it.ID.String(), it.Name, l.Quantity, it.Stock)
		}
	}
	return nil
}

// ApplySale records a sale: every line is checked against one locked read of
// stock, then stock drops and sold rises by each quantity.
func (e *Engine) ApplySale(ctx context.Context, tenantID id.ID, in SaleInput) (*sale.Sale, error) {
	if err := sale.ValidateLines(in.Items); err != nil {
		return nil, err
	}
	if _, ok := purchase.ParseMethod(string(in.Method)); !ok {
		return nil, apperror.NewValidation("invalid sale").WithField("method", "unknown payment method")
	}

	var s *sale.Sale
	err := e.run(ctx, "ApplySale", tenantID, func(ctx context.Context, ts domain.TenantStore) error {
		items, err := lockItems(ctx, ts, lineIDs(in.Items), "items")
		if err != nil {
			return err
		}
		if err := checkStock(in.Items, items); err != nil {
			return err
		}

		invoice, err := e.mintInvoice(ctx, ts)
		if err != nil {
			return err
		}
		s = sale.New(tenantID, invoice, recordedBy(ctx), in.Method, e.now())
		if err := s.SetItems(in.Items, prices(items)); err != nil {
			return err
		}
		if err := ts.Sales().Create(ctx, s); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		posting := ledger.NewPosting(tenantID, s.ID, e.now(), openingBalances(items))
		note := "sale " + s.Invoice
		for _, it := range s.Items {
			if err := post(posting, items, ledger.Sale{InventoryID: it.InventoryID, Quantity: it.Quantity}, note); err != nil {
				return err
			}
		}
		return e.flush(ctx, ts, posting, items)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale recorded", "sale_id", s.ID, "invoice", s.Invoice, "total", s.TotalAmount)
	return s, nil
}

// CancelSale returns the sold units to stock and soft-deletes the sale.
func (e *Engine) CancelSale(ctx context.Context, tenantID, saleID id.ID) (*sale.Sale, error) {
	var s *sale.Sale
	err := e.run(ctx, "CancelSale", tenantID, func(ctx context.Context, ts domain.TenantStore) error {
		var err error
		if s, err = ts.Sales().GetForUpdate(ctx, saleID); err != nil {
			return err
		}
		if s.IsDeleted {
			return apperror.NewConflict("sale is already canceled").WithDetail("sale_id", s.ID)
		}
		before := *s

		items, err := lockItems(ctx, ts, s.InventoryIDs(), "items")
		if err != nil {
			return err
		}
		posting := ledger.NewPosting(tenantID, s.ID, e.now(), openingBalances(items))
		note := "cancel sale " + s.Invoice
		for _, it := range s.Items {
			if err := post(posting, items, ledger.CancelSale{InventoryID: it.InventoryID, Quantity: it.Quantity}, note); err != nil {
				return err
			}
		}
		if err := e.flush(ctx, ts, posting, items); err != nil {
			return err
		}

		if err := s.MarkDeleted("sale", e.now()); err != nil {
			return err
		}
		s.Touch(e.now())
		if err := ts.Sales().Update(ctx, s); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}
		return e.audit(ctx, ts, "sale", s.ID, audit.ActionCancel, before, s)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale canceled", "sale_id", s.ID, "invoice", s.Invoice)
	return s, nil
}

// EditSale replaces the lines of a sale. The original lines are restored to
// stock first, so the new lines are checked against the post-restore position.
// The invoice number is kept.
func (e *Engine) EditSale(ctx context.Context, tenantID, saleID id.ID, lines []sale.Line) (*sale.Sale, error) {
	if err := sale.ValidateLines(lines); err != nil {
		return nil, err
	}

	var s *sale.Sale
	err := e.run(ctx, "EditSale", tenantID, func(ctx context.Context, ts domain.TenantStore) error {
		var err error
		if s, err = ts.Sales().GetForUpdate(ctx, saleID); err != nil {
			return err
		}
		if s.IsDeleted {
			return apperror.NewConflict("sale is canceled").WithDetail("sale_id", s.ID)
		}
		before := *s

		ids := append(s.InventoryIDs(), lineIDs(lines)...)
		items, err := lockItems(ctx, ts, ids, "items")
		if err != nil {
			return err
		}

		posting := ledger.NewPosting(tenantID, s.ID, e.now(), openingBalances(items))
		note := "edit sale " + s.Invoice
		for _, it := range s.Items {
			if err := post(posting, items, ledger.EditSaleRestore{InventoryID: it.InventoryID, Quantity: it.Quantity}, note); err != nil {
				return err
			}
		}
		for _, l := range lines {
			if err := post(posting, items, ledger.EditSaleApply{InventoryID: l.InventoryID, Quantity: l.Quantity}, note); err != nil {
				return err
			}
		}

		if err := s.SetItems(lines, prices(items)); err != nil {
			return err
		}
		s.MarkEdited(recordedBy(ctx), e.now())
		s.Touch(e.now())
		if err := ts.Sales().ReplaceItems(ctx, s); err != nil {
			return fmt.Errorf("replace sale items: %w", err)
		}
		if err := ts.Sales().Update(ctx, s); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}
		if err := e.flush(ctx, ts, posting, items); err != nil {
			return err
		}
		return e.audit(ctx, ts, "sale", s.ID, audit.ActionEdit, before, s)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale edited", "sale_id", s.ID, "invoice", s.Invoice, "total", s.TotalAmount)
	return s, nil
}
