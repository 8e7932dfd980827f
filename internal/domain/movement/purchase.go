package movement

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/documents/purchase"
	"stockledger/internal/domain/documents/purchasereturn"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/pkg/logger"
)

// PurchaseInput describes goods received from a supplier.
type PurchaseInput struct {
	SupplierID id.ID
	// Invoice is the supplier's invoice number. Empty mints one from the tenant sequence.
	Invoice string
	Items   []purchase.Line
	Payment *PaymentInput
}

// PaymentInput is one payment against a purchase.
type PaymentInput struct {
	Amount int64
	Method purchase.Method
	Note   string
}

// ApplyPurchase records a purchase: stock rises by each line's quantity and the
// item cost is replaced by the line's unit cost.
func (e *Engine) ApplyPurchase(ctx context.Context, tenantID id.ID, in PurchaseInput) (*purchase.Purchase, error) {
	p, err := purchase.New(tenantID, in.SupplierID, in.Invoice, recordedBy(ctx), in.Items, e.now())
	if err != nil {
		return nil, err
	}
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	err = e.run(ctx, "ApplyPurchase", tenantID, func(ctx context.Context, ts domain.TenantStore) error {
		if _, err := ts.Suppliers().GetByID(ctx, in.SupplierID); err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewValidation("supplier not found").
					WithField("supplierId", "unknown supplier").
					WithDetail("supplier_id", in.SupplierID)
			}
			return err
		}

		invIDs := make([]id.ID, len(p.Items))
		for i, it := range p.Items {
			invIDs[i] = it.InventoryID
		}
		items, err := lockItems(ctx, ts, invIDs, "items")
		if err != nil {
			return err
		}

		if p.Invoice == "" {
			if p.Invoice, err = e.mintInvoice(ctx, ts); err != nil {
				return err
			}
		} else if err := checkSupplierInvoice(ctx, ts, p.Invoice); err != nil {
			return err
		}

		var pay *purchase.Payment
		if in.Payment != nil {
			if pay, err = p.ApplyPayment(in.Payment.Amount, in.Payment.Method, in.Payment.Note, p.RecordedBy, e.now()); err != nil {
				return err
			}
		}

		if err := ts.Purchases().Create(ctx, p); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		if pay != nil {
			if err := ts.Purchases().AddPayment(ctx, pay); err != nil {
				return fmt.Errorf("add payment: %w", err)
			}
		}

		posting := ledger.NewPosting(tenantID, p.ID, e.now(), openingBalances(items))
		note := "purchase " + p.Invoice
		for _, it := range p.Items {
			m := ledger.Purchase{InventoryID: it.InventoryID, Quantity: it.Quantity, UnitCost: it.UnitCost}
			if err := post(posting, items, m, note); err != nil {
				return err
			}
		}
		return e.flush(ctx, ts, posting, items)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase recorded",
		"purchase_id", p.ID,
		"invoice", p.Invoice,
		"total", p.TotalAmount,
		"status", p.Status)
	return p, nil
}

// CancelPurchase compensates every PURCHASE record of the purchase with a
// CANCEL_PURCHASE record and soft-deletes it.
func (e *Engine) CancelPurchase(ctx context.Context, tenantID, purchaseID id.ID) (*purchase.Purchase, error) {
	var p *purchase.Purchase
	err := e.run(ctx, "CancelPurchase", tenantID, func(ctx context.Context, ts domain.TenantStore) error {
		var err error
		if p, err = ts.Purchases().GetForUpdate(ctx, purchaseID); err != nil {
			return err
		}
		if p.IsDeleted {
			return apperror.NewConflict("purchase is already canceled").WithDetail("purchase_id", p.ID)
		}
		open, err := ts.Returns().CountByStatus(ctx, p.ID, purchasereturn.StatusRequested, purchasereturn.StatusApproved)
		if err != nil {
			return fmt.Errorf("count open returns: %w", err)
		}
		if open > 0 {
			return apperror.NewConflict("purchase has open returns").
				WithDetail("purchase_id", p.ID).
				WithDetail("open_returns", open)
		}
		before := *p

		invIDs := make([]id.ID, len(p.Items))
		for i, it := range p.Items {
			invIDs[i] = it.InventoryID
		}
		items, err := lockItems(ctx, ts, invIDs, "items")
		if err != nil {
			return err
		}

		posting := ledger.NewPosting(tenantID, p.ID, e.now(), openingBalances(items))
		note := "cancel purchase " + p.Invoice
		for _, it := range p.Items {
			m, err := compensation(ctx, ts.Ledger(), p.ID, it.InventoryID)
			if err != nil {
				return err
			}
			if err := post(posting, items, m, note); err != nil {
				return err
			}
		}
		if err := e.flush(ctx, ts, posting, items); err != nil {
			return err
		}

		if err := p.MarkDeleted("purchase", e.now()); err != nil {
			return err
		}
		p.Touch(e.now())
		if err := ts.Purchases().Update(ctx, p); err != nil {
			return fmt.Errorf("update purchase: %w", err)
		}
		return e.audit(ctx, ts, "purchase", p.ID, audit.ActionCancel, before, p)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase canceled", "purchase_id", p.ID, "invoice", p.Invoice)
	return p, nil
}

// compensation builds the CANCEL_PURCHASE movement for one purchased item.
func compensation(ctx context.Context, repo ledger.Repository, purchaseID, invID id.ID) (ledger.CancelPurchase, error) {
	original, err := repo.Latest(ctx, ledger.Lookup{RefID: purchaseID, InventoryID: invID, Kind: ledger.KindPurchase})
	if err != nil {
		return ledger.CancelPurchase{}, fmt.Errorf("find purchase record: %w", err)
	}
	if original == nil {
		return ledger.CancelPurchase{}, apperror.NewConsistency("purchase has no ledger record").
			WithDetail("purchase_id", purchaseID).
			WithDetail("inventory_id", invID)
	}

	done, err := repo.Latest(ctx, ledger.Lookup{RefID: purchaseID, InventoryID: invID, Kind: ledger.KindCancelPurchase})
	if err != nil {
		return ledger.CancelPurchase{}, fmt.Errorf("find cancel record: %w", err)
	}
	if done != nil {
		return ledger.CancelPurchase{}, apperror.NewConflict("purchase is already canceled").
			WithDetail("purchase_id", purchaseID).
			WithDetail("inventory_id", invID)
	}

	// Cost goes back only if no later purchase replaced it.
	latest, err := repo.Latest(ctx, ledger.Lookup{InventoryID: invID, Kind: ledger.KindPurchase})
	if err != nil {
		return ledger.CancelPurchase{}, fmt.Errorf("find latest purchase record: %w", err)
	}
	restore := latest != nil && latest.ID == original.ID

	return ledger.CancelPurchase{Original: *original, RestoreCost: restore}, nil
}

// AddPayment records a payment and advances the purchase's payment status.
func (e *Engine) AddPayment(ctx context.Context, tenantID, purchaseID id.ID, in PaymentInput) (*purchase.Purchase, *purchase.Payment, error) {
	var (
		p   *purchase.Purchase
		pay *purchase.Payment
	)
	err := e.run(ctx, "AddPayment", tenantID, func(ctx context.Context, ts domain.TenantStore) error {
		var err error
		if p, err = ts.Purchases().GetForUpdate(ctx, purchaseID); err != nil {
			return err
		}
		if pay, err = p.ApplyPayment(in.Amount, in.Method, in.Note, recordedBy(ctx), e.now()); err != nil {
			return err
		}
		if err := ts.Purchases().Update(ctx, p); err != nil {
			return fmt.Errorf("update purchase: %w", err)
		}
		if err := ts.Purchases().AddPayment(ctx, pay); err != nil {
			return fmt.Errorf("add payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "purchase payment recorded",
		"purchase_id", p.ID,
		"amount", pay.Amount,
		"paid", p.PaidAmount,
		"status", p.Status)
	return p, pay, nil
}
