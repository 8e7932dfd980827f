package movement

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/documents/purchasereturn"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/pkg/logger"
)

// ReturnInput describes goods to send back against a purchase.
type ReturnInput struct {
	PurchaseID id.ID
	Reason     string
	Items      []purchasereturn.Line
}

// RequestReturn opens a return. Stock is not touched until it is approved.
// Each line is bounded by the purchased quantity less what other non-rejected
// returns of the purchase already claim.
func (e *Engine) RequestReturn(ctx context.Context, tenantID id.ID, in ReturnInput) (*purchasereturn.Return, error) {
	if err := purchasereturn.ValidateLines(in.Items); err != nil {
		return nil, err
	}

	var r *purchasereturn.Return
	err := e.run(ctx, "RequestReturn", tenantID, func(ctx context.Context, ts domain.TenantStore) error {
		// The purchase row lock serializes concurrent requests against the same purchase.
		p, err := ts.Purchases().GetForUpdate(ctx, in.PurchaseID)
		if err != nil {
			return err
		}
		if p.IsDeleted {
			return apperror.NewConflict("purchase is canceled").WithDetail("purchase_id", p.ID)
		}

		pending, err := ts.Returns().CountByStatus(ctx, p.ID, purchasereturn.StatusRequested)
		if err != nil {
			return fmt.Errorf("count requested returns: %w", err)
		}
		if pending > 0 {
			return apperror.NewConflict("a return is already requested for this purchase").
				WithDetail("purchase_id", p.ID)
		}

		returned, err := ts.Returns().ReturnedQuantities(ctx, p.ID, purchasereturn.CountedStatuses()...)
		if err != nil {
			return fmt.Errorf("sum returned quantities: %w", err)
		}

		r = purchasereturn.New(tenantID, p.ID, in.Reason, recordedBy(ctx), e.now())
		for i, l := range in.Items {
			pi, ok := p.Item(l.PurchaseItemID)
			if !ok {
				return apperror.NewValidation("purchase item not found").
					WithField(fmt.Sprintf("items[%d].purchaseItemId", i), "not part of this purchase").
					WithDetail("purchase_item_id", l.PurchaseItemID)
			}
			limit := pi.Quantity - returned[pi.ID]
			if l.Quantity > limit {
				return purchasereturn.MaxReturnableError(pi.ID, limit)
			}
			if err := r.AddItem(pi.ID, pi.InventoryID, l.Quantity, pi.UnitCost); err != nil {
				return err
			}
		}

		if err := ts.Returns().Create(ctx, r); err != nil {
			return fmt.Errorf("create return: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase return requested", "return_id", r.ID, "purchase_id", r.PurchaseID, "total", r.TotalAmount)
	return r, nil
}

// ApproveReturn ships the goods back: one RETURN record per inventory item,
// with lines of the same item summed first.
func (e *Engine) ApproveReturn(ctx context.Context, tenantID, returnID id.ID) (*purchasereturn.Return, error) {
	return e.decide(ctx, "ApproveReturn", tenantID, returnID, purchasereturn.StatusApproved, audit.ActionApprove,
		func(q purchasereturn.Quantity) ledger.Movement {
			return ledger.Return{InventoryID: q.InventoryID, Quantity: q.Quantity}
		})
}

// RejectReturn closes a requested return without touching stock.
func (e *Engine) RejectReturn(ctx context.Context, tenantID, returnID id.ID) (*purchasereturn.Return, error) {
	return e.decide(ctx, "RejectReturn", tenantID, returnID, purchasereturn.StatusRejected, audit.ActionReject, nil)
}

// CompleteReturn re-admits the goods of an approved return with one ADJUST
// record per inventory item.
func (e *Engine) CompleteReturn(ctx context.Context, tenantID, returnID id.ID) (*purchasereturn.Return, error) {
	return e.decide(ctx, "CompleteReturn", tenantID, returnID, purchasereturn.StatusDone, audit.ActionComplete,
		func(q purchasereturn.Quantity) ledger.Movement {
			return ledger.Adjust{InventoryID: q.InventoryID, Quantity: q.Quantity}
		})
}

// decide moves a return to next. When movement is set, each aggregated
// inventory quantity is posted through it.
func (e *Engine) decide(
	ctx context.Context,
	op string,
	tenantID, returnID id.ID,
	next purchasereturn.Status,
	action audit.Action,
	movement func(purchasereturn.Quantity) ledger.Movement,
) (*purchasereturn.Return, error) {
	var r *purchasereturn.Return
	err := e.run(ctx, op, tenantID, func(ctx context.Context, ts domain.TenantStore) error {
		var err error
		if r, err = ts.Returns().GetForUpdate(ctx, returnID); err != nil {
			return err
		}
		if !purchasereturn.CanTransition(r.Status, next) {
			return apperror.NewConflict(fmt.Sprintf("return cannot move from %s to %s", r.Status, next)).
				WithDetail("status", r.Status)
		}
		before := *r

		if movement != nil {
			totals := r.ByInventory()
			ids := make([]id.ID, len(totals))
			for i, q := range totals {
				ids[i] = q.InventoryID
			}
			items, err := lockItems(ctx, ts, ids, "items")
			if err != nil {
				return err
			}
			posting := ledger.NewPosting(tenantID, r.ID, e.now(), openingBalances(items))
			note := fmt.Sprintf("return %s %s", r.ID, next)
			for _, q := range totals {
				if err := post(posting, items, movement(q), note); err != nil {
					return err
				}
			}
			if err := e.flush(ctx, ts, posting, items); err != nil {
				return err
			}
		}

		if err := r.Transition(next, recordedBy(ctx), e.now()); err != nil {
			return err
		}
		if err := ts.Returns().Update(ctx, r); err != nil {
			return fmt.Errorf("update return: %w", err)
		}
		return e.audit(ctx, ts, "purchase_return", r.ID, action, before, r)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase return decided", "return_id", r.ID, "action", action, "status", r.Status)
	return r, nil
}
