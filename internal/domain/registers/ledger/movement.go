package ledger

import (
	"fmt"

	"stockledger/internal/core/id"
)

// Movement is one requested change to an inventory item. The set of
// implementations is closed: each has an Accept that dispatches to the
// matching Visitor method, so adding a kind means adding a Visitor method and
// every visitor stops compiling until it handles the new kind.
type Movement interface {
	Kind() Kind
	Inventory() id.ID
	Accept(v Visitor) error
	movement()
}

// Visitor handles every movement kind.
type Visitor interface {
	VisitPurchase(Purchase) error
	VisitSale(Sale) error
	VisitCancelSale(CancelSale) error
	VisitCancelPurchase(CancelPurchase) error
	VisitReturn(Return) error
	VisitAdjust(Adjust) error
	VisitEditSaleRestore(EditSaleRestore) error
	VisitEditSaleApply(EditSaleApply) error
}

// Purchase receives Quantity units at UnitCost. The cost basis is replaced.
type Purchase struct {
	InventoryID id.ID
	Quantity    int64
	UnitCost    int64
}

// Sale issues Quantity units to a customer.
type Sale struct {
	InventoryID id.ID
	Quantity    int64
}

// CancelSale puts back the units of a canceled sale.
type CancelSale struct {
	InventoryID id.ID
	Quantity    int64
}

// CancelPurchase compensates Original, a PURCHASE record. When RestoreCost is
// set the cost basis goes back to Original.CostBefore; otherwise a later
// purchase has already replaced it and it is left alone.
type CancelPurchase struct {
	Original    Record
	RestoreCost bool
}

// Return sends Quantity units back to the supplier (return approved).
type Return struct {
	InventoryID id.ID
	Quantity    int64
}

// Adjust re-admits Quantity units when a return is completed.
type Adjust struct {
	InventoryID id.ID
	Quantity    int64
}

// EditSaleRestore undoes one original line of an edited sale.
type EditSaleRestore struct {
	InventoryID id.ID
	Quantity    int64
}

// EditSaleApply issues one new line of an edited sale.
type EditSaleApply struct {
	InventoryID id.ID
	Quantity    int64
}

func (Purchase) Kind() Kind        { return KindPurchase }
func (Sale) Kind() Kind            { return KindSale }
func (CancelSale) Kind() Kind      { return KindCancelSale }
func (CancelPurchase) Kind() Kind  { return KindCancelPurchase }
func (Return) Kind() Kind          { return KindReturn }
func (Adjust) Kind() Kind          { return KindAdjust }
func (EditSaleRestore) Kind() Kind { return KindEditSaleRestore }
func (EditSaleApply) Kind() Kind   { return KindEditSaleApply }

func (m Purchase) Inventory() id.ID        { return m.InventoryID }
func (m Sale) Inventory() id.ID            { return m.InventoryID }
func (m CancelSale) Inventory() id.ID      { return m.InventoryID }
func (m CancelPurchase) Inventory() id.ID  { return m.Original.InventoryID }
func (m Return) Inventory() id.ID          { return m.InventoryID }
func (m Adjust) Inventory() id.ID          { return m.InventoryID }
func (m EditSaleRestore) Inventory() id.ID { return m.InventoryID }
func (m EditSaleApply) Inventory() id.ID   { return m.InventoryID }

func (m Purchase) Accept(v Visitor) error        { return v.VisitPurchase(m) }
func (m Sale) Accept(v Visitor) error            { return v.VisitSale(m) }
func (m CancelSale) Accept(v Visitor) error      { return v.VisitCancelSale(m) }
func (m CancelPurchase) Accept(v Visitor) error  { return v.VisitCancelPurchase(m) }
func (m Return) Accept(v Visitor) error          { return v.VisitReturn(m) }
func (m Adjust) Accept(v Visitor) error          { return v.VisitAdjust(m) }
func (m EditSaleRestore) Accept(v Visitor) error { return v.VisitEditSaleRestore(m) }
func (m EditSaleApply) Accept(v Visitor) error   { return v.VisitEditSaleApply(m) }

func (Purchase) movement()        {}
func (Sale) movement()            {}
func (CancelSale) movement()      {}
func (CancelPurchase) movement()  {}
func (Return) movement()          {}
func (Adjust) movement()          {}
func (EditSaleRestore) movement() {}
func (EditSaleApply) movement()   {}

// step computes the next balance for one movement.
type step struct {
	before Balance
	after  Balance
	delta  int64
}

// Shortage is returned when a movement would take stock below zero.
type Shortage struct {
	InventoryID id.ID
	Requested   int64
	Available   int64
}

func (e *Shortage) Error() string {
	return fmt.Sprintf("inventory %s: requested %d, available %d", e.InventoryID, e.Requested, e.Available)
}

func (s *step) in(inv id.ID, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("movement quantity must be positive, got %d", qty)
	}
	s.delta = qty
	s.after.Stock = s.before.Stock + qty
	return nil
}

func (s *step) out(inv id.ID, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("movement quantity must be positive, got %d", qty)
	}
	if s.before.Stock < qty {
		return &Shortage{InventoryID: inv, Requested: qty, Available: s.before.Stock}
	}
	s.delta = -qty
	s.after.Stock = s.before.Stock - qty
	return nil
}

func (s *step) VisitPurchase(m Purchase) error {
	if m.UnitCost < 0 {
		return fmt.Errorf("unit cost must not be negative, got %d", m.UnitCost)
	}
	if err := s.in(m.InventoryID, m.Quantity); err != nil {
		return err
	}
	s.after.Cost = m.UnitCost
	return nil
}

func (s *step) VisitSale(m Sale) error {
	if err := s.out(m.InventoryID, m.Quantity); err != nil {
		return err
	}
	s.after.Sold += m.Quantity
	return nil
}

func (s *step) VisitCancelSale(m CancelSale) error {
	if err := s.in(m.InventoryID, m.Quantity); err != nil {
		return err
	}
	s.after.Sold -= m.Quantity
	return nil
}

func (s *step) VisitCancelPurchase(m CancelPurchase) error {
	if m.Original.Kind != KindPurchase {
		return fmt.Errorf("cancel purchase needs a %s record, got %s", KindPurchase, m.Original.Kind)
	}
	if err := s.out(m.Original.InventoryID, m.Original.Quantity); err != nil {
		return err
	}
	if m.RestoreCost {
		s.after.Cost = m.Original.CostBefore
	}
	return nil
}

func (s *step) VisitReturn(m Return) error {
	return s.out(m.InventoryID, m.Quantity)
}

func (s *step) VisitAdjust(m Adjust) error {
	return s.in(m.InventoryID, m.Quantity)
}

func (s *step) VisitEditSaleRestore(m EditSaleRestore) error {
	if err := s.in(m.InventoryID, m.Quantity); err != nil {
		return err
	}
	s.after.Sold -= m.Quantity
	return nil
}

func (s *step) VisitEditSaleApply(m EditSaleApply) error {
	if err := s.out(m.InventoryID, m.Quantity); err != nil {
		return err
	}
	s.after.Sold += m.Quantity
	return nil
}

// Next applies m to b and returns the new balance and the signed stock delta.
func Next(b Balance, m Movement) (Balance, int64, error) {
	s := &step{before: b, after: b}
	if err := m.Accept(s); err != nil {
		return b, 0, err
	}
	return s.after, s.delta, nil
}
