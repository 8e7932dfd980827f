// Package inventory provides the inventory item catalog and its stock projection.
package inventory

import (
	"context"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/registers/ledger"
)

// Item is a stocked product. Stock, Cost and Sold are a projection of the
// ledger and change only through movement postings.
type Item struct {
	entity.TenantEntity

	Name  string `db:"name" json:"name"`
	Code  string `db:"code" json:"code"`
	Price int64  `db:"price" json:"price"`

	Stock int64 `db:"stock" json:"stock"`
	Cost  int64 `db:"cost" json:"cost"`
	Sold  int64 `db:"sold" json:"sold"`

	// OpeningStock is the stock the item was created with; the ledger chain starts from it.
	OpeningStock int64 `db:"opening_stock" json:"openingStock"`
}

// NewItem creates an item with its opening position.
func NewItem(tenantID id.ID, name, code string, price, stock, cost int64, now time.Time) *Item {
	return &Item{
		TenantEntity: entity.NewTenantEntity(tenantID, now),
		Name:         strings.TrimSpace(name),
		Code:         strings.TrimSpace(code),
		Price:        price,
		Stock:        stock,
		Cost:         cost,
		OpeningStock: stock,
	}
}

// Validate implements entity.Validatable.
func (i *Item) Validate(_ context.Context) error {
	err := apperror.NewValidation("invalid inventory item")
	bad := false
	if i.Name == "" {
		err.WithField("name", "required")
		bad = true
	}
	if i.Code == "" {
		err.WithField("code", "required")
		bad = true
	}
	if i.Price < 0 {
		err.WithField("price", "must not be negative")
		bad = true
	}
	if i.Stock < 0 || i.Cost < 0 {
		err.WithField("stock", "stock and cost must not be negative")
		bad = true
	}
	if bad {
		return err
	}
	return nil
}

// Balance returns the ledger projection of the item.
func (i *Item) Balance() ledger.Balance {
	return ledger.Balance{Stock: i.Stock, Cost: i.Cost, Sold: i.Sold}
}

// Apply sets the projection after a posting.
func (i *Item) Apply(b ledger.Balance, now time.Time) {
	i.Stock = b.Stock
	i.Cost = b.Cost
	i.Sold = b.Sold
	i.Touch(now)
}

// Rename updates the descriptive fields. Stock position is not editable here.
func (i *Item) Rename(name, code string, price int64, now time.Time) {
	i.Name = strings.TrimSpace(name)
	i.Code = strings.TrimSpace(code)
	i.Price = price
	i.Touch(now)
}
