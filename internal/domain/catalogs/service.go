// Package catalogs provides the inventory and supplier catalog services.
package catalogs

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain"
	"stockledger/internal/domain/catalogs/inventory"
	"stockledger/internal/domain/catalogs/supplier"
	"stockledger/internal/domain/filter"
	"stockledger/pkg/logger"
)

// Service manages catalog entities of one tenant at a time.
type Service struct {
	store     domain.Store
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates a catalog service.
func NewService(store domain.Store, txManager tx.Manager) *Service {
	return &Service{store: store, txManager: txManager, now: time.Now}
}

// ItemInput holds the editable fields of an inventory item.
type ItemInput struct {
	Name  string
	Code  string
	Price int64

	// Stock and Cost are only honored on create; they open the item's ledger chain.
	Stock int64
	Cost  int64
}

// CreateItem adds an inventory item with its opening stock.
func (s *Service) CreateItem(ctx context.Context, tenantID id.ID, in ItemInput) (*inventory.Item, error) {
	item := inventory.NewItem(tenantID, in.Name, in.Code, in.Price, in.Stock, in.Cost, s.now())
	if err := item.Validate(ctx); err != nil {
		return nil, normalizeValidationErr(err)
	}

	repo := s.store.Tenant(tenantID).Inventory()
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, item); err != nil {
			return fmt.Errorf("create inventory item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "inventory item created", "id", item.ID, "code", item.Code, "stock", item.Stock)
	return item, nil
}

// UpdateItem changes name, code and price. Stock and cost move only through documents.
func (s *Service) UpdateItem(ctx context.Context, tenantID, itemID id.ID, in ItemInput) (*inventory.Item, error) {
	repo := s.store.Tenant(tenantID).Inventory()

	var item *inventory.Item
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := repo.GetForUpdate(ctx, []id.ID{itemID})
		if err != nil {
			return err
		}
		var ok bool
		if item, ok = locked[itemID]; !ok {
			return apperror.NewNotFound("inventory", itemID)
		}
		item.Rename(in.Name, in.Code, in.Price, s.now())
		if err := item.Validate(ctx); err != nil {
			return normalizeValidationErr(err)
		}
		if err := repo.Update(ctx, item); err != nil {
			return fmt.Errorf("update inventory item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem returns one inventory item.
func (s *Service) GetItem(ctx context.Context, tenantID, itemID id.ID) (*inventory.Item, error) {
	return s.store.Tenant(tenantID).Inventory().GetByID(ctx, itemID)
}

// ListItems returns a page of items matching the search term.
func (s *Service) ListItems(ctx context.Context, tenantID id.ID, f inventory.ListFilter) (filter.ListResult[*inventory.Item], error) {
	f.Page = f.Page.Normalize()
	return s.store.Tenant(tenantID).Inventory().List(ctx, f)
}

// SupplierInput holds the editable fields of a supplier.
type SupplierInput struct {
	Name    string
	Phone   string
	Address string
}

// CreateSupplier adds a supplier.
func (s *Service) CreateSupplier(ctx context.Context, tenantID id.ID, in SupplierInput) (*supplier.Supplier, error) {
	sup := supplier.New(tenantID, in.Name, in.Phone, in.Address, s.now())
	if err := sup.Validate(ctx); err != nil {
		return nil, normalizeValidationErr(err)
	}

	repo := s.store.Tenant(tenantID).Suppliers()
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, sup); err != nil {
			return fmt.Errorf("create supplier: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "supplier created", "id", sup.ID, "name", sup.Name)
	return sup, nil
}

// UpdateSupplier rewrites a supplier's contact details.
func (s *Service) UpdateSupplier(ctx context.Context, tenantID, supplierID id.ID, in SupplierInput) (*supplier.Supplier, error) {
	repo := s.store.Tenant(tenantID).Suppliers()

	var sup *supplier.Supplier
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if sup, err = repo.GetByID(ctx, supplierID); err != nil {
			return err
		}
		fresh := supplier.New(tenantID, in.Name, in.Phone, in.Address, s.now())
		sup.Name, sup.Phone, sup.Address = fresh.Name, fresh.Phone, fresh.Address
		sup.Touch(s.now())
		if err := sup.Validate(ctx); err != nil {
			return normalizeValidationErr(err)
		}
		if err := repo.Update(ctx, sup); err != nil {
			return fmt.Errorf("update supplier: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sup, nil
}

// GetSupplier returns one supplier.
func (s *Service) GetSupplier(ctx context.Context, tenantID, supplierID id.ID) (*supplier.Supplier, error) {
	return s.store.Tenant(tenantID).Suppliers().GetByID(ctx, supplierID)
}

// ListSuppliers returns a page of suppliers matching search.
func (s *Service) ListSuppliers(ctx context.Context, tenantID id.ID, search string, page filter.Page) (filter.ListResult[*supplier.Supplier], error) {
	return s.store.Tenant(tenantID).Suppliers().List(ctx, search, page.Normalize())
}

func normalizeValidationErr(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}
