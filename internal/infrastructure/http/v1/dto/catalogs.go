package dto

import (
	"stockledger/internal/domain/catalogs"
	"stockledger/internal/domain/catalogs/inventory"
)

// --- Inventory ---

// CreateItemRequest creates an inventory item. Stock and cost open its ledger.
type CreateItemRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	Code  string `json:"code" binding:"required,max=50"`
	Price int64  `json:"price" binding:"min=0"`
	Stock int64  `json:"stock" binding:"min=0"`
	Cost  int64  `json:"cost" binding:"min=0"`
}

func (r *CreateItemRequest) ToInput() catalogs.ItemInput {
	return catalogs.ItemInput{Name: r.Name, Code: r.Code, Price: r.Price, Stock: r.Stock, Cost: r.Cost}
}

// UpdateItemRequest edits the descriptive fields. Stock and cost only move through documents.
type UpdateItemRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	Code  string `json:"code" binding:"required,max=50"`
	Price int64  `json:"price" binding:"min=0"`
}

func (r *UpdateItemRequest) ToInput() catalogs.ItemInput {
	return catalogs.ItemInput{Name: r.Name, Code: r.Code, Price: r.Price}
}

// ItemListQuery filters the inventory listing.
type ItemListQuery struct {
	PageQuery
	Search string `form:"search" binding:"max=100"`
}

func (q ItemListQuery) ToFilter() inventory.ListFilter {
	return inventory.ListFilter{Search: q.Search, Page: q.ToPage()}
}

// --- Suppliers ---

// SupplierRequest creates or updates a supplier.
type SupplierRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Phone   string `json:"phone" binding:"max=50"`
	Address string `json:"address" binding:"max=500"`
}

func (r *SupplierRequest) ToInput() catalogs.SupplierInput {
	return catalogs.SupplierInput{Name: r.Name, Phone: r.Phone, Address: r.Address}
}

// SupplierListQuery filters the supplier listing.
type SupplierListQuery struct {
	PageQuery
	Search string `form:"search" binding:"max=100"`
}
