package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/inventory"
	"stockledger/internal/domain/documents/sale"
)

func TestExtractDBColumns_EmbeddedEntity(t *testing.T) {
	cols := ExtractDBColumns[inventory.Item]()

	assert.Equal(t, []string{
		"id", "tenant_id", "created_at", "updated_at",
		"name", "code", "price", "stock", "cost", "sold", "opening_stock",
	}, cols)
}

func TestExtractDBColumns_SkipsIgnored(t *testing.T) {
	cols := ExtractDBColumns[sale.Sale]()

	assert.Contains(t, cols, "invoice")
	assert.Contains(t, cols, "is_deleted")
	assert.Contains(t, cols, "edited_by")
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "items")
}

func TestStructToMap(t *testing.T) {
	tenantID := id.New()
	item := inventory.NewItem(tenantID, " Kopi ", "K-1", 1500, 10, 900, time.Now())

	m := StructToMap(item)

	assert.Equal(t, item.ID, m["id"])
	assert.Equal(t, tenantID, m["tenant_id"])
	assert.Equal(t, "Kopi", m["name"])
	assert.Equal(t, int64(10), m["opening_stock"])
}

func TestStructValues_Order(t *testing.T) {
	it := sale.Item{ID: id.New(), Quantity: 2, UnitPrice: 300, SubTotal: 600}

	vals := StructValues(it, []string{"sub_total", "quantity", "missing"})

	assert.Equal(t, []any{int64(600), int64(2), nil}, vals)
}
