package ledger

import (
	"fmt"

	"stockledger/internal/core/id"
)

// ChainBreak describes the first place an item's ledger stops agreeing with itself
// or with the item.
type ChainBreak struct {
	InventoryID id.ID  `json:"inventoryId"`
	RecordID    id.ID  `json:"recordId,omitempty"`
	Position    int    `json:"position"`
	Reason      string `json:"reason"`
	Expected    int64  `json:"expected"`
	Actual      int64  `json:"actual"`
}

func (b *ChainBreak) Error() string {
	return fmt.Sprintf("ledger chain broken for %s at %d: %s (expected %d, got %d)",
		b.InventoryID, b.Position, b.Reason, b.Expected, b.Actual)
}

// VerifyChain checks records (ascending) for one item against its opening and
// current stock. It returns nil when the chain is intact.
func VerifyChain(invID id.ID, opening, current int64, records []Record) *ChainBreak {
	prev := opening
	for i, r := range records {
		if r.InventoryID != invID {
			return &ChainBreak{InventoryID: invID, RecordID: r.ID, Position: i, Reason: "foreign record"}
		}
		if r.StockBefore != prev {
			return &ChainBreak{InventoryID: invID, RecordID: r.ID, Position: i,
				Reason: "stock before differs from previous stock after", Expected: prev, Actual: r.StockBefore}
		}
		if r.StockBefore+r.Quantity != r.StockAfter {
			return &ChainBreak{InventoryID: invID, RecordID: r.ID, Position: i,
				Reason: "quantity does not explain stock change", Expected: r.StockBefore + r.Quantity, Actual: r.StockAfter}
		}
		prev = r.StockAfter
	}
	if prev != current {
		return &ChainBreak{InventoryID: invID, Position: len(records),
			Reason: "item stock differs from last stock after", Expected: prev, Actual: current}
	}
	return nil
}
