package ledger

import (
	"fmt"
	"time"

	"stockledger/internal/core/id"
)

// Posting accumulates the movements of one business document inside one
// transaction. Movements against the same item chain through the in-memory
// balance, so the item row is written once at the end regardless of how many
// records the document produced.
type Posting struct {
	tenantID id.ID
	refID    id.ID
	at       time.Time

	balances map[id.ID]Balance
	touched  []id.ID
	records  []Record
}

// NewPosting starts a posting for document refID. opening holds the balances
// read (and locked) inside the current transaction.
func NewPosting(tenantID, refID id.ID, at time.Time, opening map[id.ID]Balance) *Posting {
	balances := make(map[id.ID]Balance, len(opening))
	for k, v := range opening {
		balances[k] = v
	}
	return &Posting{
		tenantID: tenantID,
		refID:    refID,
		at:       at.UTC(),
		balances: balances,
	}
}

// Post applies m and appends the resulting record.
func (p *Posting) Post(m Movement, note string) (Record, error) {
	invID := m.Inventory()
	before, ok := p.balances[invID]
	if !ok {
		return Record{}, fmt.Errorf("inventory %s was not loaded for posting", invID)
	}

	after, delta, err := Next(before, m)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:          id.New(),
		TenantID:    p.tenantID,
		InventoryID: invID,
		Kind:        m.Kind(),
		Quantity:    delta,
		StockBefore: before.Stock,
		StockAfter:  after.Stock,
		CostBefore:  before.Cost,
		CostAfter:   after.Cost,
		RefID:       p.refID,
		Note:        note,
		CreatedAt:   p.at,
	}

	if !p.isTouched(invID) {
		p.touched = append(p.touched, invID)
	}
	p.balances[invID] = after
	p.records = append(p.records, rec)
	return rec, nil
}

func (p *Posting) isTouched(invID id.ID) bool {
	for _, t := range p.touched {
		if t == invID {
			return true
		}
	}
	return false
}

// Balance returns the running balance for an item.
func (p *Posting) Balance(invID id.ID) (Balance, bool) {
	b, ok := p.balances[invID]
	return b, ok
}

// Records returns the records in posting order.
func (p *Posting) Records() []Record {
	return p.records
}

// Change is the final state of one item after a posting.
type Change struct {
	InventoryID id.ID
	Balance
}

// Changes returns one entry per touched item, in first-touch order.
func (p *Posting) Changes() []Change {
	out := make([]Change, 0, len(p.touched))
	for _, invID := range p.touched {
		out = append(out, Change{InventoryID: invID, Balance: p.balances[invID]})
	}
	return out
}
