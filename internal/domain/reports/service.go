package reports

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/internal/domain"
	"stockledger/internal/domain/catalogs/inventory"
	"stockledger/internal/domain/filter"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/pkg/logger"
)

// Service builds reports. Each report reads inside one read-only transaction.
type Service struct {
	store     domain.Store
	txManager tx.ReadOnlyManager
	now       func() time.Time
}

// NewService creates a new reports service.
func NewService(store domain.Store, txManager tx.ReadOnlyManager) *Service {
	return &Service{store: store, txManager: txManager, now: time.Now}
}

// StockValuation values every item's stock at its current cost.
func (s *Service) StockValuation(ctx context.Context, tenantID id.ID) (*StockValuation, error) {
	report := &StockValuation{AsOf: s.now().UTC(), Items: []StockValuationItem{}, TotalValue: types.Zero()}

	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		items, err := s.store.Tenant(tenantID).Inventory().All(ctx)
		if err != nil {
			return fmt.Errorf("load inventory: %w", err)
		}
		for _, it := range items {
			value, ok := types.MulChecked(it.Stock, it.Cost)
			if !ok {
				return apperror.NewValidation("stock value overflows").WithDetail("inventory_id", it.ID)
			}
			report.Items = append(report.Items, StockValuationItem{
				InventoryID: it.ID,
				Name:        it.Name,
				Code:        it.Code,
				Stock:       it.Stock,
				Cost:        it.Cost,
				Value:       value,
			})
			report.TotalStock += it.Stock
			report.TotalValue = report.TotalValue.Add(types.FromMinor(value))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := report.TotalValue
	for i := range report.Items {
		report.Items[i].Share = types.Zero()
		if !total.IsZero() {
			report.Items[i].Share = types.FromMinor(report.Items[i].Value).
				Mul(types.FromMinor(100)).
				DivRound(total, types.ReportScale)
		}
	}
	slices.SortStableFunc(report.Items, func(a, b StockValuationItem) int {
		switch {
		case a.Value > b.Value:
			return -1
		case a.Value < b.Value:
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return report, nil
}

// issueKinds are the ledger kinds that carry cost of goods sold for a sale.
var issueKinds = []ledger.Kind{ledger.KindSale, ledger.KindEditSaleRestore, ledger.KindEditSaleApply}

// liveIssueCost values what each sale still has out of stock at the cost
// recorded when the sale first issued that item. An edit is a correction of the
// sale, not a new one: it restores every line and issues the new ones, so per
// sale and item a restore zeroes the live quantity while the first issue cost
// stays the valuation basis.
func liveIssueCost(records []ledger.Record) int64 {
	type key struct{ sale, item id.ID }
	type position struct {
		qty      int64
		cost     int64
		hasBasis bool
	}

	sorted := slices.Clone(records)
	slices.SortFunc(sorted, func(a, b ledger.Record) int { return cmp.Compare(a.Seq, b.Seq) })

	live := map[key]*position{}
	for _, r := range sorted {
		k := key{r.RefID, r.InventoryID}
		p := live[k]
		if p == nil {
			p = &position{}
			live[k] = p
		}
		switch r.Kind {
		case ledger.KindEditSaleRestore:
			p.qty = 0
		case ledger.KindSale, ledger.KindEditSaleApply:
			if !p.hasBasis {
				p.cost, p.hasBasis = r.CostBefore, true
			}
			p.qty += -r.Quantity
		}
	}

	var cogs int64
	for _, p := range live {
		cogs += p.qty * p.cost
	}
	return cogs
}

// SalesSummary totals active sales between from and to (whole days, default today).
// COGS uses the cost recorded when each sale first issued an item, so it
// reflects the cost at the time of sale rather than the current one.
func (s *Service) SalesSummary(ctx context.Context, tenantID id.ID, from, to time.Time) (*SalesSummary, error) {
	period := filter.Days(from, to, s.now())
	if period.From.After(period.To) {
		return nil, apperror.NewValidation("invalid period").WithField("from", "must not be after to")
	}
	report := &SalesSummary{From: period.From, To: period.To, ByMethod: []MethodTotal{}}

	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		ts := s.store.Tenant(tenantID)
		sales, err := ts.Sales().Scan(ctx, period, filter.StateActive)
		if err != nil {
			return fmt.Errorf("load sales: %w", err)
		}
		if len(sales) == 0 {
			return nil
		}

		methods := map[string]*MethodTotal{}
		refIDs := make([]id.ID, 0, len(sales))
		for _, sl := range sales {
			refIDs = append(refIDs, sl.ID)
			report.SalesCount++
			report.Revenue += sl.TotalAmount
			for _, it := range sl.Items {
				report.UnitsSold += it.Quantity
			}
			m := methods[string(sl.Method)]
			if m == nil {
				m = &MethodTotal{Method: string(sl.Method)}
				methods[string(sl.Method)] = m
			}
			m.Count++
			m.Revenue += sl.TotalAmount
		}
		for _, m := range methods {
			report.ByMethod = append(report.ByMethod, *m)
		}
		slices.SortFunc(report.ByMethod, func(a, b MethodTotal) int { return strings.Compare(a.Method, b.Method) })

		records, err := ts.Ledger().Scan(ctx, ledger.Filter{RefIDs: refIDs, Kinds: issueKinds})
		if err != nil {
			return fmt.Errorf("load issue records: %w", err)
		}
		report.COGS = liveIssueCost(records)
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.GrossProfit = report.Revenue - report.COGS
	report.MarginPercent = types.Percent(report.GrossProfit, report.Revenue)
	report.AverageSale = types.UnitAverage(report.Revenue, int64(report.SalesCount))
	return report, nil
}

// PurchasesReport lists the lines of active purchases in the period, newest
// purchase first. With a search only matching lines are kept, and a purchase
// counts when at least one of its lines matches.
func (s *Service) PurchasesReport(ctx context.Context, tenantID id.ID, q PurchasesQuery) (*PurchasesReport, error) {
	period := filter.Days(q.From, q.To, s.now())
	if period.From.After(period.To) {
		return nil, apperror.NewValidation("invalid period").WithField("from", "must not be after to")
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))
	report := &PurchasesReport{From: period.From, To: period.To, Search: search}

	var lines []PurchaseLine
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		ts := s.store.Tenant(tenantID)
		purchases, err := ts.Purchases().Scan(ctx, period, filter.StateActive)
		if err != nil {
			return fmt.Errorf("load purchases: %w", err)
		}
		if len(purchases) == 0 {
			return nil
		}
		items, err := ts.Inventory().All(ctx)
		if err != nil {
			return fmt.Errorf("load inventory: %w", err)
		}
		catalog := make(map[id.ID]*inventory.Item, len(items))
		for _, it := range items {
			catalog[it.ID] = it
		}
		suppliers := map[id.ID]string{}

		for i := len(purchases) - 1; i >= 0; i-- {
			p := purchases[i]
			matched := false
			for _, it := range p.Items {
				var name, code string
				if item := catalog[it.InventoryID]; item != nil {
					name, code = item.Name, item.Code
				}
				if search != "" &&
					!strings.Contains(strings.ToLower(name), search) &&
					!strings.Contains(strings.ToLower(code), search) {
					continue
				}
				supplierName, ok := suppliers[p.SupplierID]
				if !ok {
					sup, err := ts.Suppliers().GetByID(ctx, p.SupplierID)
					switch {
					case err == nil:
						supplierName = sup.Name
					case !apperror.IsNotFound(err):
						return fmt.Errorf("load supplier: %w", err)
					}
					suppliers[p.SupplierID] = supplierName
				}
				total, ok := types.AddChecked(report.TotalCost, it.SubTotal)
				if !ok {
					return apperror.NewValidation("purchases total overflows")
				}
				report.TotalCost = total
				report.TotalUnits += it.Quantity
				matched = true
				lines = append(lines, PurchaseLine{
					PurchaseID:   p.ID,
					Invoice:      p.Invoice,
					Date:         p.CreatedAt,
					SupplierID:   p.SupplierID,
					SupplierName: supplierName,
					Status:       string(p.Status),
					InventoryID:  it.InventoryID,
					Name:         name,
					Code:         code,
					Quantity:     it.Quantity,
					UnitCost:     it.UnitCost,
					SubTotal:     it.SubTotal,
				})
			}
			if matched {
				report.Purchases++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.Lines = filter.NewListResult(filter.Slice(lines, q.Page), int64(len(lines)), q.Page)
	return report, nil
}

// LedgerCheck walks an item's ledger and compares it with the item. A break is
// reported as a LEDGER_INCONSISTENCY error carrying the check result.
func (s *Service) LedgerCheck(ctx context.Context, tenantID, inventoryID id.ID) (*LedgerCheck, error) {
	var check *LedgerCheck
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		ts := s.store.Tenant(tenantID)
		item, err := ts.Inventory().GetByID(ctx, inventoryID)
		if err != nil {
			return err
		}
		records, err := ts.Ledger().History(ctx, inventoryID)
		if err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}
		check = &LedgerCheck{
			InventoryID:  inventoryID,
			OpeningStock: item.OpeningStock,
			Stock:        item.Stock,
			Records:      len(records),
		}
		check.Break = ledger.VerifyChain(inventoryID, item.OpeningStock, item.Stock, records)
		check.Intact = check.Break == nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !check.Intact {
		logger.Alert(ctx, "ledger_consistency", "ledger chain broken",
			"inventory_id", inventoryID,
			"position", check.Break.Position,
			"reason", check.Break.Reason)
		return check, apperror.NewConsistency("ledger chain is broken").
			WithDetail("check", check).
			WithCause(check.Break)
	}
	return check, nil
}
