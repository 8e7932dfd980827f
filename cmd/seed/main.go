// Package main provides a CLI tool for seeding the database with a demo tenant.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/catalogs"
	"stockledger/internal/domain/documents/purchase"
	"stockledger/internal/domain/documents/sale"
	"stockledger/internal/domain/movement"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()

	// Connect to database
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("connected to database")

	txm := postgres.NewTxManager(pool)
	store, err := postgres.NewStore(txm)
	if err != nil {
		log.Fatalw("failed to open store", "error", err)
	}

	in := tenant.CreateInput{Name: "Toko Demo", InvoicePrefix: "DEMO"}
	if err := in.Validate(); err != nil {
		log.Fatalw("invalid demo tenant", "error", err)
	}
	t := tenant.New(in)
	if err := store.CreateTenant(ctx, t); err != nil {
		log.Fatalw("failed to create demo tenant", "error", err)
	}

	ctx = appctx.WithUser(ctx, &appctx.UserContext{
		UserID:   "seed",
		TenantID: t.ID.String(),
		Username: "seed",
		Role:     "OWNER",
	})

	if err := seedDemoData(ctx, catalogs.NewService(store, txm), movement.NewEngine(store, txm), t.ID, log); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}

	log.Infow("seeding completed successfully", "tenant_id", t.ID)
}

func seedDemoData(ctx context.Context, catalog *catalogs.Service, engine *movement.Engine, tenantID id.ID, log *logger.Logger) error {
	log.Info("seeding demo data...")

	// 1. Suppliers
	sup, err := catalog.CreateSupplier(ctx, tenantID, catalogs.SupplierInput{
		Name:    "PT Sumber Rejeki",
		Phone:   "021-5550101",
		Address: "Jl. Pasar Baru 12, Jakarta",
	})
	if err != nil {
		return fmt.Errorf("supplier: %w", err)
	}

	// 2. Items, all starting empty so every unit is traceable to a purchase
	type itemSeed struct {
		name  string
		code  string
		price int64
		qty   int64
		cost  int64
	}
	seeds := []itemSeed{
		{"Kopi Bubuk 200g", "KOPI-200", 25000, 40, 18000},
		{"Teh Celup 25s", "TEH-25", 12000, 60, 8500},
		{"Gula Pasir 1kg", "GULA-1K", 17000, 30, 14000},
	}

	lines := make([]purchase.Line, 0, len(seeds))
	itemIDs := make([]id.ID, 0, len(seeds))
	for _, s := range seeds {
		item, err := catalog.CreateItem(ctx, tenantID, catalogs.ItemInput{Name: s.name, Code: s.code, Price: s.price})
		if err != nil {
			return fmt.Errorf("item %s: %w", s.code, err)
		}
		itemIDs = append(itemIDs, item.ID)
		lines = append(lines, purchase.Line{InventoryID: item.ID, Quantity: s.qty, UnitCost: s.cost})
	}

	// 3. One partially paid purchase
	p, err := engine.ApplyPurchase(ctx, tenantID, movement.PurchaseInput{
		SupplierID: sup.ID,
		Items:      lines,
		Payment:    &movement.PaymentInput{Amount: 500000, Method: purchase.MethodTransfer, Note: "down payment"},
	})
	if err != nil {
		return fmt.Errorf("purchase: %w", err)
	}
	log.Infow("purchase recorded", "invoice", p.Invoice, "total", p.TotalAmount, "status", p.Status)

	// 4. A couple of sales
	for i, method := range []purchase.Method{purchase.MethodCash, purchase.MethodQRIS} {
		s, err := engine.ApplySale(ctx, tenantID, movement.SaleInput{
			Items:  []sale.Line{{InventoryID: itemIDs[i], Quantity: 2}, {InventoryID: itemIDs[2], Quantity: 1}},
			Method: method,
		})
		if err != nil {
			return fmt.Errorf("sale: %w", err)
		}
		log.Infow("sale recorded", "invoice", s.Invoice, "total", s.TotalAmount)
	}

	return nil
}
