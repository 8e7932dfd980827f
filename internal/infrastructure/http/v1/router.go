package v1

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/idempotency"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain"
	"stockledger/internal/domain/catalogs"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/movement"
	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Store is the tenant-scoped storage root.
	Store domain.Store

	// TxManager runs read-write and read-only transactions on Store.
	TxManager tx.ReadOnlyManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Idempotency stores Idempotency-Key responses. Nil disables replay.
	Idempotency idempotency.Store

	// Health answers the health endpoints.
	Health *handlers.HealthHandler
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	if cfg.Health != nil {
		router.GET("/health", cfg.Health.Ready)
		health := router.Group("/health")
		{
			health.GET("/live", cfg.Health.Live)
			health.GET("/ready", cfg.Health.Ready)
			health.GET("/info", cfg.Health.Info)
		}
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator)) // 1. Validate JWT
	v1.Use(middleware.Tenant(cfg.Store))      // 2. Resolve the token's tenant
	if cfg.Idempotency != nil {
		v1.Use(middleware.Idempotency(cfg.Idempotency)) // 3. Replay retried writes
	}

	base := handlers.NewBaseHandler()
	engine := movement.NewEngine(cfg.Store, cfg.TxManager)
	catalogService := catalogs.NewService(cfg.Store, cfg.TxManager)
	docs := documents.NewService(cfg.Store)

	registerCatalogRoutes(v1, base, catalogService, docs)
	registerDocumentRoutes(v1, base, engine, docs)
	registerReportRoutes(v1, base, reports.NewService(cfg.Store, cfg.TxManager), docs)

	return router
}

// registerCatalogRoutes registers inventory and supplier endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, service *catalogs.Service, docs *documents.Service) {
	inventory := handlers.NewInventoryHandler(base, service, docs)
	inventories := rg.Group("/inventories")
	RegisterCatalogRoutes(inventories, inventory)
	inventories.GET("/:id/ledger", canRead, inventory.Ledger)

	RegisterCatalogRoutes(rg.Group("/suppliers"), handlers.NewSupplierHandler(base, service))
}

// registerDocumentRoutes registers purchase, sale and return endpoints.
// Cancellations, sale edits and return decisions need PermissionRevise.
func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, engine *movement.Engine, docs *documents.Service) {
	// --- PURCHASES ---
	{
		h := handlers.NewPurchaseHandler(base, engine, docs)
		g := rg.Group("/purchases")
		RegisterDocumentRoutes(g, h)
		g.POST("/:id/cancel", canRevise, h.Cancel)
		g.GET("/:id/payments", canRead, h.Payments)
		g.POST("/:id/payments", canRecord, h.AddPayment)
	}

	// --- SALES ---
	{
		h := handlers.NewSaleHandler(base, engine, docs)
		g := rg.Group("/sales")
		RegisterDocumentRoutes(g, h)
		g.PUT("/:id", canRevise, h.Edit)
		g.POST("/:id/cancel", canRevise, h.Cancel)
	}

	// --- PURCHASE RETURNS ---
	{
		h := handlers.NewReturnHandler(base, engine, docs)
		g := rg.Group("/returns")
		RegisterDocumentRoutes(g, h)
		g.POST("/:id/approve", canRevise, h.Approve)
		g.POST("/:id/reject", canRevise, h.Reject)
		g.POST("/:id/complete", canRevise, h.Complete)
	}
}

// registerReportRoutes registers ledger and report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, service *reports.Service, docs *documents.Service) {
	rg.GET("/ledger", canRead, handlers.NewLedgerHandler(base, docs).List)

	h := handlers.NewReportsHandler(base, service)
	g := rg.Group("/reports")
	g.GET("/stock-valuation", canRead, h.StockValuation)
	g.GET("/sales-summary", canRead, h.SalesSummary)
	g.GET("/purchases", canRead, h.Purchases)
	g.GET("/ledger-check/:inventoryId", canRead, h.LedgerCheck)
}
