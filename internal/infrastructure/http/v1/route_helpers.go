// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/security"
	"stockledger/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler is implemented by catalog handlers.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
}

// DocumentRouteHandler is implemented by document handlers.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	History(c *gin.Context)
}

var (
	canRead    = middleware.RequirePermission(security.PermissionRead)
	canRecord  = middleware.RequirePermission(security.PermissionRecord)
	canRevise  = middleware.RequirePermission(security.PermissionRevise)
	canCatalog = middleware.RequirePermission(security.PermissionCatalog)
)

// RegisterCatalogRoutes registers list, create, get and update for a catalog.
// Reads need PermissionRead, writes PermissionCatalog.
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	group.GET("", canRead, handler.List)
	group.POST("", canCatalog, handler.Create)
	group.GET("/:id", canRead, handler.Get)
	group.PUT("/:id", canCatalog, handler.Update)
}

// RegisterDocumentRoutes registers list, create, get and the audit history of
// a document. Creating a document needs PermissionRecord.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler) {
	group.GET("", canRead, handler.List)
	group.POST("", canRecord, handler.Create)
	group.GET("/:id", canRead, handler.Get)
	group.GET("/:id/history", canRead, handler.History)
}
