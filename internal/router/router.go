// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/amoghku/marketplace-pim/internal/config"
	"github.com/amoghku/marketplace-pim/internal/handlers"
	"github.com/amoghku/marketplace-pim/internal/middleware"
	"github.com/amoghku/marketplace-pim/internal/models"
	"github.com/amoghku/marketplace-pim/internal/services"
)

const Version = "1.0.0"

// Initialize builds the HTTP API. writeLimiter may be nil to disable write
// rate limiting.
func Initialize(svcs *services.Services, cfg *config.Config, writeLimiter *middleware.RateLimiter, logger logrus.FieldLogger) *gin.Engine {
	categoryHandler := handlers.NewCategoryHandler(svcs.Categories)
	collectionHandler := handlers.NewCollectionHandler(svcs.Collections)
	approvalTaskHandler := handlers.NewApprovalTaskHandler(svcs.ApprovalTasks)

	currencyHandler := handlers.NewReferenceHandler[models.Currency, services.CurrencyRequest, services.CurrencyUpdateRequest](
		svcs.Currencies, "currency")
	salesChannelHandler := handlers.NewReferenceHandler[models.SalesChannel, services.SalesChannelRequest, services.SalesChannelUpdateRequest](
		svcs.SalesChannels, "sales_channel")
	vendorHandler := handlers.NewReferenceHandler[models.Vendor, services.VendorRequest, services.VendorUpdateRequest](
		svcs.Vendors, "vendor")
	productHandler := handlers.NewReferenceHandler[models.Product, services.ProductRequest, services.ProductUpdateRequest](
		svcs.Products, "product", "status", "category_id", "vendor_id")

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())

	var writes []gin.HandlerFunc
	if writeLimiter != nil {
		writes = append(writes, writeLimiter.Middleware())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "healthy",
			"version":       Version,
			"sync_disabled": cfg.Sync.Disabled,
		})
	})

	api := r.Group("/api")
	api.Use(writes...)
	{
		categories := api.Group("/categories")
		{
			categories.GET("", categoryHandler.GetCategories)
			categories.POST("", categoryHandler.CreateCategory)
			categories.GET("/:id", categoryHandler.GetCategory)
			categories.PUT("/:id", categoryHandler.UpdateCategory)
			categories.DELETE("/:id", categoryHandler.DeleteCategory)
			categories.POST("/:id/sync", categoryHandler.SyncCategory)
		}

		collections := api.Group("/collections")
		{
			collections.GET("", collectionHandler.GetCollections)
			collections.POST("", collectionHandler.CreateCollection)
			collections.GET("/:id", collectionHandler.GetCollection)
			collections.PUT("/:id", collectionHandler.UpdateCollection)
			collections.DELETE("/:id", collectionHandler.DeleteCollection)
			collections.POST("/:id/sync", collectionHandler.SyncCollection)
		}

		approvalTasks := api.Group("/approval-tasks")
		{
			approvalTasks.GET("", approvalTaskHandler.GetApprovalTasks)
			approvalTasks.POST("", approvalTaskHandler.CreateApprovalTask)
			approvalTasks.GET("/:id", approvalTaskHandler.GetApprovalTask)
			approvalTasks.PUT("/:id", approvalTaskHandler.UpdateApprovalTask)
			approvalTasks.PUT("/:id/approve", approvalTaskHandler.ApproveApprovalTask)
			approvalTasks.PUT("/:id/reject", approvalTaskHandler.RejectApprovalTask)
			approvalTasks.DELETE("/:id", approvalTaskHandler.DeleteApprovalTask)
		}

		currencyHandler.Register(api.Group("/currencies"))
		salesChannelHandler.Register(api.Group("/sales-channels"))
		vendorHandler.Register(api.Group("/vendors"))
		productHandler.Register(api.Group("/products"))
	}

	return r
}
