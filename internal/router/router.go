// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/erp-backend/internal/config"
	"github.com/javajoker/erp-backend/internal/handlers"
	"github.com/javajoker/erp-backend/internal/middleware"
	"github.com/javajoker/erp-backend/internal/services"
	"github.com/javajoker/erp-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	stockService := services.NewStockService(db)
	purchaseService := services.NewPurchaseService(db, stockService)
	orderService := services.NewOrderService(db, stockService)
	catalogService := services.NewCatalogService(db)
	partnerService := services.NewPartnerService(db)

	// Initialize handlers
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)
	orderHandler := handlers.NewOrderHandler(orderService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	partnerHandler := handlers.NewPartnerHandler(partnerService)
	stockHandler := handlers.NewStockHandler(stockService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Product catalog
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), catalogHandler.GetProducts)
			products.GET("/:id", middleware.OptionalAuth(), catalogHandler.GetProduct)

			protected := products.Group("")
			protected.Use(middleware.AuthRequired(), middleware.WriteRateLimit())
			{
				protected.POST("", catalogHandler.CreateProduct)
				protected.PUT("/:id", catalogHandler.UpdateProduct)
				protected.DELETE("/:id", middleware.AdminRequired(), catalogHandler.DeleteProduct)
			}
		}

		// Suppliers
		suppliers := v1.Group("/suppliers")
		suppliers.Use(middleware.AuthRequired())
		{
			suppliers.GET("", partnerHandler.GetSuppliers)
			suppliers.GET("/:id", partnerHandler.GetSupplier)
			suppliers.POST("", middleware.WriteRateLimit(), partnerHandler.CreateSupplier)
			suppliers.PUT("/:id", middleware.WriteRateLimit(), partnerHandler.UpdateSupplier)
			suppliers.DELETE("/:id", middleware.AdminRequired(), partnerHandler.DeleteSupplier)
		}

		// Customers
		customers := v1.Group("/customers")
		customers.Use(middleware.AuthRequired())
		{
			customers.GET("", partnerHandler.GetCustomers)
			customers.GET("/:id", partnerHandler.GetCustomer)
			customers.POST("", middleware.WriteRateLimit(), partnerHandler.CreateCustomer)
			customers.PUT("/:id", middleware.WriteRateLimit(), partnerHandler.UpdateCustomer)
			customers.DELETE("/:id", middleware.AdminRequired(), partnerHandler.DeleteCustomer)
		}

		// Purchases (stock inflow)
		purchases := v1.Group("/purchases")
		purchases.Use(middleware.AuthRequired())
		{
			purchases.GET("", purchaseHandler.GetPurchases)
			purchases.GET("/:id", purchaseHandler.GetPurchase)
			purchases.POST("", middleware.WriteRateLimit(), purchaseHandler.CreatePurchase)
			purchases.PUT("/:id", middleware.WriteRateLimit(), purchaseHandler.UpdatePurchase)
			purchases.POST("/:id/arrive", middleware.WriteRateLimit(), purchaseHandler.MarkArrived)
			purchases.DELETE("/:id", purchaseHandler.DeletePurchase)
		}

		// Orders (stock outflow)
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.GET("", orderHandler.GetOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.POST("", middleware.WriteRateLimit(), orderHandler.CreateOrder)
			orders.PUT("/:id", middleware.WriteRateLimit(), orderHandler.UpdateOrder)
			orders.POST("/:id/deliver", middleware.WriteRateLimit(), orderHandler.MarkDelivered)
			orders.DELETE("/:id", orderHandler.DeleteOrder)
		}

		// Stock ledger (read-only)
		stock := v1.Group("/stock")
		stock.Use(middleware.AuthRequired())
		{
			stock.GET("", stockHandler.GetStockLevels)
			stock.GET("/:productId", stockHandler.GetProductStock)
		}
	}

	return r
}
