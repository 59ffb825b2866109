package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smartgadgets-system/config"
	authhandler "smartgadgets-system/internal/auth/handler"
	cataloghandler "smartgadgets-system/internal/catalog/handler"
	customerhandler "smartgadgets-system/internal/customers/handler"
	"smartgadgets-system/internal/database"
	"smartgadgets-system/internal/database/models"
	"smartgadgets-system/internal/gateway/handlers"
	"smartgadgets-system/internal/gateway/middleware"
	orderhandler "smartgadgets-system/internal/orders/handler"
)

func main() {
	cfg := config.LoadConfig()

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	jwtSecret := []byte(cfg.Auth.JWTSecret)

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)

	authService := authhandler.NewAuthHandler(db, jwtSecret)
	productService := cataloghandler.NewProductHandler(db, redisClient)
	categoryService := cataloghandler.NewCategoryHandler(db, redisClient)
	customerService := customerhandler.NewCustomerHandler(db)
	orderService := orderhandler.NewOrderHandler(db, redisClient)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}
	cancel()

	authHandler := handlers.NewAuthHTTPHandler(authService)
	productHandler := handlers.NewProductHTTPHandler(productService)
	categoryHandler := handlers.NewCategoryHTTPHandler(categoryService)
	customerHandler := handlers.NewCustomerHTTPHandler(customerService)
	orderHandler := handlers.NewOrderHTTPHandler(orderService, jwtSecret)

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit("120-M"))

	// --- Public API Group ---
	public := r.Group("/api")
	{
		public.POST("/auth/login", authHandler.Login)

		public.GET("/products", productHandler.ListProducts)
		public.GET("/products/slug/:slug", productHandler.GetProductBySlug)
		public.GET("/products/:id", productHandler.GetProduct)

		public.GET("/categories", categoryHandler.ListCategories)
		public.GET("/categories/slug/:slug", categoryHandler.GetCategoryBySlug)
		public.GET("/categories/:id", categoryHandler.GetCategory)

		// Order creation is the storefront checkout; listing enforces
		// its own admin-or-order-number rule.
		public.POST("/orders", orderHandler.CreateOrder)
		public.GET("/orders", orderHandler.ListOrders)
	}

	// --- Admin API Group ---
	admin := r.Group("/api")
	admin.Use(middleware.JWTAuth(jwtSecret))
	{
		admin.POST("/products", productHandler.CreateProduct)
		admin.PUT("/products/:id", productHandler.UpdateProduct)
		admin.DELETE("/products/:id", productHandler.DeleteProduct)
		admin.PUT("/products/:id/stock", productHandler.UpdateStock)
		admin.GET("/products/low-stock", productHandler.ListLowStock)

		admin.POST("/categories", categoryHandler.CreateCategory)
		admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
		admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)

		admin.GET("/customers", customerHandler.ListCustomers)
		admin.GET("/customers/:id", customerHandler.GetCustomer)
		admin.POST("/customers", customerHandler.CreateCustomer)
		admin.PUT("/customers/:id", customerHandler.UpdateCustomer)

		admin.GET("/orders/stats", orderHandler.GetOrderStats)
		admin.GET("/orders/:id", orderHandler.GetOrder)
		admin.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)
		admin.PUT("/orders/:id/payment", orderHandler.UpdatePaymentStatus)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	addr := ":" + cfg.Server.Port
	log.Printf("Starting server on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
