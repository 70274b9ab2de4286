package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/qwinza/tani-web/config"
	"github.com/qwinza/tani-web/handlers"
	"github.com/qwinza/tani-web/internal/checkout"
	"github.com/qwinza/tani-web/internal/payment"
	"github.com/qwinza/tani-web/metrics"
	"github.com/qwinza/tani-web/middleware"
	"github.com/qwinza/tani-web/models"
	"github.com/qwinza/tani-web/utils"
)

func main() {
	cfg := config.LoadConfig()

	db, err := config.ConnectDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "reset" {
		if err := config.ResetAndMigrate(db); err != nil {
			log.Fatal("Failed to reset database:", err)
		}
	} else if err := config.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "Tani Web",
		ServerHeader: "Tani Web Server/1.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Default 500 statuscode
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			// Retrieve the custom statuscode if it's a *fiber.Error
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			}

			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": msg,
			})
		},
	})

	middleware.SetupMiddleware(app)

	// Core services
	engine := checkout.NewEngine(checkout.NewGormStore(db))
	paymentSvc := payment.NewService(cfg.Midtrans,
		payment.NewHTTPSnapClient(cfg.Midtrans),
		payment.NewGormOrderStore(db))

	// Handlers
	authHandler := handlers.NewAuthHandler(db)
	productHandler := handlers.NewProductHandler(db)
	categoryHandler := handlers.NewCategoryHandler(db)
	orderHandler := handlers.NewOrderHandler(db, engine)
	paymentHandler := handlers.NewPaymentHandler(db, engine, paymentSvc)
	adminHandler := handlers.NewAdminHandler(db)
	uploadHandler := handlers.NewUploadHandler()

	// Health Check Endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "success",
			"message": "API is healthy",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.MetricsHandler()))

	// Static uploads (product images, shipping proofs)
	app.Static("/uploads", "./uploads")

	api := app.Group("/api")

	// Public routes
	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)
	api.Get("/farmers", authHandler.PublicFarmers)
	api.Post("/payment/callback", paymentHandler.Callback)

	// Authenticated routes
	requireBuyer := utils.RequireRole(models.RoleBuyer)
	requireFarmer := utils.RequireRole(models.RoleFarmer)

	api.Get("/user", utils.AuthMiddleware, authHandler.Me)
	api.Put("/user", utils.AuthMiddleware, authHandler.UpdateProfile)
	api.Get("/categories", utils.AuthMiddleware, categoryHandler.GetCategories)
	api.Get("/announcements/latest", utils.AuthMiddleware, adminHandler.LatestAnnouncements)
	api.Get("/products/:id", utils.AuthMiddleware, productHandler.GetProduct)
	api.Get("/orders/:id", utils.AuthMiddleware, orderHandler.GetOrder)

	// Buyer routes
	api.Get("/products", utils.AuthMiddleware, requireBuyer, productHandler.GetAllProducts)
	api.Get("/orders", utils.AuthMiddleware, requireBuyer, orderHandler.MyOrders)
	api.Post("/orders", utils.AuthMiddleware, requireBuyer, orderHandler.Checkout)
	api.Post("/orders/:id/complete", utils.AuthMiddleware, requireBuyer, orderHandler.Complete)
	api.Post("/payment/checkout", utils.AuthMiddleware, requireBuyer, paymentHandler.Checkout)

	// Farmer routes
	api.Get("/my-products", utils.AuthMiddleware, requireFarmer, productHandler.GetMyProducts)
	api.Post("/products", utils.AuthMiddleware, requireFarmer, productHandler.CreateProduct)
	api.Put("/products/:id", utils.AuthMiddleware, requireFarmer, productHandler.UpdateProduct)
	api.Delete("/products/:id", utils.AuthMiddleware, requireFarmer, productHandler.DeleteProduct)
	api.Post("/upload", utils.AuthMiddleware, requireFarmer, uploadHandler.UploadImage)
	api.Get("/farmer/orders", utils.AuthMiddleware, requireFarmer, orderHandler.FarmerOrders)
	api.Patch("/orders/:id/status", utils.AuthMiddleware, requireFarmer, orderHandler.UpdateStatus)
	api.Post("/orders/:id/approve", utils.AuthMiddleware, requireFarmer, orderHandler.Approve)
	api.Post("/orders/:id/ship", utils.AuthMiddleware, requireFarmer, orderHandler.Ship)

	// Admin routes
	admin := api.Group("/admin", utils.AuthMiddleware, utils.RequireRole(models.RoleAdmin))
	admin.Get("/stats", adminHandler.GetStats)
	admin.Get("/users", adminHandler.GetUsers)
	admin.Patch("/users/:id/toggle", adminHandler.ToggleUserStatus)
	admin.Patch("/users/:id/verify", adminHandler.VerifyFarmer)
	admin.Get("/categories", categoryHandler.GetCategories)
	admin.Post("/categories", categoryHandler.CreateCategory)
	admin.Delete("/categories/:id", categoryHandler.DeleteCategory)
	admin.Get("/orders", adminHandler.GetOrders)
	admin.Get("/announcements", adminHandler.GetAnnouncements)
	admin.Post("/announcements", adminHandler.CreateAnnouncement)

	middleware.SetupErrorHandler(app)

	log.Printf("🚀 Server starting on host %s in port %s mode", cfg.Host, cfg.AppPort)

	if err := app.Listen(cfg.Host + ":" + cfg.AppPort); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
