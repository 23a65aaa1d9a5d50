package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookhaven/internal/adapters/http/middleware"
	"bookhaven/internal/adapters/http/routes"
	"bookhaven/internal/adapters/persistence/models"
	"bookhaven/internal/config"
	"bookhaven/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// @title Bookhaven API
// @version 1.0
// @description Online bookstore backend: accounts, orders, and claim-code fulfillment.

// @host api.bookhaven.io
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Token issuer; a missing secret is fatal here, not per-request
	issuer, err := jwt.NewIssuer(
		cfg.JWT.Secret,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		time.Duration(cfg.JWT.ExpiryHours)*time.Hour,
	)
	if err != nil {
		log.Fatalf("❌ Failed to configure token issuer: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed dev data
	if err := config.NewSeeder(db).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	// Optional session liveness cache
	rdb, err := config.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to redis: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Bookhaven API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes; session cleanup job comes back wired
	cleanup := routes.Setup(app, db, rdb, issuer, cfg)
	cleanup.Start()
	defer cleanup.Stop()

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
