package routes

import (
	"bookhaven/internal/adapters/http/handlers"
	"bookhaven/internal/adapters/http/middleware"
	"bookhaven/internal/adapters/persistence/repositories"
	"bookhaven/internal/config"
	"bookhaven/internal/core/services"
	"bookhaven/internal/pkg/jwt"
	"bookhaven/internal/pkg/rbac"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, rdb *redis.Client, issuer *jwt.Issuer, cfg *config.Config) *services.CleanupService {
	// Repositories
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	discountRepo := repositories.NewDiscountRepository(db)

	// Services
	sessionService := services.NewSessionService(sessionRepo, rdb)
	authService := services.NewAuthService(userRepo, sessionService, issuer)
	userService := services.NewUserService(userRepo, sessionService)
	orderService := services.NewOrderService(orderRepo, bookRepo, discountRepo)
	cleanupService := services.NewCleanupService(sessionService, cfg.Session.RetentionDays)

	// Handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	orderHandler := handlers.NewOrderHandler(orderService)
	staffOrderHandler := handlers.NewStaffOrderHandler(orderService)

	// The authentication gate, mounted per group. Public routes
	// (health, login, register, swagger) never pass through it.
	authGate := middleware.RequireAuth(cfg, issuer, sessionService)

	// Health & root
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	apiV1 := app.Group("/api/v1")

	// Auth routes
	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/register", middleware.AuthRateLimiter(), authHandler.Register)
	authRoutes.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	authRoutes.Post("/logout", authGate, authHandler.Logout)
	authRoutes.Post("/logout-all", authGate, authHandler.LogoutAll)
	authRoutes.Get("/me", authGate, authHandler.Me)

	// Member order routes
	orderRoutes := apiV1.Group("/orders")
	orderRoutes.Use(authGate)
	orderRoutes.Post("/", middleware.RequirePermission(rbac.OpPlaceOrder), orderHandler.Place)
	orderRoutes.Get("/my", middleware.RequirePermission(rbac.OpViewOwnOrders), orderHandler.ListMine)
	orderRoutes.Get("/my/:id", middleware.RequirePermission(rbac.OpViewOwnOrders), orderHandler.GetMine)
	orderRoutes.Put("/my/:id/cancel", middleware.RequirePermission(rbac.OpCancelOwnOrder), orderHandler.CancelMine)

	// Staff fulfillment routes
	staffRoutes := apiV1.Group("/staff/orders")
	staffRoutes.Use(authGate)
	staffRoutes.Get("/", middleware.RequirePermission(rbac.OpListAllOrders), staffOrderHandler.List)
	staffRoutes.Get("/:id", middleware.RequirePermission(rbac.OpListAllOrders), staffOrderHandler.Get)
	staffRoutes.Post("/:id/redeem",
		middleware.RedeemRateLimiter(),
		middleware.RequirePermission(rbac.OpRedeemOrder),
		staffOrderHandler.Redeem)
	staffRoutes.Put("/:id/status", middleware.RequirePermission(rbac.OpUpdateOrderStatus), staffOrderHandler.UpdateStatus)
	staffRoutes.Put("/:id/cancel", middleware.RequirePermission(rbac.OpCancelAnyOrder), staffOrderHandler.Cancel)

	// User administration routes (Admin only via manage_users)
	userRoutes := apiV1.Group("/users")
	userRoutes.Use(authGate)
	userRoutes.Use(middleware.RequirePermission(rbac.OpManageUsers))
	userRoutes.Get("/", userHandler.List)
	userRoutes.Get("/:id", userHandler.Get)
	userRoutes.Put("/:id/role", userHandler.SetRole)
	userRoutes.Delete("/:id", userHandler.Deactivate)

	return cleanupService
}
