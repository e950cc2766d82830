package router

import (
	"time"

	"github.com/castaxyz/vetcare-stable/internal/config"
	"github.com/castaxyz/vetcare-stable/internal/handler"
	"github.com/castaxyz/vetcare-stable/internal/infra"
	"github.com/castaxyz/vetcare-stable/internal/middleware"
	"github.com/castaxyz/vetcare-stable/internal/repository"
	"github.com/castaxyz/vetcare-stable/internal/service"
	"github.com/castaxyz/vetcare-stable/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	locker := infra.NewRedisCalendarLocker(rdb, time.Duration(cfg.BookingLockTTLSeconds)*time.Second)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	petRepo := repository.NewPetRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	stockRepo := repository.NewStockRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	clientSvc := service.NewClientService(clientRepo)
	petSvc := service.NewPetService(petRepo, clientRepo)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, petRepo, userRepo, clientRepo, locker, dispatcher, cfg)
	categorySvc := service.NewCategoryService(categoryRepo)
	productSvc := service.NewProductService(productRepo, categoryRepo)
	inventorySvc := service.NewInventoryService(stockRepo, productRepo)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, clientRepo, productRepo, appointmentRepo, inventorySvc, dispatcher, cfg)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	clientsH := handler.NewClientsHandler(clientSvc, invoiceSvc)
	petsH := handler.NewPetsHandler(petSvc, appointmentSvc)
	appointmentsH := handler.NewAppointmentsHandler(appointmentSvc)
	productsH := handler.NewProductsHandler(productSvc)
	categoriesH := handler.NewCategoriesHandler(categorySvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)
	invoicesH := handler.NewInvoicesHandler(invoiceSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: receptionist, veterinarian, admin — declared per-group
		staff := middleware.RequireRole("receptionist", "veterinarian", "admin")

		clients := v1.Group("/clients", staff)
		{
			clients.POST("", clientsH.Create)
			clients.GET("", clientsH.List)
			clients.GET("/:id", clientsH.Get)
			clients.PUT("/:id", clientsH.Update)
			clients.DELETE("/:id", clientsH.Deactivate)
			clients.GET("/:id/invoices", clientsH.Invoices)
		}

		pets := v1.Group("/pets", staff)
		{
			pets.POST("", petsH.Create)
			pets.GET("", petsH.List)
			pets.GET("/:id", petsH.Get)
			pets.PUT("/:id", petsH.Update)
			pets.DELETE("/:id", petsH.Deactivate)
			pets.GET("/:id/appointments", petsH.Appointments)
		}

		appts := v1.Group("/appointments", staff)
		{
			appts.POST("", appointmentsH.Schedule)
			appts.GET("", appointmentsH.List)
			appts.GET("/availability", appointmentsH.Availability)
			appts.GET("/schedule/daily", appointmentsH.DailySchedule)
			appts.GET("/:id", appointmentsH.Get)
			appts.PUT("/:id", appointmentsH.Update)
			appts.POST("/:id/confirm", appointmentsH.Confirm)
			appts.POST("/:id/start", appointmentsH.Start)
			appts.POST("/:id/complete", appointmentsH.Complete)
			appts.POST("/:id/cancel", appointmentsH.Cancel)
			appts.POST("/:id/no-show", appointmentsH.MarkNoShow)
		}

		// Inventory — stock mutations restricted to veterinarian/admin,
		// reads open to all staff
		v1.GET("/inventory/products/:id/stock", staff, inventoryH.ProductStock)
		v1.GET("/inventory/movements", staff, inventoryH.Movements)
		v1.GET("/inventory/alerts/low-stock", staff, inventoryH.LowStockAlerts)
		v1.GET("/inventory/alerts/expiration", staff, inventoryH.ExpirationAlerts)
		inv := v1.Group("/inventory", middleware.RequireRole("veterinarian", "admin"))
		{
			inv.POST("/receive", inventoryH.Receive)
			inv.POST("/consume", inventoryH.Consume)
			inv.POST("/reserve", inventoryH.Reserve)
			inv.POST("/release", inventoryH.Release)
			inv.POST("/adjust", inventoryH.Adjust)
		}

		// Products — all staff can read, admin writes
		v1.GET("/products", staff, productsH.List)
		v1.GET("/products/:id", staff, productsH.Get)
		prods := v1.Group("/products", middleware.RequireRole("admin"))
		{
			prods.POST("", productsH.Create)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Deactivate)
		}

		v1.GET("/categories", staff, categoriesH.List)
		categories := v1.Group("/categories", middleware.RequireRole("admin"))
		{
			categories.POST("", categoriesH.Create)
			categories.PUT("/:id", categoriesH.Update)
			categories.DELETE("/:id", categoriesH.Deactivate)
		}

		invoices := v1.Group("/invoices", staff)
		{
			invoices.POST("", invoicesH.Create)
			invoices.GET("/overdue", invoicesH.Overdue)
			invoices.GET("/reports/revenue", invoicesH.RevenueReport)
			invoices.GET("/:id", invoicesH.Get)
			invoices.POST("/:id/items", invoicesH.AddItem)
			invoices.PATCH("/:id/status", invoicesH.UpdateStatus)
			invoices.GET("/:id/pdf", invoicesH.DownloadPDF)
		}

		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}

		// Veterinarian directory — any staff member can look up who practices
		v1.GET("/veterinarians", staff, usersH.ListVeterinarians)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
