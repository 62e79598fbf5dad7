package router

import (
	"time"

	"stocksync/internal/config"
	"stocksync/internal/handler"
	"stocksync/internal/infra"
	"stocksync/internal/middleware"
	"stocksync/internal/model"
	"stocksync/internal/realtime"
	"stocksync/internal/repository"
	"stocksync/internal/service"
	"stocksync/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// Realtime events flow Service → Router → Dispatcher (outbox) → delivery pool.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, hub *realtime.Hub, deliveryCB *infra.CircuitBreaker) *gin.Engine {
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

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)

	// ── Realtime outbox ──────────────────────────────────────────────────────
	// Services never publish inline: they hand envelopes to the dispatcher,
	// the delivery pool fans them out to room channels.
	dispatcher := worker.NewDispatcher(rdb)
	fanout := realtime.NewRouter(dispatcher)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	saleSvc := service.NewSaleService(saleRepo, productRepo, movementRepo, userRepo, fanout)
	stockSvc := service.NewStockService(productRepo, movementRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	stockH := handler.NewStockHandler(stockSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, deliveryCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Websocket — auth handled inside the upgrade (token query param or header)
	r.GET("/ws", handler.Websocket(hub, saleSvc, cfg.JWTSecret))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Sales lifecycle — employees create, admins resolve
		v1.POST("/sales", middleware.RequireRole(model.RoleEmployee, model.RoleAdmin), salesH.Create)
		v1.GET("/sales", middleware.RequireRole(model.RoleEmployee, model.RoleAdmin), salesH.List)
		v1.GET("/sales/pending-count", middleware.RequireRole(model.RoleEmployee, model.RoleAdmin), salesH.PendingCount)
		v1.POST("/sales/:id/approve", middleware.RequireRole(model.RoleAdmin), salesH.Approve)
		v1.POST("/sales/:id/reject", middleware.RequireRole(model.RoleAdmin), salesH.Reject)
		v1.POST("/sales/bulk-approve", middleware.RequireRole(model.RoleAdmin), salesH.BulkApprove)

		// Stock — adjustments are admin-only, the audit trail is readable by all
		v1.PATCH("/products/:id/stock", middleware.RequireRole(model.RoleAdmin), stockH.Adjust)
		v1.GET("/stock/movements", middleware.RequireRole(model.RoleEmployee, model.RoleAdmin), stockH.Movements)
		v1.GET("/stock/alerts", middleware.RequireRole(model.RoleEmployee, model.RoleAdmin), stockH.Alerts)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
