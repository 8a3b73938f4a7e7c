package handler

import (
	"time"

	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc          ports.AuthService
	LedgerSvc        ports.LedgerService
	TokenSvc         ports.TokenService
	IdempotencyCache ports.IdempotencyCache // nil = idempotent replay disabled
	IdempotencyTTL   time.Duration
	HealthCheckers   []ports.HealthChecker
	Logger           zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Idempotent replay for mutating routes, driven by the Idempotency-Key
	// header. Noop when no cache is wired.
	idem := func(c *gin.Context) { c.Next() }
	if deps.IdempotencyCache != nil {
		idem = middleware.Idempotency(deps.IdempotencyCache, deps.IdempotencyTTL, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	walletHandler := NewWalletHandler(deps.LedgerSvc)
	transactionHandler := NewTransactionHandler(deps.LedgerSvc)

	wallet := v1.Group("/wallet", jwtAuth)
	{
		wallet.GET("/balance", walletHandler.GetBalance)
		wallet.POST("/deposit", idem, walletHandler.Deposit)
		wallet.POST("/transfer", idem, walletHandler.Transfer)
	}

	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.GET("", transactionHandler.List)
		transactions.GET("/:id", transactionHandler.Get)
		transactions.POST("/:id/reverse", idem, transactionHandler.Reverse)
	}

	users := v1.Group("/users", jwtAuth)
	{
		users.DELETE("/me", authHandler.DeleteMe)
	}

	return r
}
