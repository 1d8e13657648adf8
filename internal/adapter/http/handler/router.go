package handler

import (
	"invest-ledger/internal/adapter/http/middleware"
	redisStore "invest-ledger/internal/adapter/storage/redis"
	"invest-ledger/internal/core/domain"
	"invest-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	ReconcileSvc   ports.ReconcileService
	WalletSvc      ports.WalletService
	InvestSvc      ports.InvestmentService
	TokenSvc       ports.TokenService
	GatewayClients []ports.GatewayClient
	TxRepo         ports.TransactionRepository
	PortfolioRepo  ports.PortfolioRepository
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// --- Webhook routes (signature-authenticated, no JWT) ---
	webhookHandler := NewWebhookHandler(deps.GatewayClients, deps.ReconcileSvc, deps.Logger)
	webhooks := r.Group("/webhooks", rl("webhooks"))
	{
		webhooks.POST("/paystack", webhookHandler.Handle(domain.PlatformPaystack))
		webhooks.POST("/flutterwave", webhookHandler.Handle(domain.PlatformFlutterwave))
		webhooks.POST("/mono", webhookHandler.Handle(domain.PlatformMono))
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	v1 := r.Group("/api/v1")

	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.GET("/balance", rl("wallet"), walletHandler.GetBalance)
		wallets.POST("/debit", rl("wallet"), walletHandler.Debit)
	}

	transactionHandler := NewTransactionHandler(deps.TxRepo)
	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.GET("", rl("transactions"), transactionHandler.List)
		transactions.GET("/:id", rl("transactions"), transactionHandler.GetByID)
	}

	portfolioHandler := NewPortfolioHandler(deps.InvestSvc, deps.PortfolioRepo)
	portfolios := v1.Group("/portfolios", jwtAuth)
	{
		portfolios.POST("", rl("investments"), portfolioHandler.Create)
		portfolios.GET("", rl("investments"), portfolioHandler.List)
		portfolios.POST("/:id/topup", rl("investments"), portfolioHandler.TopUp)
		portfolios.PATCH("/:id/pause", rl("investments"), portfolioHandler.Pause)
		portfolios.PATCH("/:id/resume", rl("investments"), portfolioHandler.Resume)
	}

	return r
}
