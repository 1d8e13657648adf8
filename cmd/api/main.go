package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invest-ledger/config"
	"invest-ledger/internal/adapter/gateway"
	httpHandler "invest-ledger/internal/adapter/http/handler"
	pgStorage "invest-ledger/internal/adapter/storage/postgres"
	redisStorage "invest-ledger/internal/adapter/storage/redis"
	"invest-ledger/internal/core/ports"
	"invest-ledger/internal/service"
	"invest-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Invest Ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	refRepo := pgStorage.NewTransactionRefRepo(pool)
	receiptRepo := pgStorage.NewWebhookReceiptRepo(pool)
	listingRepo := pgStorage.NewListingRepo(pool)
	portfolioRepo := pgStorage.NewPortfolioRepo(pool)
	investmentRepo := pgStorage.NewInvestmentRepo(pool)
	userRepo := pgStorage.NewUserRepo(pool)
	cardRepo := pgStorage.NewCardRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	dedupStore := redisStorage.NewWebhookDedupStore(rdb)
	notifier := redisStorage.NewNotificationQueue(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize gateway clients
	gatewayClients := []ports.GatewayClient{
		gateway.NewPaystackClient(cfg.Gateways.Paystack, cfg.Gateways.VerifyTimeout, log),
		gateway.NewFlutterwaveClient(cfg.Gateways.Flutterwave, cfg.Gateways.VerifyTimeout, log),
		gateway.NewMonoClient(cfg.Gateways.Mono, cfg.Gateways.VerifyTimeout, log),
	}

	// Initialize core services
	recorder := service.NewTransactionRecorder(txRepo, refRepo)
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	walletSvc := service.NewWalletService(accountRepo, userRepo, recorder, transactor, log)
	referralSvc, err := service.NewReferralService(userRepo, accountRepo, recorder, cfg.Referral.BonusPercent, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize referral service")
	}
	investSvc := service.NewInvestmentService(
		listingRepo,
		portfolioRepo,
		investmentRepo,
		userRepo,
		walletSvc,
		referralSvc,
		recorder,
		transactor,
		notifier,
		log,
	)
	reconcileSvc := service.NewReconcileService(
		gatewayClients,
		dedupStore,
		receiptRepo,
		txRepo,
		refRepo,
		userRepo,
		cardRepo,
		walletSvc,
		investSvc,
		transactor,
		notifier,
		log,
	)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		ReconcileSvc:   reconcileSvc,
		WalletSvc:      walletSvc,
		InvestSvc:      investSvc,
		TokenSvc:       tokenSvc,
		GatewayClients: gatewayClients,
		TxRepo:         txRepo,
		PortfolioRepo:  portfolioRepo,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
