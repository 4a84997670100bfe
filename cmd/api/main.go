package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mikiasyonas/casino-rounds/internal/config"
	"github.com/mikiasyonas/casino-rounds/internal/handlers"
	"github.com/mikiasyonas/casino-rounds/internal/ledger"
	"github.com/mikiasyonas/casino-rounds/internal/logger"
	"github.com/mikiasyonas/casino-rounds/internal/middleware"
	"github.com/mikiasyonas/casino-rounds/internal/models"
	"github.com/mikiasyonas/casino-rounds/internal/services"
)

func main() {
	envErr := godotenv.Load()

	logger.InitLogger()
	defer logger.Sync()

	if envErr != nil {
		logger.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisService.Close()

	store, err := openLedger(ctx, cfg, redisService)
	if err != nil {
		logger.Fatal("Failed to open ledger", zap.String("backend", cfg.LedgerBackend), zap.Error(err))
	}
	defer store.Close()

	jwtService := services.NewJWTService(cfg)

	hub := handlers.NewWebSocketHub()
	go hub.Run(ctx)

	locks := services.NewUserLocks()
	balances := services.NewBalanceSynchronizer(store)
	blackjack := services.NewBlackjackEngine(balances, locks, services.WithBroadcaster(hub))
	roulette := services.NewRouletteService(balances, locks, blackjack, services.WithBroadcaster(hub))
	slots := services.NewSlotService(balances, locks, blackjack, services.WithBroadcaster(hub))
	wallet := services.NewWalletService(balances, locks, blackjack, services.WithBroadcaster(hub))

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := blackjack.CleanupStaleTables(cfg.TableIdleTTL); n > 0 {
					logger.Info("evicted idle blackjack tables", zap.Int("removed", n), zap.Int("open", blackjack.Tables()))
				}
			}
		}
	}()

	userHandler := handlers.NewUserHandler(wallet, blackjack)
	blackjackHandler := handlers.NewBlackjackHandler(blackjack)
	gameHandler := handlers.NewGameHandler(roulette, slots, wallet)
	walletHandler := handlers.NewWalletHandler(wallet)
	wsHandler := handlers.NewWebSocketHandler(hub, wallet)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		if err := redisService.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ledger": cfg.LedgerBackend})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rounds := middleware.RateLimitMiddleware(redisService, "rounds", cfg.RoundsPerMinute, time.Minute)
	walletWrites := middleware.RateLimitMiddleware(redisService, "wallet", services.DefaultRateLimitWallet, services.DefaultRateLimitWindow)

	protected := router.Group("/api")
	protected.Use(
		middleware.AuthMiddleware(jwtService),
		middleware.RateLimitMiddleware(redisService, "requests", services.DefaultRateLimitRequests, services.DefaultRateLimitWindow),
	)
	{
		protected.GET("/me", userHandler.GetCurrentUser)
		protected.GET("/ws", wsHandler.HandleWebSocket)

		bj := protected.Group("/blackjack")
		{
			bj.GET("/state", blackjackHandler.GetState)
			bj.POST("/bet", blackjackHandler.PlaceBet)
			bj.POST("/clear_bet", blackjackHandler.Action(models.ActionClearBet))
			bj.POST("/deal", rounds, blackjackHandler.Action(models.ActionDeal))
			bj.POST("/hit", blackjackHandler.Action(models.ActionHit))
			bj.POST("/stand", blackjackHandler.Action(models.ActionStand))
			bj.POST("/double", blackjackHandler.Action(models.ActionDouble))
			bj.POST("/new_round", blackjackHandler.Action(models.ActionNewRound))
		}

		protected.POST("/roulette/spin", rounds, gameHandler.SpinRoulette)
		protected.POST("/slots/spin", rounds, gameHandler.SpinSlots)
		protected.GET("/games/history", gameHandler.GetGameHistory)

		w := protected.Group("/wallet")
		{
			w.GET("/balance", walletHandler.GetBalance)
			w.POST("/deposit", walletWrites, walletHandler.Deposit)
			w.POST("/withdraw", walletWrites, walletHandler.Withdraw)
			w.GET("/transactions", walletHandler.GetTransactions)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Port), zap.String("ledger", cfg.LedgerBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func openLedger(ctx context.Context, cfg *config.Config, redisService *services.RedisService) (ledger.Store, error) {
	switch cfg.LedgerBackend {
	case config.LedgerRedis:
		return ledger.NewRedisStore(redisService.Client()), nil
	case config.LedgerMemory:
		logger.Warn("Using the in-memory ledger, balances are lost on restart")
		return ledger.NewMemoryStore(), nil
	default:
		store, err := ledger.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.LedgerMigrate {
			if err := store.Migrate(ctx); err != nil {
				store.Close()
				return nil, err
			}
		}
		return store, nil
	}
}
