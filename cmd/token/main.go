// Command token prints a bearer token for a user id, for local testing
// against the API. It reads JWT_SECRET and JWT_TTL like the server does.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mikiasyonas/casino-rounds/internal/config"
	"github.com/mikiasyonas/casino-rounds/internal/logger"
	"github.com/mikiasyonas/casino-rounds/internal/services"
)

func main() {
	userID := flag.Int64("user", 1, "user id to issue the token for")
	flag.Parse()

	_ = godotenv.Load()
	logger.InitLogger()
	defer logger.Sync()

	// Only the JWT settings matter here.
	if os.Getenv("LEDGER_BACKEND") == "" {
		os.Setenv("LEDGER_BACKEND", config.LedgerMemory)
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	token, err := services.NewJWTService(cfg).GenerateToken(*userID)
	if err != nil {
		logger.Fatal("Failed to issue token", zap.Int64("user_id", *userID), zap.Error(err))
	}
	fmt.Println(token)
}
