package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paper-trading-go/internal/api"
	"paper-trading-go/internal/config"
	"paper-trading-go/internal/database"
	"paper-trading-go/internal/ledger"
	"paper-trading-go/internal/logger"
	"paper-trading-go/internal/market"
	"paper-trading-go/internal/store"

	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Initialize market data provider
	marketData, err := market.New(&cfg.Market, log.Named("market"))
	if err != nil {
		log.Fatal("Failed to initialize market data provider", zap.Error(err))
	}
	log.Info("Market data provider ready", zap.String("provider", cfg.Market.Provider))

	// Wire the ledger engine with its collaborators
	engine := ledger.NewEngine(log.Named("ledger"), &cfg, marketData, store.New(db))

	// Start the HTTP API
	server := api.NewServer(cfg.Server.Port, api.NewHandler(log.Named("api"), engine), log)
	server.Start()

	// Wait for shutdown signal
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	<-sigchan
	log.Info("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server cleanly", zap.Error(err))
	}

	log.Info("Server has been shut down.")
}
