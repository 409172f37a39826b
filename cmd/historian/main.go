// cmd/historian/main.go is an asynchronous historian service that pops journal records from a Redis queue and persists them to a PostgreSQL database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/deckforge/internal/cache"
	"github.com/jason-s-yu/deckforge/internal/config"
	"github.com/jason-s-yu/deckforge/internal/database"
	"github.com/jason-s-yu/deckforge/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	logger.SetLevel(cfg.Level())
	if !cfg.JournalEnabled() {
		logger.Fatal("REDIS_ADDR is required to read the journal")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.ConnectDB(ctx, database.ConnString(cfg.PostgresUser, cfg.PostgresPassword, cfg.PGHost, cfg.PGPort, cfg.PGDatabase))
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatalf("database: %v", err)
	}

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	h := historian.New(
		cache.NewJournal(rdb, cfg.JournalQueueName),
		database.NewEventLog(pool),
		logger,
		cfg.HistorianBatchSize,
		cfg.FlushInterval(),
	)

	logger.WithField("queue", cfg.JournalQueueName).Info("deckforge-historian service started.")
	if err := h.Run(ctx); err != nil {
		logger.Errorf("historian exited: %v", err)
	}
	logger.Info("deckforge-historian shut down.")
}
