// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/deckforge/internal/auth"
	"github.com/jason-s-yu/deckforge/internal/cache"
	"github.com/jason-s-yu/deckforge/internal/campaign"
	"github.com/jason-s-yu/deckforge/internal/config"
	"github.com/jason-s-yu/deckforge/internal/database"
	"github.com/jason-s-yu/deckforge/internal/handlers"
	"github.com/jason-s-yu/deckforge/internal/middleware"
	"github.com/jason-s-yu/deckforge/internal/store"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	logger.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
	logger.Info("server stopped")
}

func loadKeys(cfg *config.Config) (*auth.Keys, error) {
	expire, err := auth.ParseExpireTime(cfg.TokenExpireTime)
	if err != nil {
		return nil, err
	}
	if cfg.TokenKeyPath != "" {
		return auth.LoadKeys(cfg.TokenKeyPath, cfg.TokenPubKeyPath, expire)
	}
	return auth.NewKeys(expire)
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	keys, err := loadKeys(cfg)
	if err != nil {
		return err
	}
	if cfg.TokenKeyPath == "" {
		logger.Warn("using ephemeral signing keys; access tokens will not survive a restart")
	}

	var st store.Store = store.NewMemory()
	var notifier store.Notifier = store.NewBroker()
	svcOpts := []campaign.Option{campaign.WithLogger(logger)}
	var serverOpts []handlers.ServerOption

	if cfg.StoreBackend == config.BackendPostgres {
		pool, err := database.ConnectDB(ctx, database.ConnString(cfg.PostgresUser, cfg.PostgresPassword, cfg.PGHost, cfg.PGPort, cfg.PGDatabase))
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		st = database.NewCampaignStore(pool)
		serverOpts = append(serverOpts, handlers.WithEvents(database.NewEventLog(pool)))
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		svcOpts = append(svcOpts, campaign.WithJournal(cache.NewJournal(rdb, cfg.JournalQueueName)))
		logger.WithField("queue", cfg.JournalQueueName).Info("journaling mutations to Redis")
	}
	if cfg.Notifier == config.NotifierRedis {
		notifier = cache.NewNotifier(rdb)
	}

	svc := campaign.NewService(st, notifier, svcOpts...)
	serverOpts = append(serverOpts, handlers.WithRateLimiter(
		middleware.NewRateLimiter(logger, cfg.RateLimitRPS, cfg.RateLimitBurst),
	))
	if len(cfg.WSOriginPatterns) > 0 {
		serverOpts = append(serverOpts, handlers.WithOriginPatterns(cfg.WSOriginPatterns...))
	}
	api := handlers.NewAPIServer(svc, keys, logger, serverOpts...)

	// Websocket handlers outlive Shutdown, so requests are tied to ctx.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithFields(logrus.Fields{
			"addr":     srv.Addr,
			"store":    cfg.StoreBackend,
			"notifier": cfg.Notifier,
		}).Info("Running")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
