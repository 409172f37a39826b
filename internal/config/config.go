// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"

	NotifierLocal = "local"
	NotifierRedis = "redis"
)

// Config holds every setting of the server and the historian.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	StoreBackend     string `env:"STORE_BACKEND" envDefault:"memory"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PGHost           string `env:"PG_HOST" envDefault:"localhost"`
	PGPort           string `env:"PG_PORT" envDefault:"5432"`
	PGDatabase       string `env:"PG_DATABASE" envDefault:"deckforge"`

	RedisAddr        string `env:"REDIS_ADDR"`
	RedisDB          int    `env:"REDIS_DB" envDefault:"0"`
	Notifier         string `env:"NOTIFIER" envDefault:"local"`
	JournalQueueName string `env:"JOURNAL_QUEUE_NAME" envDefault:"deckforge_journal"`

	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	TokenExpireTime string `env:"TOKEN_EXPIRE_TIME" envDefault:"never"`
	TokenKeyPath    string `env:"TOKEN_PRIVATE_KEY"`
	TokenPubKeyPath string `env:"TOKEN_PUBLIC_KEY"`

	// Host patterns of cross-origin pages allowed to open the websocket.
	// Same-origin connections are always accepted.
	WSOriginPatterns []string `env:"WS_ORIGIN_PATTERNS" envSeparator:","`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	HistorianBatchSize int `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	HistorianFlushMs   int `env:"HISTORIAN_FLUSH_MS" envDefault:"500"`
}

// Load parses the environment into a Config and checks it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.Notifier {
	case NotifierLocal:
	case NotifierRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("NOTIFIER=redis needs REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown NOTIFIER %q", c.Notifier)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if (c.TokenKeyPath == "") != (c.TokenPubKeyPath == "") {
		return fmt.Errorf("TOKEN_PRIVATE_KEY and TOKEN_PUBLIC_KEY must be set together")
	}
	if c.HistorianBatchSize < 1 {
		return fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive")
	}
	if c.HistorianFlushMs < 1 {
		return fmt.Errorf("HISTORIAN_FLUSH_MS must be positive")
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Level returns the parsed LOG_LEVEL. Load has already validated it.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.HistorianFlushMs) * time.Millisecond
}

// JournalEnabled reports whether mutations are queued for the historian.
func (c *Config) JournalEnabled() bool {
	return c.RedisAddr != ""
}
