package config

import (
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the variables Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_BACKEND", "REDIS_ADDR", "NOTIFIER", "LOG_LEVEL",
		"TOKEN_PRIVATE_KEY", "TOKEN_PUBLIC_KEY", "HISTORIAN_BATCH_SIZE", "HISTORIAN_FLUSH_MS", "RATE_LIMIT_RPS",
		"WS_ORIGIN_PATTERNS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, NotifierLocal, cfg.Notifier)
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
	assert.Equal(t, 500*time.Millisecond, cfg.FlushInterval())
	assert.Equal(t, "deckforge_journal", cfg.JournalQueueName)
	assert.False(t, cfg.JournalEnabled())
	assert.Empty(t, cfg.WSOriginPatterns)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("NOTIFIER", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("WS_ORIGIN_PATTERNS", "tools.example,*.tools.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.True(t, cfg.JournalEnabled())
	assert.Equal(t, []string{"tools.example", "*.tools.example"}, cfg.WSOriginPatterns)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"backend":        {"STORE_BACKEND": "sqlite"},
		"redis notifier": {"NOTIFIER": "redis"},
		"log level":      {"LOG_LEVEL": "loud"},
		"half key pair":  {"TOKEN_PRIVATE_KEY": "/tmp/key"},
		"batch size":     {"HISTORIAN_BATCH_SIZE": "0"},
		"not a number":   {"HISTORIAN_FLUSH_MS": "soon"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
