package config

import (
	"testing"
	"time"

	"github.com/jason-s-yu/modernart/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 24*time.Hour, cfg.GameTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.HistorianFlushDelay())

	rules, err := cfg.Rules()
	require.NoError(t, err)
	assert.Equal(t, game.DefaultRules(), rules)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("AUCTION_TIMEOUT", "45s")
	t.Setenv("MAX_ROUNDS", "2")
	t.Setenv("ROUND_END_THRESHOLD", "4")
	t.Setenv("PUBLISH_ACTIONS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 45*time.Second, cfg.AuctionTimeout)
	assert.True(t, cfg.PublishActions)
	assert.False(t, cfg.ArchiveResults)

	rules, err := cfg.Rules()
	require.NoError(t, err)
	assert.Equal(t, 2, rules.MaxRounds)
	assert.Equal(t, 4, rules.RoundEndThreshold)
	assert.Equal(t, 10, rules.CardsPerPlayer)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "sqlite")
	_, err := Load()
	assert.Error(t, err)
}

func TestRulesRejectsInvalidOverride(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("MAX_ROUNDS", "0")
	cfg, err := Load()
	require.NoError(t, err)
	_, err = cfg.Rules()
	assert.Error(t, err)
}

func TestPostgresURL(t *testing.T) {
	cfg := &Config{PostgresUser: "u", PostgresPassword: "p", PGHost: "db", PGPort: "5433", PGDatabase: "art"}
	assert.Equal(t, "postgres://u:p@db:5433/art", cfg.PostgresURL())
	cfg.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", cfg.PostgresURL())
}
