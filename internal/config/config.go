// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/jason-s-yu/modernart/internal/game"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

// Config is read from the environment (and a .env file, if present).
// Each field is bound to the upper-cased form of its mapstructure key.
type Config struct {
	Port         string `mapstructure:"port"`
	LogLevel     string `mapstructure:"log_level"`
	StoreBackend string `mapstructure:"store_backend"`

	DatabaseURL      string `mapstructure:"database_url"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PGHost           string `mapstructure:"pg_host"`
	PGPort           string `mapstructure:"pg_port"`
	PGDatabase       string `mapstructure:"pg_database"`

	RedisAddr      string        `mapstructure:"redis_addr"`
	RedisDB        int           `mapstructure:"redis_db"`
	RedisKeyPrefix string        `mapstructure:"redis_key_prefix"`
	GameTTL        time.Duration `mapstructure:"game_ttl"`

	HistorianQueueName     string `mapstructure:"historian_queue_name"`
	HistorianBatchSize     int    `mapstructure:"historian_batch_size"`
	HistorianFlushMs       int    `mapstructure:"historian_flush_ms"`
	GameInactivityTimeoutS int    `mapstructure:"game_inactivity_timeout_sec"`

	// PublishActions pushes every committed command onto the historian queue.
	PublishActions bool `mapstructure:"publish_actions"`
	// ArchiveResults writes final standings of finished games to Postgres.
	ArchiveResults bool `mapstructure:"archive_results"`

	AuctionTimeout  time.Duration `mapstructure:"auction_timeout"`
	TokenExpireTime string        `mapstructure:"token_expire_time"`

	RoundEndThreshold int `mapstructure:"round_end_threshold"`
	MaxRounds         int `mapstructure:"max_rounds"`
	CardsPerPlayer    int `mapstructure:"cards_per_player"`
	StartingMoney     int `mapstructure:"starting_money"`
}

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

func setDefaults(v *viper.Viper) {
	rules := game.DefaultRules()

	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("store_backend", BackendMemory)

	v.SetDefault("database_url", "")
	v.SetDefault("postgres_user", "postgres")
	v.SetDefault("postgres_password", "")
	v.SetDefault("pg_host", "localhost")
	v.SetDefault("pg_port", "5432")
	v.SetDefault("pg_database", "modernart")

	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_key_prefix", "modernart:game:")
	v.SetDefault("game_ttl", 24*time.Hour)

	v.SetDefault("historian_queue_name", "modernart_actions")
	v.SetDefault("historian_batch_size", 20)
	v.SetDefault("historian_flush_ms", 500)
	v.SetDefault("game_inactivity_timeout_sec", 600)
	v.SetDefault("publish_actions", false)
	v.SetDefault("archive_results", false)

	v.SetDefault("auction_timeout", time.Duration(0))
	v.SetDefault("token_expire_time", "")

	v.SetDefault("round_end_threshold", rules.RoundEndThreshold)
	v.SetDefault("max_rounds", rules.MaxRounds)
	v.SetDefault("cards_per_player", rules.CardsPerPlayer)
	v.SetDefault("starting_money", rules.StartingMoney)
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(cfg.StoreBackend)
	switch cfg.StoreBackend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	return &cfg, nil
}

// PostgresURL returns DATABASE_URL, or a URL assembled from the PG_* and
// POSTGRES_* variables when it is unset.
func (c *Config) PostgresURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.PostgresUser, c.PostgresPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// Rules returns the default rules with the configured overrides applied.
func (c *Config) Rules() (game.Rules, error) {
	return game.ParseRules(map[string]interface{}{
		"roundEndThreshold": c.RoundEndThreshold,
		"maxRounds":         c.MaxRounds,
		"cardsPerPlayer":    c.CardsPerPlayer,
		"startingMoney":     c.StartingMoney,
	}, game.DefaultRules())
}

func (c *Config) HistorianFlushDelay() time.Duration {
	return time.Duration(c.HistorianFlushMs) * time.Millisecond
}

func (c *Config) GameInactivityTimeout() time.Duration {
	return time.Duration(c.GameInactivityTimeoutS) * time.Second
}
