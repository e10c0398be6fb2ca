package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies STAKELINE_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known STAKELINE_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Pool ──
	setStr(&cfg.Pool.Name, "STAKELINE_POOL_NAME")
	setStr(&cfg.Pool.Symbol, "STAKELINE_POOL_SYMBOL")
	setStr(&cfg.Pool.Owner, "STAKELINE_POOL_OWNER")
	setInt64(&cfg.Pool.GenesisUnix, "STAKELINE_POOL_GENESIS_UNIX")
	setDuration(&cfg.Pool.BlockInterval, "STAKELINE_POOL_BLOCK_INTERVAL")
	setDuration(&cfg.Pool.StatsCacheTTL, "STAKELINE_POOL_STATS_CACHE_TTL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "STAKELINE_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "STAKELINE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "STAKELINE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "STAKELINE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "STAKELINE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "STAKELINE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "STAKELINE_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "STAKELINE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "STAKELINE_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "STAKELINE_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "STAKELINE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "STAKELINE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "STAKELINE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "STAKELINE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "STAKELINE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "STAKELINE_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "STAKELINE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "STAKELINE_S3_REGION")
	setStr(&cfg.S3.Bucket, "STAKELINE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "STAKELINE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "STAKELINE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "STAKELINE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "STAKELINE_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "STAKELINE_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "STAKELINE_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.Interval, "STAKELINE_ARCHIVE_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "STAKELINE_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "STAKELINE_SERVER_PORT")
	setStr(&cfg.Server.AuthToken, "STAKELINE_SERVER_AUTH_TOKEN")
	setStringSlice(&cfg.Server.CORSOrigins, "STAKELINE_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "STAKELINE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "STAKELINE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "STAKELINE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "STAKELINE_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "STAKELINE_MODE")
	setStr(&cfg.LogLevel, "STAKELINE_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
