package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Pool.Owner = "0x1111111111111111111111111111111111111111"
	return cfg
}

func TestDefaultsValidateWithOwner(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "bogus"
	cfg.LogLevel = "loud"
	cfg.Pool.Owner = ""
	cfg.Redis.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	require.ErrorContains(t, err, "unknown mode")
	require.ErrorContains(t, err, "unknown log_level")
	require.ErrorContains(t, err, "pool: owner")
	require.ErrorContains(t, err, "redis: addr")
}

func TestValidateArchiveRequiresS3(t *testing.T) {
	cfg := validConfig()
	cfg.Archive.Enabled = true
	cfg.S3.Bucket = ""
	err := cfg.Validate()
	require.ErrorContains(t, err, "s3: bucket")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STAKELINE_POOL_OWNER", "0x2222222222222222222222222222222222222222")
	t.Setenv("STAKELINE_POOL_BLOCK_INTERVAL", "2m")
	t.Setenv("STAKELINE_SERVER_PORT", "9001")
	t.Setenv("STAKELINE_NOTIFY_EVENTS", "distribute_yield, pool_paused")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	require.Equal(t, "0x2222222222222222222222222222222222222222", cfg.Pool.Owner)
	require.Equal(t, 2*time.Minute, cfg.Pool.BlockInterval.Duration)
	require.Equal(t, 9001, cfg.Server.Port)
	require.Equal(t, []string{"distribute_yield", "pool_paused"}, cfg.Notify.Events)
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres.Password = "hunter2"
	cfg.Redis.Password = "hunter2"
	cfg.Server.AuthToken = "token"
	cfg.Notify.TelegramToken = "tg"

	red := RedactedConfig(&cfg)
	require.Equal(t, "***", red.Postgres.Password)
	require.Equal(t, "***", red.Redis.Password)
	require.Equal(t, "***", red.Server.AuthToken)
	require.Equal(t, "***", red.Notify.TelegramToken)

	// Originals untouched.
	require.Equal(t, "hunter2", cfg.Postgres.Password)
}
