package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/allocation-engine/pkg/config"
)

// chdir replicates testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoad_ValoresPorDefecto(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.Allocation.LockTimeout)
	assert.Equal(t, uint64(3), cfg.Allocation.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.Allocation.RetryBaseDelay)
	assert.Empty(t, cfg.Cache.RedisAddr)
	assert.False(t, cfg.DB.AutoMigrate)
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ALLOC_LOCK_TIMEOUT", "2s")
	t.Setenv("ALLOC_RETRY_BASE_DELAY", "250")
	t.Setenv("ALLOC_MAX_RETRIES", "5")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("DB_AUTO_MIGRATE", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 2*time.Second, cfg.Allocation.LockTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Allocation.RetryBaseDelay)
	assert.Equal(t, uint64(5), cfg.Allocation.MaxRetries)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.True(t, cfg.DB.AutoMigrate)
}

func TestLoad_LockTimeoutInvalido(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ALLOC_LOCK_TIMEOUT", "0")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "allocation", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/allocation?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
