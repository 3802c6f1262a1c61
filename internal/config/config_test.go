package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "WIZARD_SERVICE_URL", "WIZARD_READ_TIMEOUT", "WIZARD_PROBE_TIMEOUT",
		"WIZARD_CACHE_TTL", "WIZARD_DEBOUNCE", "WIZARD_DRAFT_STORE", "WIZARD_DRAFT_PATH",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "BYBIT_TESTNET", "BYBIT_CATEGORY", "METRICS_ADDR",
	} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 5*time.Second, cfg.Service.ReadTimeout)
	assert.Equal(t, 2*time.Second, cfg.Service.ProbeTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Service.CacheTTL)
	assert.Equal(t, 300*time.Millisecond, cfg.Advisory.Debounce)
	assert.Equal(t, StoreFile, cfg.Draft.Store)
	assert.True(t, cfg.IsDevelopment())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "wizard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
service:
  url: https://catalog.example.com
  cache_ttl: 15m
draft:
  store: redis
redis:
  db: 3
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://catalog.example.com", cfg.Service.URL)
	assert.Equal(t, 15*time.Minute, cfg.Service.CacheTTL)
	assert.Equal(t, 5*time.Second, cfg.Service.ReadTimeout, "unset keys keep their defaults")
	assert.Equal(t, StoreRedis, cfg.Draft.Store)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.False(t, cfg.IsDevelopment())

	t.Setenv("WIZARD_DEBOUNCE", "500ms")
	t.Setenv("WIZARD_DRAFT_STORE", "FILE")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("BYBIT_TESTNET", "true")

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.Advisory.Debounce)
	assert.Equal(t, StoreFile, cfg.Draft.Store)
	assert.Equal(t, 3, cfg.Redis.DB, "malformed values are ignored")
	assert.True(t, cfg.Exchange.Testnet)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8088", cfg.Service.URL)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service: [unterminated"), 0644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")

	t.Setenv("WIZARD_DRAFT_STORE", "x")
	_, err = Load("")
	assert.ErrorContains(t, err, `draft.store must be "file" or "redis", got: "x"`)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Service.ReadTimeout = 0
	assert.EqualError(t, cfg.Validate(), "service.read_timeout must be positive, got: 0s")

	cfg = Default()
	cfg.Draft.Store = StoreRedis
	cfg.Redis.Addr = ""
	assert.EqualError(t, cfg.Validate(), "redis.addr is required for the redis store")

	cfg = Default()
	cfg.Draft.Path = ""
	assert.EqualError(t, cfg.Validate(), "draft.path is required for the file store")
}
