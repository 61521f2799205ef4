package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EmbeddedAssets/internal/core/safety"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"DATABASE_URL", "EMBEDS_PORT", "EMBEDS_RATE_LIMIT_PER_MINUTE", "EMBEDS_CACHE_TYPE",
		"EMBEDS_CACHE_TTL_MINUTES", "REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
		"EMBEDS_FETCH_TIMEOUT_SECONDS", "EMBEDS_USER_AGENT", "EMBEDS_ACCEPT_LANGUAGE",
		"EMBEDS_PROVIDERS_FILE", "EMBEDS_MAX_STRING_LENGTH", "EMBEDS_WHITELIST", "EMBEDS_STORAGE",
		"EMBEDS_STORAGE_PATH", "EMBEDS_PUBLIC_BASE_URL", "S3_BUCKET", "S3_REGION", "S3_ENDPOINT",
		"IMAGE_PROXY_MAX_SOURCE_SIZE_MB", "IMAGE_PROXY_QUALITY",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL())
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout())
	assert.Equal(t, safety.DefaultWhitelist, cfg.Safety.Whitelist)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_TOMLOverlay(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
[server]
port = "9090"

[cache]
type = "redis"
ttl_minutes = 30

[cache.redis]
address = "localhost:6379"

[safety]
whitelist = ["example.com", "*.cdn.test"]

[storage]
type = "s3"

[storage.s3]
bucket = "embeds"
region = "eu-west-1"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Type)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL())
	assert.Equal(t, "localhost:6379", cfg.Cache.Redis.Address)
	assert.Equal(t, []string{"example.com", "*.cdn.test"}, cfg.Safety.Whitelist)
	assert.Equal(t, "embeds", cfg.Storage.S3.Bucket)
	assert.Equal(t, 100, cfg.Server.RateLimitPerMinute, "untouched keys keep defaults")
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "[server]\nport = \"9090\"\n")

	t.Setenv("EMBEDS_PORT", "7070")
	t.Setenv("EMBEDS_WHITELIST", " a.test , ,b.test")
	t.Setenv("EMBEDS_MAX_STRING_LENGTH", "0")
	t.Setenv("DATABASE_URL", "postgres://localhost/embeds")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, []string{"a.test", "b.test"}, cfg.Safety.Whitelist)
	assert.Equal(t, 0, cfg.Validation.MaxStringLength)
	assert.Equal(t, "postgres://localhost/embeds", cfg.Database.URL)
}

func TestLoad_InvalidEnvNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMBEDS_CACHE_TTL_MINUTES", "forever")
	t.Setenv("EMBEDS_FETCH_TIMEOUT_SECONDS", "0")
	t.Setenv("IMAGE_PROXY_QUALITY", "-2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Cache.TTLMinutes, cfg.Cache.TTLMinutes)
	assert.Equal(t, Default().Extract.FetchTimeoutSeconds, cfg.Extract.FetchTimeoutSeconds)
	assert.Equal(t, Default().ImageProxy.Quality, cfg.ImageProxy.Quality)
}

func TestLoad_BadTOML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "[server\nport ="))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = "http" }, wantErr: ErrInvalidPort},
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = "70000" }, wantErr: ErrInvalidPort},
		{name: "unknown cache", mutate: func(c *Config) { c.Cache.Type = "memcached" }, wantErr: ErrInvalidCacheType},
		{name: "redis without address", mutate: func(c *Config) { c.Cache.Type = "redis" }, wantErr: ErrMissingRedisAddress},
		{name: "postgres cache", mutate: func(c *Config) { c.Cache.Type = "postgres" }},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Type = "ftp" }, wantErr: ErrInvalidStorageType},
		{name: "disk without path", mutate: func(c *Config) { c.Storage.Path = "" }, wantErr: ErrMissingStoragePath},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Storage.Type = "s3" }, wantErr: ErrMissingBucket},
		{name: "zero ttl", mutate: func(c *Config) { c.Cache.TTLMinutes = 0 }, wantErr: ErrInvalidDuration},
		{name: "negative max length", mutate: func(c *Config) { c.Validation.MaxStringLength = -1 }, wantErr: ErrInvalidLimit},
		{name: "quality out of range", mutate: func(c *Config) { c.ImageProxy.Quality = 101 }, wantErr: ErrInvalidLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
