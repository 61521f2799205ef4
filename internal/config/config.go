// Package config loads service configuration from defaults, an optional TOML
// file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"EmbeddedAssets/internal/core/embeds"
	"EmbeddedAssets/internal/core/safety"
)

// Validation errors
var (
	ErrInvalidPort         = errors.New("port must be a number between 1 and 65535")
	ErrInvalidCacheType    = errors.New("cache type must be memory, redis or postgres")
	ErrMissingRedisAddress = errors.New("redis address is required for the redis cache")
	ErrInvalidStorageType  = errors.New("storage type must be disk or s3")
	ErrMissingStoragePath  = errors.New("storage path is required for disk storage")
	ErrMissingBucket       = errors.New("S3 bucket is required for s3 storage")
	ErrInvalidDuration     = errors.New("timeouts and TTLs must be positive")
	ErrInvalidLimit        = errors.New("limits cannot be negative")
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Cache      CacheConfig      `toml:"cache"`
	Extract    ExtractConfig    `toml:"extract"`
	Validation ValidationConfig `toml:"validation"`
	Safety     SafetyConfig     `toml:"safety"`
	Storage    StorageConfig    `toml:"storage"`
	ImageProxy ImageProxyConfig `toml:"image_proxy"`
}

type ServerConfig struct {
	Port                string `toml:"port"`
	RateLimitPerMinute  int    `toml:"rate_limit_per_minute"`
	ShutdownGracePeriod int    `toml:"shutdown_grace_seconds"`
}

type DatabaseConfig struct {
	URL string `toml:"url"`
}

type CacheConfig struct {
	// Type is memory, redis or postgres.
	Type       string      `toml:"type"`
	TTLMinutes int         `toml:"ttl_minutes"`
	Redis      RedisConfig `toml:"redis"`
}

type RedisConfig struct {
	Address  string `toml:"address"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type ExtractConfig struct {
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	UserAgent           string `toml:"user_agent"`
	AcceptLanguage      string `toml:"accept_language"`
	// ProvidersFile optionally replaces the built-in oEmbed provider list.
	ProvidersFile string `toml:"providers_file"`
}

type ValidationConfig struct {
	// MaxStringLength limits record string fields in runes; 0 disables.
	MaxStringLength int `toml:"max_string_length"`
}

type SafetyConfig struct {
	Whitelist []string `toml:"whitelist"`
}

type StorageConfig struct {
	// Type is disk or s3.
	Type          string   `toml:"type"`
	Path          string   `toml:"path"`
	PublicBaseURL string   `toml:"public_base_url"`
	S3            S3Config `toml:"s3"`
}

type S3Config struct {
	Bucket   string `toml:"bucket"`
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`
}

type ImageProxyConfig struct {
	MaxSourceSizeMB int `toml:"max_source_size_mb"`
	Quality         int `toml:"quality"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                "8080",
			RateLimitPerMinute:  100,
			ShutdownGracePeriod: 10,
		},
		Cache: CacheConfig{
			Type:       "memory",
			TTLMinutes: 24 * 60,
		},
		Extract: ExtractConfig{
			FetchTimeoutSeconds: 10,
			UserAgent:           "EmbeddedAssetsBot/1.0",
		},
		Validation: ValidationConfig{MaxStringLength: embeds.DefaultMaxStringLength},
		Safety:     SafetyConfig{Whitelist: append([]string(nil), safety.DefaultWhitelist...)},
		Storage: StorageConfig{
			Type: "disk",
			Path: "./data/assets",
		},
		ImageProxy: ImageProxyConfig{
			MaxSourceSizeMB: 10,
			Quality:         85,
		},
	}
}

// Load builds the configuration. A non-empty path names a TOML file that is
// overlaid on the defaults when it exists; environment variables win over both.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			slog.Warn("[CONFIG] config file not found, using defaults", "path", path)
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: got %q", ErrInvalidPort, c.Server.Port)
	}
	if c.Server.RateLimitPerMinute < 0 || c.Validation.MaxStringLength < 0 {
		return ErrInvalidLimit
	}

	switch c.Cache.Type {
	case "memory", "postgres":
	case "redis":
		if c.Cache.Redis.Address == "" {
			return ErrMissingRedisAddress
		}
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidCacheType, c.Cache.Type)
	}

	switch c.Storage.Type {
	case "disk":
		if c.Storage.Path == "" {
			return ErrMissingStoragePath
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return ErrMissingBucket
		}
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidStorageType, c.Storage.Type)
	}

	if c.Cache.TTLMinutes <= 0 || c.Extract.FetchTimeoutSeconds <= 0 {
		return ErrInvalidDuration
	}
	if c.ImageProxy.MaxSourceSizeMB <= 0 || c.ImageProxy.Quality < 1 || c.ImageProxy.Quality > 100 {
		return ErrInvalidLimit
	}
	return nil
}

// CacheTTL returns the extraction cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// FetchTimeout returns the extraction fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Extract.FetchTimeoutSeconds) * time.Second
}

// applyEnv overlays environment variables. Invalid numbers keep the
// current value and log a warning.
func (c *Config) applyEnv() {
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Server.Port, "EMBEDS_PORT")
	setInt(&c.Server.RateLimitPerMinute, "EMBEDS_RATE_LIMIT_PER_MINUTE", 0)

	setString(&c.Cache.Type, "EMBEDS_CACHE_TYPE")
	setInt(&c.Cache.TTLMinutes, "EMBEDS_CACHE_TTL_MINUTES", 1)
	setString(&c.Cache.Redis.Address, "REDIS_ADDRESS")
	setString(&c.Cache.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Cache.Redis.DB, "REDIS_DB", 0)

	setInt(&c.Extract.FetchTimeoutSeconds, "EMBEDS_FETCH_TIMEOUT_SECONDS", 1)
	setString(&c.Extract.UserAgent, "EMBEDS_USER_AGENT")
	setString(&c.Extract.AcceptLanguage, "EMBEDS_ACCEPT_LANGUAGE")
	setString(&c.Extract.ProvidersFile, "EMBEDS_PROVIDERS_FILE")

	setInt(&c.Validation.MaxStringLength, "EMBEDS_MAX_STRING_LENGTH", 0)

	if v := os.Getenv("EMBEDS_WHITELIST"); v != "" {
		var patterns []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		c.Safety.Whitelist = patterns
	}

	setString(&c.Storage.Type, "EMBEDS_STORAGE")
	setString(&c.Storage.Path, "EMBEDS_STORAGE_PATH")
	setString(&c.Storage.PublicBaseURL, "EMBEDS_PUBLIC_BASE_URL")
	setString(&c.Storage.S3.Bucket, "S3_BUCKET")
	setString(&c.Storage.S3.Region, "S3_REGION")
	setString(&c.Storage.S3.Endpoint, "S3_ENDPOINT")

	setInt(&c.ImageProxy.MaxSourceSizeMB, "IMAGE_PROXY_MAX_SOURCE_SIZE_MB", 1)
	setInt(&c.ImageProxy.Quality, "IMAGE_PROXY_QUALITY", 1)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string, lowest int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lowest {
		slog.Warn("[CONFIG] invalid "+key+" value, using default",
			"value", v,
			"default", *dst,
			"error", err,
		)
		return
	}
	*dst = n
}
