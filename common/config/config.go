package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Cache     CacheConfig     `yaml:"cache"`
	Queue     QueueConfig     `yaml:"queue"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Token     TokenConfig     `yaml:"token"`
	Artifact  ArtifactConfig  `yaml:"artifact"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string `yaml:"name"`
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
}

// StoreConfig selects the tag record store
type StoreConfig struct {
	Type string `yaml:"type"` // "memory" or "postgres"
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Database    string        `yaml:"database"`
	User        string        `yaml:"user"`
	Password    string        `yaml:"password"`
	MaxConns    int           `yaml:"max_conns"`
	MinConns    int           `yaml:"min_conns"`
	MaxIdleTime time.Duration `yaml:"max_idle_time"`
	MaxLifetime time.Duration `yaml:"max_lifetime"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CacheConfig holds tag read cache settings
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// QueueConfig holds event queue settings
type QueueConfig struct {
	Type string `yaml:"type"` // only "memory" for now
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool `yaml:"enable_pprof"`
	PprofPort   int  `yaml:"pprof_port"`
}

// TokenConfig holds temporary access token settings
type TokenConfig struct {
	Secret       string `yaml:"secret"`
	DefaultHours int    `yaml:"default_hours"`
	MaxHours     int    `yaml:"max_hours"`
}

// ArtifactConfig holds QR rendering settings
type ArtifactConfig struct {
	BaseURL string `yaml:"base_url"`
	Size    int    `yaml:"size"`
}

// RateLimitConfig holds public endpoint rate limits
type RateLimitConfig struct {
	AccessPerMinute int64 `yaml:"access_per_minute"`
}

// maxTokenHours is the hard ceiling on temporary token lifetimes
const maxTokenHours = 720

// developmentSecret is only accepted outside production
const developmentSecret = "dev-tag-token-secret-change-me"

// Default returns the built-in configuration before file and env overrides
func Default(serviceName string) *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        8080,
			Environment: "development",
			LogLevel:    "info",
			LogFormat:   "text",
		},
		Store: StoreConfig{Type: "memory"},
		Database: DatabaseConfig{
			Host:        "localhost",
			Port:        5432,
			Database:    "tags",
			User:        "tags",
			Password:    "tags",
			MaxConns:    20,
			MinConns:    2,
			MaxIdleTime: 30 * time.Minute,
			MaxLifetime: 1 * time.Hour,
		},
		Redis: RedisConfig{
			Enabled: false,
			Host:    "localhost",
			Port:    6379,
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: 5 * time.Minute,
		},
		Queue: QueueConfig{Type: "memory"},
		Telemetry: TelemetryConfig{
			EnablePprof: false,
			PprofPort:   6060,
		},
		Token: TokenConfig{
			Secret:       developmentSecret,
			DefaultHours: 24,
			MaxHours:     720,
		},
		Artifact: ArtifactConfig{
			BaseURL: "http://localhost:8080/api/v1/tags/",
			Size:    256,
		},
		RateLimit: RateLimitConfig{AccessPerMinute: 60},
	}
}

// Load loads configuration from an optional YAML file (CONFIG_FILE) and
// then environment variables. Env wins over file, file wins over defaults.
func Load(serviceName string) (*Config, error) {
	cfg := Default(serviceName)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Service.Port = getEnvInt("PORT", c.Service.Port)
	c.Service.Environment = getEnv("ENVIRONMENT", c.Service.Environment)
	c.Service.LogLevel = getEnv("LOG_LEVEL", c.Service.LogLevel)
	c.Service.LogFormat = getEnv("LOG_FORMAT", c.Service.LogFormat)

	c.Store.Type = getEnv("STORE_TYPE", c.Store.Type)

	c.Database.Host = getEnv("POSTGRES_HOST", c.Database.Host)
	c.Database.Port = getEnvInt("POSTGRES_PORT", c.Database.Port)
	c.Database.Database = getEnv("POSTGRES_DB", c.Database.Database)
	c.Database.User = getEnv("POSTGRES_USER", c.Database.User)
	c.Database.Password = getEnv("POSTGRES_PASSWORD", c.Database.Password)
	c.Database.MaxConns = getEnvInt("POSTGRES_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvInt("POSTGRES_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxIdleTime = getEnvDuration("POSTGRES_MAX_IDLE_TIME", c.Database.MaxIdleTime)
	c.Database.MaxLifetime = getEnvDuration("POSTGRES_MAX_LIFETIME", c.Database.MaxLifetime)

	c.Redis.Enabled = getEnvBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Host = getEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = getEnvInt("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)

	c.Cache.Enabled = getEnvBool("CACHE_ENABLED", c.Cache.Enabled)
	c.Cache.DefaultTTL = getEnvDuration("CACHE_DEFAULT_TTL", c.Cache.DefaultTTL)

	c.Queue.Type = getEnv("QUEUE_TYPE", c.Queue.Type)

	c.Telemetry.EnablePprof = getEnvBool("ENABLE_PPROF", c.Telemetry.EnablePprof)
	c.Telemetry.PprofPort = getEnvInt("PPROF_PORT", c.Telemetry.PprofPort)

	c.Token.Secret = getEnv("TAG_TOKEN_SECRET", c.Token.Secret)
	c.Token.DefaultHours = getEnvInt("DEFAULT_TOKEN_HOURS", c.Token.DefaultHours)
	c.Token.MaxHours = getEnvInt("MAX_TOKEN_HOURS", c.Token.MaxHours)

	c.Artifact.BaseURL = getEnv("QR_BASE_URL", c.Artifact.BaseURL)
	c.Artifact.Size = getEnvInt("QR_SIZE", c.Artifact.Size)

	c.RateLimit.AccessPerMinute = int64(getEnvInt("ACCESS_RATE_LIMIT", int(c.RateLimit.AccessPerMinute)))
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	switch c.Store.Type {
	case "memory":
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			return fmt.Errorf("max_conns must be >= min_conns")
		}
	default:
		return fmt.Errorf("unknown store type: %s", c.Store.Type)
	}

	if c.Token.Secret == "" {
		return fmt.Errorf("token secret is required")
	}
	if c.IsProduction() && c.Token.Secret == developmentSecret {
		return fmt.Errorf("TAG_TOKEN_SECRET must be set in production")
	}
	if len(c.Token.Secret) < 16 {
		return fmt.Errorf("token secret must be at least 16 bytes")
	}
	if c.Token.MaxHours < 1 || c.Token.MaxHours > maxTokenHours {
		return fmt.Errorf("max token hours must be within [1, %d]: %d", maxTokenHours, c.Token.MaxHours)
	}
	if c.Token.DefaultHours < 1 || c.Token.DefaultHours > c.Token.MaxHours {
		return fmt.Errorf("default token hours must be within [1, %d]", c.Token.MaxHours)
	}

	if c.Artifact.Size < 21 {
		return fmt.Errorf("qr size too small: %d", c.Artifact.Size)
	}

	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Service.Environment, "production")
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns host:port for the Redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
