package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort              = "8080"
	defaultLogLevel          = "info"
	defaultRateLimitRPS      = 25.0
	defaultRateLimitBurst    = 50
	defaultMongoDatabase     = "load_planner"
	defaultCacheTTL          = 10 * time.Minute
	defaultMaxUnits          = 5000
	defaultLookupConcurrency = 8
)

// Storage backends.
const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	LogLevel             string
	CatalogFile          string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int

	StorageBackend string
	MongoURI       string
	MongoDatabase  string

	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// MaxUnits caps the total units of one calculation. Zero disables the cap.
	MaxUnits          int
	LookupConcurrency int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	LogLevel             string        `yaml:"log_level"`
	CatalogFile          string        `yaml:"catalog_file"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
	Storage              yamlStorage   `yaml:"storage"`
	Cache                yamlCache     `yaml:"cache"`
	Limits               yamlLimits    `yaml:"limits"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

type yamlStorage struct {
	Backend       string `yaml:"backend"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
}

type yamlCache struct {
	Backend       string `yaml:"backend"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       *int   `yaml:"redis_db"`
	TTL           string `yaml:"ttl"`
}

type yamlLimits struct {
	MaxUnits          *int `yaml:"max_units"`
	LookupConcurrency *int `yaml:"lookup_concurrency"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	LogLevel       *string
	CatalogFile    *string
	RateLimitRPS   *float64
	RateLimitBurst *int
	StorageBackend *string
	MongoURI       *string
	CacheBackend   *string
	RedisAddr      *string
	MaxUnits       *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	// Load from YAML file if specified (overrides environment)
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	cfg.StorageBackend = strings.ToLower(cfg.StorageBackend)
	cfg.CacheBackend = strings.ToLower(cfg.CacheBackend)

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		LogLevel:             defaultLogLevel,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		StorageBackend:       StorageMemory,
		MongoDatabase:        defaultMongoDatabase,
		CacheBackend:         CacheMemory,
		CacheTTL:             defaultCacheTTL,
		MaxUnits:             defaultMaxUnits,
		LookupConcurrency:    defaultLookupConcurrency,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
// Keys absent from the file leave the current value untouched.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	setString(&cfg.Port, yamlCfg.Port)
	setString(&cfg.LogLevel, yamlCfg.LogLevel)
	setString(&cfg.CatalogFile, yamlCfg.CatalogFile)

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
		{"cache.ttl", yamlCfg.Cache.TTL, &cfg.CacheTTL},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = value
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	setString(&cfg.StorageBackend, yamlCfg.Storage.Backend)
	setString(&cfg.MongoURI, yamlCfg.Storage.MongoURI)
	setString(&cfg.MongoDatabase, yamlCfg.Storage.MongoDatabase)

	setString(&cfg.CacheBackend, yamlCfg.Cache.Backend)
	setString(&cfg.RedisAddr, yamlCfg.Cache.RedisAddr)
	setString(&cfg.RedisPassword, yamlCfg.Cache.RedisPassword)
	if yamlCfg.Cache.RedisDB != nil {
		cfg.RedisDB = *yamlCfg.Cache.RedisDB
	}

	if yamlCfg.Limits.MaxUnits != nil {
		cfg.MaxUnits = *yamlCfg.Limits.MaxUnits
	}
	if yamlCfg.Limits.LookupConcurrency != nil {
		cfg.LookupConcurrency = *yamlCfg.Limits.LookupConcurrency
	}
	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	setString(&cfg.Port, env("PORT"))
	setString(&cfg.LogLevel, env("LOG_LEVEL"))
	setString(&cfg.CatalogFile, env("CATALOG_FILE"))
	setString(&cfg.StorageBackend, env("STORAGE_BACKEND"))
	setString(&cfg.MongoURI, env("MONGO_URI"))
	setString(&cfg.MongoDatabase, env("MONGO_DATABASE"))
	setString(&cfg.CacheBackend, env("CACHE_BACKEND"))
	setString(&cfg.RedisAddr, env("REDIS_ADDR"))
	setString(&cfg.RedisPassword, env("REDIS_PASSWORD"))

	if rps := env("RATE_LIMIT_RPS"); rps != "" {
		value, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = value
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"RATE_LIMIT_BURST", &cfg.RateLimitBurst},
		{"REDIS_DB", &cfg.RedisDB},
		{"MAX_UNITS", &cfg.MaxUnits},
	}
	for _, i := range ints {
		raw := env(i.name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", i.name, err)
		}
		*i.dst = value
	}

	if ttl := env("CACHE_TTL"); ttl != "" {
		value, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		cfg.CacheTTL = value
	}
	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	for _, s := range []struct {
		src *string
		dst *string
	}{
		{overrides.Port, &cfg.Port},
		{overrides.LogLevel, &cfg.LogLevel},
		{overrides.CatalogFile, &cfg.CatalogFile},
		{overrides.StorageBackend, &cfg.StorageBackend},
		{overrides.MongoURI, &cfg.MongoURI},
		{overrides.CacheBackend, &cfg.CacheBackend},
		{overrides.RedisAddr, &cfg.RedisAddr},
	} {
		if s.src != nil {
			setString(s.dst, *s.src)
		}
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
	if overrides.MaxUnits != nil && *overrides.MaxUnits >= 0 {
		cfg.MaxUnits = *overrides.MaxUnits
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.MaxUnits < 0 {
		return fmt.Errorf("MAX_UNITS must be >= 0")
	}
	if cfg.LookupConcurrency <= 0 {
		return fmt.Errorf("lookup concurrency must be positive")
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}

	switch cfg.StorageBackend {
	case StorageMemory:
	case StorageMongo:
		if cfg.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo storage backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	switch cfg.CacheBackend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if cfg.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}

	if cfg.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must be >= 0")
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}
