package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// Config holds the configuration for the gradeboard server and its dependencies.
type Config struct {
	// Listen is the address the gradeboard server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// LogLevel is the default log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	// APIKey authenticates extraction collaborators that report into a session.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// SessionKey is the key used to sign the session cookie.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the maximum age of a dashboard session in seconds.
	// The session's store is discarded once it expires.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// MaxUploadSize is the largest import file accepted, in bytes.
	MaxUploadSize int64 `yaml:"max_upload_size" mapstructure:"max_upload_size"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Cache holds the session cache configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// History holds the import history configuration.
	History *HistoryConfig `yaml:"history" mapstructure:"history"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig holds the configuration for the session cache.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the address of the Redis server if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
}

// HistoryConfig holds the configuration for the import history.
type HistoryConfig struct {
	// RetentionDays is how long import runs are kept before they are pruned.
	RetentionDays int `yaml:"retention_days" mapstructure:"retention_days"`
	// PruneSchedule is the cron schedule of the prune job.
	PruneSchedule string `yaml:"prune_schedule" mapstructure:"prune_schedule"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
// A missing config file is not an error, defaults and environment variables are used instead.
func Load(path string) (*Config, error) {
	v := viper.New()

	bindNestedEnv(v)
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("GRADEBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.gradeboard")
		v.AddConfigPath("/etc/gradeboard")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug("No config file found, using defaults and environment")
	} else {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3003")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_key", "")
	v.SetDefault("session_key", "")
	v.SetDefault("session_max_age", 86400) // 24 hours
	v.SetDefault("max_upload_size", 10<<20)

	v.SetDefault("database.path", "./data/gradeboard.db")

	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")

	v.SetDefault("history.retention_days", 30)
	v.SetDefault("history.prune_schedule", "0 3 * * *") // Every day at 03:00
}

// viper's AutomaticEnv only resolves keys it already knows about, so keys
// without a meaningful default are bound explicitly.
func bindNestedEnv(v *viper.Viper) {
	v.MustBindEnv("api_key", "GRADEBOARD_API_KEY")
	v.MustBindEnv("session_key", "GRADEBOARD_SESSION_KEY")
	v.MustBindEnv("cache.redis_url", "GRADEBOARD_CACHE_REDIS_URL")
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing gradeboard config")
	}

	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("session key is required")
	}

	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("session max age must be greater than 0")
	}

	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("max upload size must be greater than 0")
	}

	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Cache != nil {
		if c.Cache.Type == "" {
			return fmt.Errorf("cache type is required when cache is configured")
		}
		if c.Cache.Type != CacheTypeMemory && c.Cache.Type != CacheTypeRedis {
			return fmt.Errorf("unknown cache type %q", c.Cache.Type)
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
	} else {
		c.Cache = &CacheConfig{
			Type: CacheTypeMemory,
		}
	}

	if c.History != nil {
		if c.History.RetentionDays <= 0 {
			return fmt.Errorf("history retention must be greater than 0 days")
		}
		// Basic validation for cron format (5 fields)
		if len(strings.Fields(c.History.PruneSchedule)) != 5 {
			return fmt.Errorf("prune schedule must be a valid cron expression with 5 fields (minute hour day month weekday)")
		}
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = strings.TrimSpace(c.Listen)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	if c.Cache != nil {
		c.Cache.Type = CacheType(strings.ToLower(strings.TrimSpace(string(c.Cache.Type))))
		c.Cache.RedisURL = strings.TrimSpace(c.Cache.RedisURL)
	}
}

// GetRetentionDays returns the import history retention with proper defaults.
func (c *Config) GetRetentionDays() int {
	if c == nil || c.History == nil || c.History.RetentionDays <= 0 {
		return 30
	}
	return c.History.RetentionDays
}

// GetPruneSchedule returns the prune job schedule with proper defaults.
func (c *Config) GetPruneSchedule() string {
	if c == nil || c.History == nil || c.History.PruneSchedule == "" {
		return "0 3 * * *"
	}
	return c.History.PruneSchedule
}
