package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Normalizer NormalizerConfig
	Matching   MatchingConfig
	Cost       CostConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds per-IP rate limiting configuration
type RateLimitConfig struct {
	PerIP float64 `mapstructure:"per_ip"` // requests per second
	Burst int     `mapstructure:"burst"`
}

// NormalizerConfig holds price normalization configuration
type NormalizerConfig struct {
	TaxRate               float64            `mapstructure:"tax_rate"`
	TaxIncludedSources    []string           `mapstructure:"tax_included_sources"`
	DefaultShippingCost   float64            `mapstructure:"default_shipping_cost"`
	FreeShippingThreshold float64            `mapstructure:"free_shipping_threshold"`
	SubscriptionKeywords  []string           `mapstructure:"subscription_keywords"`
	CurrencyRates         map[string]float64 `mapstructure:"currency_rates"` // "usd_jpy"-style keys
}

// MatchingConfig holds product matching configuration
type MatchingConfig struct {
	MinNameSimilarity  float64 `mapstructure:"min_name_similarity"`
	MinConfidence      float64 `mapstructure:"min_confidence"`
	MediumConfidence   float64 `mapstructure:"medium_confidence"`
	CapacityTolerance  float64 `mapstructure:"capacity_tolerance"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// CostConfig holds cost calculation configuration
type CostConfig struct {
	QualityWeightFactor float64 `mapstructure:"quality_weight_factor"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricelens/")

	v.SetEnvPrefix("PRICELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "1h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 10.0)
	v.SetDefault("ratelimit.burst", 20)

	// Normalizer defaults: Japanese market
	v.SetDefault("normalizer.tax_rate", 0.10)
	v.SetDefault("normalizer.tax_included_sources", []string{"rakuten", "amazon"})
	v.SetDefault("normalizer.default_shipping_cost", 500.0)
	v.SetDefault("normalizer.free_shipping_threshold", 3980.0)
	v.SetDefault("normalizer.subscription_keywords", []string{})
	v.SetDefault("normalizer.currency_rates", map[string]float64{
		"usd_jpy": 150.0,
		"jpy_usd": 1.0 / 150.0,
	})

	// Matching defaults
	v.SetDefault("matching.min_name_similarity", 0.5)
	v.SetDefault("matching.min_confidence", 0.6)
	v.SetDefault("matching.medium_confidence", 0.9)
	v.SetDefault("matching.capacity_tolerance", 0.10)
	v.SetDefault("matching.enable_debug_logging", false)

	// Cost defaults
	v.SetDefault("cost.quality_weight_factor", 0.2)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}
	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when cache type is 'redis' (set PRICELENS_CACHE_REDIS_URL)")
	}

	if config.Normalizer.TaxRate < 0 || config.Normalizer.TaxRate >= 1 {
		return fmt.Errorf("tax rate must be in [0, 1), got: %.2f", config.Normalizer.TaxRate)
	}

	if config.Matching.CapacityTolerance < 0 || config.Matching.CapacityTolerance > 1 {
		return fmt.Errorf("capacity tolerance must be in [0, 1], got: %.2f", config.Matching.CapacityTolerance)
	}

	return nil
}
