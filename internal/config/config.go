package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	Auth      AuthConfig      `mapstructure:"auth"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Plan      PlanConfig      `mapstructure:"plan"`
}

type ServerConfig struct {
	Address            string   `mapstructure:"address"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	// Timezone decides which calendar day is "today" when starting workouts.
	Timezone string `mapstructure:"timezone"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
	// UseTransactions requires a replica set deployment.
	UseTransactions bool `mapstructure:"use_transactions"`
}

type S3Config struct {
	Endpoint        string        `mapstructure:"endpoint"`          // Empty for AWS; set for MinIO/Spaces
	Region          string        `mapstructure:"region"`            // e.g. "us-east-1"
	AccessKeyID     string        `mapstructure:"access_key_id"`     // Load from env/secrets
	SecretAccessKey string        `mapstructure:"secret_access_key"` // Load from env/secrets
	BucketName      string        `mapstructure:"bucket_name"`       // Empty disables workout export
	UseSSL          bool          `mapstructure:"use_ssl"`
	ExportURLTTL    time.Duration `mapstructure:"export_url_ttl"` // Lifetime of presigned export links
}

// AuthConfig configures identity token verification.
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type LLMConfig struct {
	APIKey    string        `mapstructure:"api_key"`  // Load from env: LLM_API_KEY
	BaseURL   string        `mapstructure:"base_url"` // Optional override, e.g. a proxy
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// RedisConfig is optional: an empty address disables rate limiting.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RateLimitConfig struct {
	LLMPerMinute int `mapstructure:"llm_per_minute"`
}

type LogConfig struct {
	File   string `mapstructure:"file"`
	Stdout bool   `mapstructure:"stdout"`
	Level  string `mapstructure:"level"`
	JSON   bool   `mapstructure:"json"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

type PlanConfig struct {
	DefaultWeeks int `mapstructure:"default_weeks"`
}

// Location resolves Server.Timezone.
func (c ServerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (Config, error) {
	var config Config
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, llm.api_key -> LLM_API_KEY
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, err
		}
		// No file: defaults and environment only.
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.cors_allowed_origins", []string{})
	v.SetDefault("server.timezone", "UTC")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "pt_server")
	v.SetDefault("database.use_transactions", false)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.export_url_ttl", "15m")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "pt-server")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout", "120s")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("rate_limit.llm_per_minute", 10)
	v.SetDefault("log.file", "")
	v.SetDefault("log.stdout", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "ptserver")
	v.SetDefault("plan.default_weeks", 12)
}
