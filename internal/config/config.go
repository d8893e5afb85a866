package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	SES      SESConfig      `yaml:"ses"`
	Mailer   MailerConfig   `yaml:"mailer"`
	Notify   NotifyConfig   `yaml:"notify"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the listen host, binding all interfaces inside containers.
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if c.Host == "" {
		return "127.0.0.1"
	}
	return c.Host
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the Redis connection used by the send-quota limiter.
type RedisConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// SESConfig holds AWS SES credentials for the default mail transport.
type SESConfig struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
}

// MailerConfig selects and configures the outbound mail transport.
type MailerConfig struct {
	// Provider is "ses" or "http".
	Provider  string `yaml:"provider"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`

	// HTTP API transport settings (when provider == "http").
	APIBaseURL string `yaml:"api_base_url"`
	APIKey     string `yaml:"api_key"`
}

// NotifyConfig tunes the batch notifier's retry and pacing behavior.
type NotifyConfig struct {
	MaxAttempts      int           `yaml:"max_attempts"`
	RetryBaseDelay   time.Duration `yaml:"retry_base_delay"`
	PacingDelay      time.Duration `yaml:"pacing_delay"`
	SendTimeout      time.Duration `yaml:"send_timeout"`
	QuotaPerMinute   int           `yaml:"quota_per_minute"`
	QuotaPerDay      int           `yaml:"quota_per_day"`
	TransitDelayNote string        `yaml:"transit_delay_note"`
}

// ApplyDefaults fills in the documented defaults for zero values.
func (n *NotifyConfig) ApplyDefaults() {
	if n.MaxAttempts <= 0 {
		n.MaxAttempts = 5
	}
	if n.RetryBaseDelay <= 0 {
		n.RetryBaseDelay = 2 * time.Second
	}
	if n.PacingDelay <= 0 {
		n.PacingDelay = 600 * time.Millisecond
	}
	if n.SendTimeout <= 0 {
		n.SendTimeout = 15 * time.Second
	}
	if n.QuotaPerMinute <= 0 {
		n.QuotaPerMinute = 60
	}
	if n.QuotaPerDay <= 0 {
		n.QuotaPerDay = 5000
	}
}

// AuthConfig holds session settings.
type AuthConfig struct {
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// LoadFromEnv loads the YAML config at path (if present), after loading a
// local .env file, then applies environment overrides. A missing config
// file is not an error: env-only deployments are supported.
func LoadFromEnv(path string) (*Config, error) {
	// .env is optional, load errors are ignored on purpose
	_ = godotenv.Load()

	cfg := &Config{}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "ca-central-1"
	}
	if cfg.Mailer.Provider == "" {
		cfg.Mailer.Provider = "ses"
	}
	if cfg.Auth.SessionTTL <= 0 {
		cfg.Auth.SessionTTL = 12 * time.Hour
	}
	cfg.Notify.ApplyDefaults()

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("MAILER_PROVIDER"); v != "" {
		cfg.Mailer.Provider = v
	}
	if v := os.Getenv("MAILER_FROM_EMAIL"); v != "" {
		cfg.Mailer.FromEmail = v
	}
	if v := os.Getenv("MAILER_API_KEY"); v != "" {
		cfg.Mailer.APIKey = v
	}
}
