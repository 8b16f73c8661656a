// File: internal/config/config.go
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port" env:"HTTP_PORT,overwrite"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL,overwrite"`   // trace|debug|info|warn|error
	Format   string `yaml:"format" env:"LOG_FORMAT,overwrite"` // json|console
	Sampling bool   `yaml:"sampling"`                          // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url" env:"DATABASE_URL,overwrite"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url" env:"REDIS_URL,overwrite"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD,overwrite"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // catalog cache ttl
}

type CartConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET,overwrite"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type MembershipConfig struct {
	Prices map[string]int64 `yaml:"prices"` // tier -> whole rupees
}

type CheckoutConfig struct {
	RateLimit  int           `yaml:"rate_limit"`  // submissions per window per user
	RateWindow time.Duration `yaml:"rate_window"` // window length
	LockTTL    time.Duration `yaml:"lock_ttl"`
}

// ReviewConfig drives the reminder sent to admins about requests left pending.
type ReviewConfig struct {
	ReminderInterval time.Duration `yaml:"reminder_interval"` // 0 disables reminders
	PendingAfter     time.Duration `yaml:"pending_after"`     // age before a request is reminded about
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS,overwrite"` // comma separated in env
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC,overwrite"`
}

type TelegramConfig struct {
	Token        string  `yaml:"token" env:"TELEGRAM_TOKEN,overwrite"`
	AdminChatIDs []int64 `yaml:"admin_chat_ids"`
}

type BuildConfig struct {
	Version string `yaml:"version"`
	Commit  string `yaml:"commit"`
}

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Cart       CartConfig       `yaml:"cart"`
	Auth       AuthConfig       `yaml:"auth"`
	Membership MembershipConfig `yaml:"membership"`
	Checkout   CheckoutConfig   `yaml:"checkout"`
	Review     ReviewConfig     `yaml:"review"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Build      BuildConfig      `yaml:"build"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies .env and environment
// overrides, fills defaults and validates required settings.
func LoadConfig(path string, dev bool) (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

// Parse decodes raw YAML, then applies env overrides, defaults and validation.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	for tier, price := range cfg.Membership.Prices {
		if price <= 0 {
			return nil, fmt.Errorf("membership.prices.%s must be positive", tier)
		}
	}
	return &cfg, nil
}

// applyEnv overlays environment variables named in env tags on top of the
// YAML values. Unset variables keep what the file says.
func applyEnv(cfg *Config) error {
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return fmt.Errorf("env config: %w", err)
	}
	cfg.Kafka.Brokers = lo.Compact(lo.Map(cfg.Kafka.Brokers, func(b string, _ int) string {
		return strings.TrimSpace(b)
	}))
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL, time.Hour)
	cfg.Cart.TTL = normalizeTTL(cfg.Cart.TTL, 7*24*time.Hour)
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if len(cfg.Membership.Prices) == 0 {
		cfg.Membership.Prices = map[string]int64{
			"weekly":  299,
			"monthly": 999,
			"yearly":  8999,
		}
	}
	if cfg.Checkout.RateLimit <= 0 {
		cfg.Checkout.RateLimit = 5
	}
	cfg.Checkout.RateWindow = normalizeTTL(cfg.Checkout.RateWindow, time.Minute)
	cfg.Checkout.LockTTL = normalizeTTL(cfg.Checkout.LockTTL, 10*time.Second)
	if cfg.Review.ReminderInterval < 0 {
		cfg.Review.ReminderInterval = 0
	}
	cfg.Review.PendingAfter = normalizeTTL(cfg.Review.PendingAfter, 24*time.Hour)
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "payment-requests"
	}
	if cfg.Build.Version == "" {
		cfg.Build.Version = "dev"
	}
}

func normalizeTTL(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
