// Package config provides configuration management using viper.
// It supports loading from YAML files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage and session backend names.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config holds all application configuration.
type Config struct {
	Bot        BotConfig        `mapstructure:"bot"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Log        LogConfig        `mapstructure:"log"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Session    SessionConfig    `mapstructure:"session"`
	Withdrawal WithdrawalConfig `mapstructure:"withdrawal"`
	Promotion  PromotionConfig  `mapstructure:"promotion"`
	Defaults   DefaultsConfig   `mapstructure:"defaults"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token       string        `mapstructure:"token"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

// AdminConfig holds the single administrator identity.
type AdminConfig struct {
	ID int64 `mapstructure:"id"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// StorageConfig selects the user/settings/withdrawal store backend.
type StorageConfig struct {
	Driver   string         `mapstructure:"driver"`
	Database DatabaseConfig `mapstructure:"database"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// SessionConfig selects the conversation state backend.
type SessionConfig struct {
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
	Redis  RedisConfig   `mapstructure:"redis"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WithdrawalConfig holds withdrawal flow settings that are not admin-mutable.
type WithdrawalConfig struct {
	PayoutChannel string  `mapstructure:"payout_channel"`
	PresetAmounts []int64 `mapstructure:"preset_amounts"`
	// EnforceLimits turns the minimum warning into a refusal and applies the maximum.
	EnforceLimits bool `mapstructure:"enforce_limits"`
}

// PromotionConfig holds the promotion contact shown by the promotion button.
type PromotionConfig struct {
	Contact string `mapstructure:"contact"`
}

// DefaultsConfig seeds the global settings on first start.
type DefaultsConfig struct {
	RequiredChannels   []string `mapstructure:"required_channels"`
	WithdrawalChannels []string `mapstructure:"withdrawal_channels"`
	ReferralAmount     string   `mapstructure:"referral_amount"`
	MinWithdrawal      string   `mapstructure:"min_withdrawal"`
	MaxWithdrawal      string   `mapstructure:"max_withdrawal"`
	WithdrawalOpen     bool     `mapstructure:"withdrawal_open"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Addr returns the Redis host:port address.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Load reads configuration from a .env file, the config file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	// A missing .env is fine: the environment may already be populated.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. BOT_TOKEN, STORAGE_DRIVER, SESSION_REDIS_HOST
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The deployment contract names these two variables explicitly.
	_ = v.BindEnv("bot.token", "TELEGRAM_TOKEN", "BOT_TOKEN")
	_ = v.BindEnv("admin.id", "ADMIN_ID")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.poll_timeout", "10s")
	v.SetDefault("log.level", "info")

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.database.host", "localhost")
	v.SetDefault("storage.database.port", 5432)
	v.SetDefault("storage.database.user", "starbot")
	v.SetDefault("storage.database.name", "starbot")
	v.SetDefault("storage.database.pool_size", 10)
	v.SetDefault("storage.database.connect_timeout", "10s")
	v.SetDefault("storage.database.max_conn_lifetime", "1h")
	v.SetDefault("storage.database.max_conn_idle_time", "30m")

	v.SetDefault("session.driver", DriverMemory)
	v.SetDefault("session.ttl", "30m")
	v.SetDefault("session.redis.host", "localhost")
	v.SetDefault("session.redis.port", 6379)
	v.SetDefault("session.redis.db", 0)

	v.SetDefault("withdrawal.payout_channel", "@STAR_REACTION_PAYOUT")
	v.SetDefault("withdrawal.preset_amounts", []int64{1, 2, 3, 4, 5, 6, 7})
	v.SetDefault("withdrawal.enforce_limits", false)

	v.SetDefault("promotion.contact", "@SPIDERMAN383")

	v.SetDefault("defaults.required_channels", []string{"@freearningstetantes"})
	v.SetDefault("defaults.withdrawal_channels", []string{"@freearningstetantes"})
	v.SetDefault("defaults.referral_amount", "0.5")
	v.SetDefault("defaults.min_withdrawal", "1")
	v.SetDefault("defaults.max_withdrawal", "10")
	v.SetDefault("defaults.withdrawal_open", true)
}

// Validate checks the settings the bot cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Bot.Token == "" {
		errs = append(errs, errors.New("bot token is required (TELEGRAM_TOKEN)"))
	}
	if c.Admin.ID <= 0 {
		errs = append(errs, errors.New("admin id must be a positive integer (ADMIN_ID)"))
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	switch c.Session.Driver {
	case DriverMemory, DriverRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown session driver %q", c.Session.Driver))
	}
	for _, amount := range []string{c.Defaults.ReferralAmount, c.Defaults.MinWithdrawal, c.Defaults.MaxWithdrawal} {
		if _, err := decimal.NewFromString(amount); err != nil {
			errs = append(errs, fmt.Errorf("invalid default amount %q: %w", amount, err))
		}
	}
	return errors.Join(errs...)
}

// IsAdmin reports whether userID is the configured administrator.
func (c *Config) IsAdmin(userID int64) bool {
	return c.Admin.ID != 0 && c.Admin.ID == userID
}
