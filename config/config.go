package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Code store backends selectable via CODE_STORE.
const (
	CodeStoreMemory = "memory"
	CodeStoreRedis  = "redis"
)

// ServerConfig holds all configuration for the server.
// Tags use mapstructure for Viper unmarshalling.
type ServerConfig struct {
	HTTPPort  string `mapstructure:"HTTP_PORT"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	// Token minting
	JWTSecretKey    string `mapstructure:"JWT_SECRET_KEY"`
	TokenTTLSeconds int    `mapstructure:"TOKEN_TTL_SECONDS"`
	CodesSingleUse  bool   `mapstructure:"CODES_SINGLE_USE"`

	// Code store
	CodeStore         string        `mapstructure:"CODE_STORE"` // "memory" or "redis"
	CodeTTL           time.Duration `mapstructure:"CODE_TTL"`
	CodeStoreCapacity int           `mapstructure:"CODE_STORE_CAPACITY"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`

	// Resource-owner login
	LoginUser         string        `mapstructure:"LOGIN_USER"`
	LoginPasswordHash string        `mapstructure:"LOGIN_PASSWORD_HASH"` // bcrypt hash
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("/etc/cellardoor/")
	v.AddConfigPath("$HOME/.cellardoor")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("TOKEN_TTL_SECONDS", 10000)
	v.SetDefault("CODES_SINGLE_USE", true)
	v.SetDefault("CODE_STORE", CodeStoreMemory)
	v.SetDefault("CODE_TTL", "3h")
	v.SetDefault("CODE_STORE_CAPACITY", 1000)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("SESSION_TTL", "24h")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, we run on defaults and env vars.
		// Anything else (malformed file, permissions) is a real error.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings that have no safe default. The signing secret
// and login credentials must be injected; they are never compiled in.
func (c *ServerConfig) Validate() error {
	if c.JWTSecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY must be set")
	}
	if c.LoginUser == "" || c.LoginPasswordHash == "" {
		return fmt.Errorf("LOGIN_USER and LOGIN_PASSWORD_HASH must be set")
	}
	if c.CodeStore != CodeStoreMemory && c.CodeStore != CodeStoreRedis {
		return fmt.Errorf("unknown CODE_STORE %q", c.CodeStore)
	}
	if c.CodeStoreCapacity <= 0 {
		return fmt.Errorf("CODE_STORE_CAPACITY must be positive")
	}
	return nil
}
