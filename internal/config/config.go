// Package config loads server and CLI settings from defaults, an optional
// config file, a .env file and SHARELYST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DevJWTSecret is the placeholder secret used outside production.
const DevJWTSecret = "dev-secret-change-in-production"

// ErrInsecureSecret is returned when production runs with the placeholder secret.
var ErrInsecureSecret = errors.New("jwt.secret must be set in production")

// Config holds application configuration.
type Config struct {
	Env      string         `mapstructure:"env"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Janitor  JanitorConfig  `mapstructure:"janitor"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	CORSOrigin string `mapstructure:"cors_origin"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// JWTConfig holds token settings.
type JWTConfig struct {
	Secret        string        `mapstructure:"secret"`
	TokenDuration time.Duration `mapstructure:"token_duration"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// JanitorConfig controls the orphan group sweeper.
type JanitorConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// Production reports whether the server runs in production mode.
func (c Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads configuration. Env var overrides use prefix SHARELYST_, e.g.
// SHARELYST_DATABASE_PATH. A config file is read from SHARELYST_CONFIG when
// set, otherwise ./sharelyst.{yaml,toml,json} if present.
func Load() (Config, error) {
	// A missing .env is normal; variables already set in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("env", "development")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("database.path", "./data/sharelyst.db")
	v.SetDefault("jwt.secret", DevJWTSecret)
	v.SetDefault("jwt.token_duration", "24h")
	v.SetDefault("log.level", "info")
	v.SetDefault("janitor.enabled", true)
	v.SetDefault("janitor.schedule", "@every 1h")

	if cfgPath := os.Getenv("SHARELYST_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("sharelyst")
	}

	v.SetEnvPrefix("SHARELYST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.Production() && (c.JWT.Secret == "" || c.JWT.Secret == DevJWTSecret) {
		return ErrInsecureSecret
	}
	if c.JWT.TokenDuration <= 0 {
		return fmt.Errorf("jwt.token_duration must be positive, got %s", c.JWT.TokenDuration)
	}
	if c.Database.Path == "" {
		return errors.New("database.path must be set")
	}
	return nil
}
