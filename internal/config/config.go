package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the service needs at startup. It is built once in
// main and handed to each component.
type Config struct {
	AppPort          string
	DatabaseDriver   string
	DatabaseDSN      string
	JWTSecret        string
	AccessTokenTTL   time.Duration
	UploadDir        string
	StaticDir        string
	RabbitMQURL      string
	MaxUploadBytes   int
	CORSAllowOrigins string
}

// Load reads configuration from environment variables, falling back to defaults.
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom reads configuration from the given viper instance. Defaults are
// registered on v before reading, so callers may override them beforehand with Set.
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "bookshelf.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_TTL", "30m")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("STATIC_DIR", "web/dist")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("MAX_UPLOAD_BYTES", 100<<20)
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:          v.GetString("APP_PORT"),
		DatabaseDriver:   strings.ToLower(strings.TrimSpace(v.GetString("DATABASE_DRIVER"))),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		AccessTokenTTL:   v.GetDuration("ACCESS_TOKEN_TTL"),
		UploadDir:        v.GetString("UPLOAD_DIR"),
		StaticDir:        v.GetString("STATIC_DIR"),
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		MaxUploadBytes:   v.GetInt("MAX_UPLOAD_BYTES"),
		CORSAllowOrigins: v.GetString("CORS_ALLOW_ORIGINS"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.AccessTokenTTL)
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR must be set")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}
