package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env         string `env:"ENV"          envDefault:"local" validate:"required,oneof=local staging production"`
	Port        string `env:"PORT"         envDefault:"8000"  validate:"required"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"  validate:"oneof=debug info warn error"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	StoreDriver   string        `env:"STORE_DRIVER"     envDefault:"postgres" validate:"oneof=postgres mongo memory"`
	DatabaseURL   string        `env:"DATABASE_URL"     validate:"required_if=StoreDriver postgres"`
	MongoURI      string        `env:"MONGODB_URI"      validate:"required_if=StoreDriver mongo"`
	MongoDatabase string        `env:"MONGODB_DATABASE" envDefault:"UserAuth"`
	SweepSchedule string        `env:"SWEEP_SCHEDULE"   envDefault:"@every 15m"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL"   envDefault:"1h" validate:"gt=0"`
	ResetLinkBase string        `env:"RESET_LINK_BASE"   envDefault:"http://localhost:8000" validate:"url"`

	JWTSecret         string        `env:"JWT_SECRET,required"  validate:"required,min=32"`
	AccessTokenExpiry time.Duration `env:"ACCESS_TOKEN_EXPIRY"  envDefault:"24h" validate:"gt=0"`
	CookieSecure      bool          `env:"COOKIE_SECURE"        envDefault:"true"`

	MailProvider   string `env:"MAIL_PROVIDER"    envDefault:"log" validate:"oneof=log resend smtp"`
	MailFrom       string `env:"MAIL_FROM"        envDefault:"no-reply@localhost" validate:"required"`
	MailFromName   string `env:"MAIL_FROM_NAME"   envDefault:"UserAuth"`
	MailMaxRetries uint64 `env:"MAIL_MAX_RETRIES" envDefault:"3" validate:"max=10"`
	ResendAPIKey   string `env:"RESEND_API_KEY"   validate:"required_if=MailProvider resend"`

	SMTPHost           string `env:"SMTP_HOST"     envDefault:"smtp.gmail.com" validate:"required_if=MailProvider smtp"`
	SMTPPort           int    `env:"SMTP_PORT"     envDefault:"587"`
	SMTPUsername       string `env:"SMTP_USERNAME" validate:"required_if=MailProvider smtp"`
	SMTPPassword       string `env:"SMTP_PASSWORD"`
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET" validate:"required_with=GoogleClientID"`
	GoogleRefreshToken string `env:"GOOGLE_REFRESH_TOKEN" validate:"required_with=GoogleClientID"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Env != "local" && cfg.MailProvider == "log" {
		return nil, fmt.Errorf("invalid config: MAIL_PROVIDER=log is only allowed when ENV=local")
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
