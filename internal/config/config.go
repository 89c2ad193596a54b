// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dangerclosesec/bizcontrol/internal/model"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Database struct {
		Driver     string `env:"DB_DRIVER" envDefault:"postgres"`
		Host       string `env:"DB_HOST" envDefault:"localhost"`
		Port       string `env:"DB_PORT" envDefault:"5432"`
		User       string `env:"DB_USER" envDefault:"postgres"`
		Password   string `env:"DB_PASSWORD"`
		Name       string `env:"DB_NAME" envDefault:"bizcontrol"`
		SSLMode    string `env:"DB_SSLMODE" envDefault:"disable"`
		SearchPath string `env:"DB_SCHEMA" envDefault:"public"`
		SQLitePath string `env:"DB_SQLITE_PATH" envDefault:"bizcontrol.db"`
	}
	JWT struct {
		Secret       string        `env:"JWT_SECRET" envDefault:"your-secret-key"`
		ExpiryPeriod time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	}
	Server struct {
		Port         string        `env:"SERVER_PORT" envDefault:"8080"`
		ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	}
	Mail struct {
		Provider string `env:"MAIL_PROVIDER" envDefault:"sendgrid"`
		From     string `env:"MAIL_FROM"`
		FromName string `env:"MAIL_FROM_NAME" envDefault:"Business control system"`
	}
	Sendgrid struct {
		APIKey string `env:"SENDGRID_API_KEY"`
	}
	SMTP struct {
		Host     string `env:"SMTP_HOST"`
		Port     int    `env:"SMTP_PORT" envDefault:"465"`
		Username string `env:"SMTP_USERNAME"`
		Password string `env:"SMTP_PASSWORD"`
	}
	Invite struct {
		TTL          time.Duration `env:"INVITE_TTL" envDefault:"336h"`
		CodeAlphabet string        `env:"INVITE_CODE_ALPHABET" envDefault:"ABCDEFGHJKLMNPQRSTUVWXYZ23456789"`
		CodeLength   int           `env:"INVITE_CODE_LENGTH" envDefault:"6"`
		MaxAttempts  int           `env:"INVITE_CODE_MAX_ATTEMPTS" envDefault:"10"`
	}
	Scheduler struct {
		Enabled      bool          `env:"SCHEDULER_ENABLED" envDefault:"true"`
		CleanupCron  string        `env:"CLEANUP_CRON" envDefault:"0 3 * * *"`
		MisfireGrace time.Duration `env:"SCHEDULER_MISFIRE_GRACE" envDefault:"10m"`
		AuditCron    string        `env:"AUDIT_PRUNE_CRON" envDefault:"30 3 * * *"`
	}
	Audit struct {
		Enabled   bool          `env:"AUDIT_ENABLED" envDefault:"true"`
		Retention time.Duration `env:"AUDIT_RETENTION" envDefault:"2160h"`
	}
	FirstSuperuser struct {
		Email    string `env:"FIRST_SUPERUSER_EMAIL"`
		Password string `env:"FIRST_SUPERUSER_PASSWORD"`
	}
	Permify struct {
		Host   string `env:"PERMIFY_HOST"`
		Tenant string `env:"PERMIFY_TENANT" envDefault:"t1"`
	}
	Admin struct {
		CookieSecure bool `env:"ADMIN_COOKIE_SECURE" envDefault:"false"`
	}
	AppTitle string `env:"APP_TITLE" envDefault:"Business control system"`
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8080"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if cfg.Invite.CodeLength <= 0 || cfg.Invite.CodeLength > model.InviteCodeMaxLength {
		return nil, fmt.Errorf("INVITE_CODE_LENGTH must be between 1 and %d", model.InviteCodeMaxLength)
	}
	if len(cfg.Invite.CodeAlphabet) < 2 {
		return nil, fmt.Errorf("INVITE_CODE_ALPHABET must contain at least two characters")
	}
	if cfg.Invite.MaxAttempts <= 0 {
		cfg.Invite.MaxAttempts = 1
	}

	return cfg, nil
}

// PostgresDSN builds the key/value connection string used by both pgx and lib/pq.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
		c.Database.SearchPath,
	)
}
