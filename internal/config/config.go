package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config errors
var (
	ErrMissingCSRFKey = errors.New("PARKER_CSRF_KEY is required in production")
	ErrInvalidCSRFKey = errors.New("PARKER_CSRF_KEY must be 64 hex characters (32 bytes)")
	ErrInvalidEnv     = errors.New("env must be development, production or test")
)

// Config holds all configuration for the site.
type Config struct {
	Env      string         `yaml:"env"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Email    EmailConfig    `yaml:"email"`
	Redis    RedisConfig    `yaml:"redis"`
	Wizard   WizardConfig   `yaml:"wizard"`
	Admin    AdminConfig    `yaml:"admin"`
	Outbox   OutboxConfig   `yaml:"outbox"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr          string   `yaml:"addr"`
	BaseURL       string   `yaml:"base_url"`
	CSRFKey       string   `yaml:"csrf_key"`
	RateLimit     int      `yaml:"rate_limit_per_second"`
	SlowRequestMs int      `yaml:"slow_request_ms"`
	CORSOrigins   []string `yaml:"cors_origins"`
	StaticDir     string   `yaml:"static_dir"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	SlowQueryMs int    `yaml:"slow_query_ms"`
}

// EmailConfig holds outbound email settings. An empty ResendKey disables delivery.
type EmailConfig struct {
	ResendKey    string `yaml:"resend_key"`
	From         string `yaml:"from"`
	ContactInbox string `yaml:"contact_inbox"`
}

// RedisConfig selects the shared wizard session store. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// WizardConfig holds registration wizard settings.
type WizardConfig struct {
	SessionTTL       time.Duration `yaml:"session_ttl"`
	CardPlaceholders bool          `yaml:"card_placeholders"`
}

// AdminConfig is the account seeded by `parker init-db`.
type AdminConfig struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

// OutboxConfig controls the email retry worker.
type OutboxConfig struct {
	RetrySchedule string        `yaml:"retry_schedule"`
	PurgeSchedule string        `yaml:"purge_schedule"`
	BaseDelay     time.Duration `yaml:"base_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Env: EnvDevelopment,
		Server: ServerConfig{
			Addr:          ":8080",
			BaseURL:       "http://localhost:8080",
			RateLimit:     10,
			SlowRequestMs: 200,
			StaticDir:     "static",
		},
		Database: DatabaseConfig{Path: "parker.db", SlowQueryMs: 50},
		Email: EmailConfig{
			From: "PARKER INTELLIGENT SYSTEMS <noreply@parker.dev>",
		},
		Wizard: WizardConfig{SessionTTL: 2 * time.Hour, CardPlaceholders: true},
		Admin:  AdminConfig{Email: "admin@parker.dev", Name: "Administrator"},
		Outbox: OutboxConfig{
			RetrySchedule: "@every 1m",
			PurgeSchedule: "@hourly",
			BaseDelay:     time.Minute,
			MaxDelay:      time.Hour,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads an optional YAML file over the defaults and applies PARKER_* overrides.
// An empty path skips the file.
// POST: returned config passed Validate
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads .env into the process environment when present, then calls Load.
func LoadFromEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Load(path)
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("PARKER_ENV", &c.Env)
	str("PARKER_ADDR", &c.Server.Addr)
	str("PARKER_BASE_URL", &c.Server.BaseURL)
	str("PARKER_CSRF_KEY", &c.Server.CSRFKey)
	str("PARKER_STATIC_DIR", &c.Server.StaticDir)
	str("PARKER_DB_PATH", &c.Database.Path)
	str("PARKER_RESEND_KEY", &c.Email.ResendKey)
	str("PARKER_EMAIL_FROM", &c.Email.From)
	str("PARKER_CONTACT_INBOX", &c.Email.ContactInbox)
	str("PARKER_REDIS_ADDR", &c.Redis.Addr)
	str("PARKER_REDIS_PASSWORD", &c.Redis.Password)
	str("PARKER_ADMIN_EMAIL", &c.Admin.Email)
	str("PARKER_ADMIN_NAME", &c.Admin.Name)
	str("PARKER_ADMIN_PASSWORD", &c.Admin.Password)
	str("PARKER_LOG_LEVEL", &c.Log.Level)

	if v := os.Getenv("PARKER_CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.CORSOrigins = append(c.Server.CORSOrigins, o)
			}
		}
	}

	for key, dst := range map[string]*int{
		"PARKER_RATE_LIMIT":      &c.Server.RateLimit,
		"PARKER_SLOW_REQUEST_MS": &c.Server.SlowRequestMs,
		"PARKER_SLOW_QUERY_MS":   &c.Database.SlowQueryMs,
		"PARKER_REDIS_DB":        &c.Redis.DB,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks cross-field rules.
// PRE: defaults applied
// POST: production configs carry a usable CSRF key
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEnv, c.Env)
	}
	if c.Server.CSRFKey == "" {
		if c.IsProduction() {
			return ErrMissingCSRFKey
		}
		return nil
	}
	if _, err := decodeKey(c.Server.CSRFKey); err != nil {
		return err
	}
	return nil
}

// IsProduction reports whether secure cookies and strict checks apply.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// CSRFKeyBytes returns the 32-byte CSRF secret. Outside production a missing key is
// replaced by a random one, so forms do not survive a restart.
func (c *Config) CSRFKeyBytes() ([]byte, error) {
	if c.Server.CSRFKey != "" {
		return decodeKey(c.Server.CSRFKey)
	}
	if c.IsProduction() {
		return nil, ErrMissingCSRFKey
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	slog.Warn("config_event", "event", "random_csrf_key", "hint", "set PARKER_CSRF_KEY to keep forms valid across restarts")
	return key, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidCSRFKey
	}
	return key, nil
}

// Logger builds the process logger: JSON in production, text elsewhere.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
