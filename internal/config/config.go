// Package config loads server settings from the environment.
//
// Values come from the process environment, optionally seeded from .env.local
// (the same file the rest of our services read during local development).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config holds everything the server and portalctl need at startup.
type Config struct {
	DatabaseURL string
	DBSchema    string
	DBLogLevel  string

	Port           string
	Env            string
	AllowedOrigins []string
	RequestTimeout time.Duration

	SessionTTL         time.Duration
	LoginRatePerMinute int
	LoginBurst         int

	PageCacheSize int
	// RevalidateSecret signs /hooks/revalidate calls; empty disables the hook.
	RevalidateSecret string
}

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is empty")

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "5050")
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("DB_SCHEMA", "")
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("SESSION_TTL", "168h")
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)
	v.SetDefault("LOGIN_BURST", 5)
	v.SetDefault("PAGE_CACHE_SIZE", 256)
	v.SetDefault("REVALIDATE_SECRET", "")
}

// Load reads .env.local (if present) and then the environment.
func Load() (Config, error) {
	_ = godotenv.Load(".env.local")
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	defaults(v)
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		DatabaseURL:        strings.TrimSpace(v.GetString("DATABASE_URL")),
		DBSchema:           strings.TrimSpace(v.GetString("DB_SCHEMA")),
		DBLogLevel:         strings.ToLower(strings.TrimSpace(v.GetString("DB_LOG_LEVEL"))),
		Port:               strings.TrimSpace(v.GetString("PORT")),
		Env:                strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		AllowedOrigins:     splitList(v.GetString("ALLOWED_ORIGINS")),
		RequestTimeout:     v.GetDuration("REQUEST_TIMEOUT"),
		SessionTTL:         v.GetDuration("SESSION_TTL"),
		LoginRatePerMinute: v.GetInt("LOGIN_RATE_PER_MINUTE"),
		LoginBurst:         v.GetInt("LOGIN_BURST"),
		PageCacheSize:      v.GetInt("PAGE_CACHE_SIZE"),
		RevalidateSecret:   v.GetString("REVALIDATE_SECRET"),
	}
	if cfg.Port == "" {
		cfg.Port = "5050"
	}
	return cfg, cfg.Validate()
}

// Validate checks the values the server cannot run without.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.LoginRatePerMinute <= 0 || c.LoginBurst <= 0 {
		return errors.New("LOGIN_RATE_PER_MINUTE and LOGIN_BURST must be positive")
	}
	if c.PageCacheSize <= 0 {
		return fmt.Errorf("PAGE_CACHE_SIZE must be positive, got %d", c.PageCacheSize)
	}
	if c.DBSchema != "" && strings.ContainsAny(c.DBSchema, " \t\"';") {
		return fmt.Errorf("DB_SCHEMA %q is not a plain identifier", c.DBSchema)
	}
	return nil
}

// Production reports whether cookies must carry the Secure flag.
func (c Config) Production() bool { return c.Env == EnvProduction }

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
