package db

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/EmpoweredVote/news-portal/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the Postgres pool described by cfg. The handle is returned
// to the caller rather than stored globally so tests can inject their own.
func Connect(cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, config.ErrMissingDatabaseURL
	}

	// Surface slow queries in the service logs.
	lg := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             100 * time.Millisecond,
			LogLevel:                  logLevel(cfg.DBLogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  !cfg.Production(),
		},
	)

	dsn := cfg.DatabaseURL
	if cfg.DBSchema != "" {
		dsn = WithSearchPath(dsn, cfg.DBSchema)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: lg})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if cfg.DBSchema != "" {
		if err := EnsureSchema(db, cfg.DBSchema); err != nil {
			return nil, fmt.Errorf("ensure schema %s: %w", cfg.DBSchema, err)
		}
	}

	log.Println("[db] connected to database")
	return db, nil
}

// WithSearchPath points every pooled connection at schema. Both URL and
// keyword/value connection strings are accepted.
func WithSearchPath(dsn, schema string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		q.Set("search_path", schema)
		u.RawQuery = q.Encode()
		return u.String()
	}
	return strings.TrimSpace(dsn) + " search_path=" + schema
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Pinger returns a health check for the pool behind d.
func Pinger(d *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := d.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
