// Package postgres dials the checkout datastore. Every binary (API,
// worker, expirer) goes through ConnectAndMigrate so the schema is in
// place before any repository touches it.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/guantera/checkout-api/internal/platform/migrations"
)

// Connect opens a PostgreSQL connection via GORM and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// ConnectAndMigrate dials the datastore, applies the schema, and returns
// the DB plus a cleanup function. A nil DB with a no-op cleanup means the
// caller should fall back to in-memory repositories; the reason is logged.
func ConnectAndMigrate(ctx context.Context, dsn string, logger *slog.Logger) (*gorm.DB, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(dsn) == "" {
		logger.Warn("postgres DSN not set, falling back to in-memory repositories")
		return nil, func() {}
	}
	db, err := Connect(ctx, dsn)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to in-memory repositories", slog.String("error", err.Error()))
		return nil, func() {}
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("failed to run migrations, falling back to in-memory repositories", slog.String("error", err.Error()))
		return nil, func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to in-memory repositories", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("postgres connection established")
	return db, func() { _ = sqlDB.Close() }
}

// ConnectFromEnv is ConnectAndMigrate keyed off POSTGRES_DSN for the
// binaries that do not carry a config struct.
func ConnectFromEnv(ctx context.Context, logger *slog.Logger) (*gorm.DB, func()) {
	return ConnectAndMigrate(ctx, os.Getenv("POSTGRES_DSN"), logger)
}
