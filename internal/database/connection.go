package database

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/kestrel-security/sentinel/pkg/shared/errors"
)

// Connect opens a sqlx.DB against cfg using pgx's database/sql adapter
// (jackc/pgx/v5/stdlib), applying the pool-sizing defaults and pinging once
// to fail fast on a bad DSN.
func Connect(ctx context.Context, cfg *Config) (*sqlx.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigurationError("validate", "database", err)
	}

	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.DSN())
	if err != nil {
		return nil, errors.DatabaseError("connect", "database", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		return nil, errors.DatabaseError("ping", "database", err)
	}
	return db, nil
}

// Healthy reports whether db answers a ping within ctx's deadline.
func Healthy(ctx context.Context, db *sqlx.DB) bool {
	return db.PingContext(ctx) == nil
}

// MustDSN is a convenience for cmd/ entrypoints that want a one-line
// connection string for logging (password-less).
func MustDSN(cfg *Config) string {
	return fmt.Sprintf("postgres://%s@%s:%d/%s?sslmode=%s", cfg.User, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode)
}
