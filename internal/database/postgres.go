package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"autolytiq-desk/internal/config"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// NewPostgresDB opens the connection pool the transaction manager draws from
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate applies schema.sql. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Schema returns the embedded DDL
func Schema() string {
	return schemaSQL
}

// Close closes the pool
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
