// Package postgres holds the relational store: connection setup, embedded
// goose migrations and the user/message repositories.
package postgres

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxOpenConns = 10
)

// Config captures the settings for opening the PostgreSQL pool.
type Config struct {
	DSN          string
	MaxOpenConns int
	Timeout      time.Duration
}

// DBTX is the subset of sqlx used by the repositories.
// Both *sqlx.DB and *sqlx.Tx satisfy it.
type DBTX interface {
	sqlx.ExtContext
}

// Connect opens a pgx-backed pool and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}

	db, err := sqlx.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}
