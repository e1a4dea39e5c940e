package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// DB represents a database connection pool
type DB struct {
	*pgxpool.Pool
}

// PoolConfig sizes the connection pool. Zero fields keep the pgxpool defaults
// or whatever the database URL sets.
type PoolConfig struct {
	ApplicationName string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
}

func (p PoolConfig) apply(config *pgxpool.Config) {
	if p.ApplicationName != "" {
		config.ConnConfig.RuntimeParams["application_name"] = p.ApplicationName
	}
	if p.MaxConns > 0 {
		config.MaxConns = p.MaxConns
	}
	if p.MinConns > 0 {
		config.MinConns = min(p.MinConns, config.MaxConns)
	}
	if p.MaxConnLifetime > 0 {
		config.MaxConnLifetime = p.MaxConnLifetime
	}
	if p.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = p.MaxConnIdleTime
	}
	if p.ConnectTimeout > 0 {
		config.ConnConfig.ConnectTimeout = p.ConnectTimeout
	}
}

// NewConnection opens a pool against databaseURL, with every session in UTC,
// and fails unless the server answers a ping
func NewConnection(ctx context.Context, databaseURL string, pool PoolConfig) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Timestamps are compared in UTC by the consolidator's created_at ordering
	config.ConnConfig.RuntimeParams["timezone"] = "UTC"
	pool.apply(config)

	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", config.ConnConfig.Host, err)
	}

	log.WithFields(log.Fields{
		"host":      config.ConnConfig.Host,
		"database":  config.ConnConfig.Database,
		"max_conns": config.MaxConns,
	}).Debug("Database pool ready")

	return &DB{Pool: p}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}
