package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vntrieu/moodscreen/internal/config"
)

// Pool defaults used when PoolConfig leaves a field zero.
const (
	DefaultMaxConns        int32 = 10
	DefaultMinConns        int32 = 1
	DefaultMaxConnLifetime       = 30 * time.Minute
	DefaultMaxConnIdleTime       = 5 * time.Minute

	pingTimeout = 5 * time.Second
)

// Connect opens the submission and chat database and pings it.
func Connect(ctx context.Context, dsn string, pc config.PoolConfig) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(dsn, pc)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

func poolConfig(dsn string, pc config.PoolConfig) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}

	cfg.MaxConns = orDefault(pc.MaxConns, DefaultMaxConns)
	cfg.MinConns = orDefault(pc.MinConns, DefaultMinConns)
	if cfg.MinConns > cfg.MaxConns {
		cfg.MinConns = cfg.MaxConns
	}
	cfg.MaxConnLifetime = orDefault(pc.MaxConnLifetime, DefaultMaxConnLifetime)
	cfg.MaxConnIdleTime = orDefault(pc.MaxConnIdleTime, DefaultMaxConnIdleTime)
	return cfg, nil
}

func orDefault[T int32 | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}
