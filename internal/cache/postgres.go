package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Cache backed by the tool_cache table.
type Postgres struct {
	pool    *pgxpool.Pool
	nowFunc func() time.Time
}

// NewPostgres creates a Cache on an already-migrated database.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, nowFunc: time.Now}
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value   []byte
		expires time.Time
	)
	err := p.pool.QueryRow(ctx, `SELECT value, expires_at FROM tool_cache WHERE key = $1`, key).Scan(&value, &expires)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cache entry: %w", err)
	}
	if !p.nowFunc().Before(expires) {
		if err := p.Delete(ctx, key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO tool_cache (key, value, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		key, value, p.nowFunc().Add(ttl).UTC())
	if err != nil {
		return fmt.Errorf("set cache entry: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM tool_cache WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// Purge removes every expired row.
func (p *Postgres) Purge(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM tool_cache WHERE expires_at <= $1`, p.nowFunc().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return tag.RowsAffected(), nil
}
