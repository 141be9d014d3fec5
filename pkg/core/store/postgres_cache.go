package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS sec_documents (
		key        TEXT PRIMARY KEY,
		body       BYTEA NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// PostgresCache keeps retrieved filing documents in Postgres so several
// extractor processes can share one cache.
type PostgresCache struct {
	pool *pgxpool.Pool
}

// NewPostgresCache wraps a pool. Pass GetPool() after InitDB.
func NewPostgresCache(pool *pgxpool.Pool) *PostgresCache {
	return &PostgresCache{pool: pool}
}

// EnsureSchema creates the cache table if it does not exist.
func (c *PostgresCache) EnsureSchema(ctx context.Context) error {
	if c.pool == nil {
		return eris.New("store: database pool not initialized")
	}
	_, err := c.pool.Exec(ctx, postgresSchema)
	return eris.Wrap(err, "store: create sec_documents")
}

// Get returns the cached document for key.
func (c *PostgresCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.pool == nil {
		return nil, false, eris.New("store: database pool not initialized")
	}
	var body []byte
	err := c.pool.QueryRow(ctx, `SELECT body FROM sec_documents WHERE key = $1`, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "store: read %s", key)
	}
	return body, true, nil
}

// Put upserts a document.
func (c *PostgresCache) Put(ctx context.Context, key string, body []byte) error {
	if c.pool == nil {
		return eris.New("store: database pool not initialized")
	}
	_, err := c.pool.Exec(ctx, `
		INSERT INTO sec_documents (key, body, fetched_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, fetched_at = EXCLUDED.fetched_at`,
		key, body, time.Now().UTC())
	return eris.Wrapf(err, "store: write %s", key)
}

// Clear deletes every cached document.
func (c *PostgresCache) Clear(ctx context.Context) error {
	if c.pool == nil {
		return eris.New("store: database pool not initialized")
	}
	_, err := c.pool.Exec(ctx, `DELETE FROM sec_documents`)
	return eris.Wrap(err, "store: clear sec_documents")
}
