// Package store provides shared document caches for the EDGAR client.
package store

import (
	"context"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

var (
	pool *pgxpool.Pool
	mu   sync.Mutex
)

// InitDB initializes the database connection pool. An empty url falls back
// to the DATABASE_URL environment variable. Once a pool is up, later calls
// are no-ops; a failed attempt leaves no pool behind, so the next call
// connects again.
func InitDB(ctx context.Context, url string) error {
	mu.Lock()
	defer mu.Unlock()
	if pool != nil {
		return nil
	}

	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		return eris.New("store: DATABASE_URL not set")
	}

	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return eris.Wrap(err, "store: parse database config")
	}

	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return eris.Wrap(err, "store: connect")
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return eris.Wrap(err, "store: ping")
	}
	pool = p
	return nil
}

// GetPool returns the database connection pool, or nil before InitDB.
func GetPool() *pgxpool.Pool {
	mu.Lock()
	defer mu.Unlock()
	return pool
}

// Close closes the database connection pool. A later InitDB opens a new one.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if pool != nil {
		pool.Close()
		pool = nil
	}
}
