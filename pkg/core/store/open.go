package store

import (
	"context"
	"io"

	"github.com/rotisserie/eris"

	"sec_extractor/pkg/core/config"
	"sec_extractor/pkg/core/edgar"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var nopCloser = closerFunc(func() error { return nil })

// Open builds the document cache selected by cfg.Backend. The returned
// closer releases the backing database and must be called once the
// extractor is done. Backend "none" returns a nil cache.
func Open(ctx context.Context, cfg config.CacheConfig) (edgar.DocumentCache, io.Closer, error) {
	switch cfg.Backend {
	case "", "file":
		fc, err := edgar.NewFileCache(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return fc, nopCloser, nil

	case "sqlite":
		sc, err := OpenSQLiteCache(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sc, sc, nil

	case "postgres":
		if err := InitDB(ctx, cfg.DatabaseURL); err != nil {
			return nil, nil, err
		}
		pc := NewPostgresCache(GetPool())
		if err := pc.EnsureSchema(ctx); err != nil {
			Close()
			return nil, nil, err
		}
		return pc, closerFunc(func() error { Close(); return nil }), nil

	case "none":
		return nil, nopCloser, nil
	}
	return nil, nil, eris.Errorf("store: unknown cache backend %q", cfg.Backend)
}

// Clear empties the cache selected by cfg.Backend and returns the location
// that was cleared.
func Clear(ctx context.Context, cfg config.CacheConfig) (string, error) {
	switch cfg.Backend {
	case "", "file":
		fc, err := edgar.NewFileCache(cfg.Dir)
		if err != nil {
			return "", err
		}
		return fc.Dir(), fc.Clear()

	case "sqlite":
		sc, err := OpenSQLiteCache(ctx, cfg.SQLitePath)
		if err != nil {
			return "", err
		}
		defer sc.Close()
		return cfg.SQLitePath, sc.Clear(ctx)

	case "postgres":
		if err := InitDB(ctx, cfg.DatabaseURL); err != nil {
			return "", err
		}
		defer Close()
		pc := NewPostgresCache(GetPool())
		if err := pc.EnsureSchema(ctx); err != nil {
			return "", err
		}
		return "postgres sec_documents", pc.Clear(ctx)

	case "none":
		return "", nil
	}
	return "", eris.Errorf("store: unknown cache backend %q", cfg.Backend)
}
