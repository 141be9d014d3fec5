package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"sec_extractor/pkg/core/config"
	"sec_extractor/pkg/core/edgar"
)

func exerciseCache(t *testing.T, c edgar.DocumentCache) {
	t.Helper()
	ctx := context.Background()
	key := edgar.CacheKey("https://www.sec.gov/Archives/edgar/data/320193/aapl-20200926.htm")

	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get() on empty cache = ok %v, err %v", ok, err)
	}
	if err := c.Put(ctx, key, []byte("<html>v1</html>")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := c.Put(ctx, key, []byte("<html>v2</html>")); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}
	body, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v", ok, err)
	}
	if !bytes.Equal(body, []byte("<html>v2</html>")) {
		t.Errorf("Get() = %q, want the latest body", body)
	}
}

func TestSQLiteCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "docs.db")
	c, err := OpenSQLiteCache(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLiteCache() error = %v", err)
	}
	defer c.Close()

	exerciseCache(t, c)
}

func TestSQLiteCache_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "docs.db")

	c, err := OpenSQLiteCache(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLiteCache() error = %v", err)
	}
	if err := c.Put(ctx, "k", []byte("body")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	c.Close()

	c, err = OpenSQLiteCache(ctx, path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer c.Close()
	if body, ok, _ := c.Get(ctx, "k"); !ok || string(body) != "body" {
		t.Errorf("Get() after reopen = %q, %v", body, ok)
	}
}

func TestPostgresCache(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	cache, closer, err := Open(context.Background(), config.CacheConfig{Backend: "postgres", DatabaseURL: url})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer closer.Close()

	exerciseCache(t, cache)
}

func TestPostgresCache_Uninitialized(t *testing.T) {
	c := NewPostgresCache(nil)
	if _, _, err := c.Get(context.Background(), "k"); err == nil {
		t.Error("Get() without a pool should fail")
	}
	if err := c.Put(context.Background(), "k", nil); err == nil {
		t.Error("Put() without a pool should fail")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     config.CacheConfig
		wantNil bool
		wantErr bool
	}{
		{"file", config.CacheConfig{Backend: "file", Dir: filepath.Join(dir, "docs")}, false, false},
		{"sqlite", config.CacheConfig{Backend: "sqlite", SQLitePath: filepath.Join(dir, "docs.db")}, false, false},
		{"none", config.CacheConfig{Backend: "none"}, true, false},
		{"unknown", config.CacheConfig{Backend: "redis"}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, closer, err := Open(context.Background(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer closer.Close()
			if (cache == nil) != tt.wantNil {
				t.Fatalf("cache = %v, wantNil %v", cache, tt.wantNil)
			}
			if cache != nil {
				exerciseCache(t, cache)
			}
		})
	}
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  config.CacheConfig
		want string
	}{
		{"file", config.CacheConfig{Backend: "file", Dir: filepath.Join(dir, "docs")}, filepath.Join(dir, "docs")},
		{"sqlite", config.CacheConfig{Backend: "sqlite", SQLitePath: filepath.Join(dir, "docs.db")}, filepath.Join(dir, "docs.db")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cache, closer, err := Open(ctx, tt.cfg)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if err := cache.Put(ctx, "k", []byte("body")); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			closer.Close()

			where, err := Clear(ctx, tt.cfg)
			if err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			if where != tt.want {
				t.Errorf("Clear() location = %q, want %q", where, tt.want)
			}

			cache, closer, err = Open(ctx, tt.cfg)
			if err != nil {
				t.Fatalf("reopen error = %v", err)
			}
			defer closer.Close()
			if _, ok, _ := cache.Get(ctx, "k"); ok {
				t.Error("entry survived Clear()")
			}
			if err := cache.Put(ctx, "k", []byte("again")); err != nil {
				t.Errorf("cache unusable after Clear(): %v", err)
			}
		})
	}

	if _, err := Clear(context.Background(), config.CacheConfig{Backend: "redis"}); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestInitDB_FailureLeavesNoPool(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if err := InitDB(context.Background(), ""); err == nil {
		t.Fatal("InitDB() without a url should fail")
	}

	// Nothing listens on port 1, so the ping fails.
	url := "postgres://secextract@127.0.0.1:1/sec?connect_timeout=1&sslmode=disable"
	for i := 0; i < 2; i++ {
		if err := InitDB(context.Background(), url); err == nil {
			t.Fatalf("attempt %d: InitDB() should report the ping failure", i)
		}
		if GetPool() != nil {
			t.Fatalf("attempt %d: a failed InitDB() must not leave a pool", i)
		}
	}

	if _, _, err := Open(context.Background(), config.CacheConfig{Backend: "postgres", DatabaseURL: url}); err == nil {
		t.Error("Open() should not wrap an unreachable database")
	}
}
