package edgar

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// DocumentCache stores retrieved filing documents keyed by CacheKey(url).
// A miss is reported as ok == false with a nil error.
type DocumentCache interface {
	Get(ctx context.Context, key string) (body []byte, ok bool, err error)
	Put(ctx context.Context, key string, body []byte) error
}

// CacheKey derives a stable cache key from a document URL.
func CacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// FileCache provides file-based caching for filing documents.
type FileCache struct {
	cacheDir string
}

// NewFileCache creates a cache rooted at dir. An empty dir defaults to
// .cache/edgar/documents in the current working directory.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		dir = filepath.Join(".cache", "edgar", "documents")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "edgar: create cache dir %s", dir)
	}
	return &FileCache{cacheDir: dir}, nil
}

func (c *FileCache) filePath(key string) string {
	return filepath.Join(c.cacheDir, key+".xbrl")
}

// Get returns the cached document for key.
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(c.filePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "edgar: read cache entry %s", key)
	}
	return data, true, nil
}

// Put stores a document. The write goes through a temp file so concurrent
// readers never observe a partial entry.
func (c *FileCache) Put(_ context.Context, key string, body []byte) error {
	tmp, err := os.CreateTemp(c.cacheDir, key+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "edgar: create cache temp file")
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return eris.Wrap(err, "edgar: write cache entry")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrap(err, "edgar: close cache entry")
	}
	return eris.Wrap(os.Rename(tmp.Name(), c.filePath(key)), "edgar: commit cache entry")
}

// Dir returns the cache directory path.
func (c *FileCache) Dir() string {
	return c.cacheDir
}

// Clear removes all cached files, leaving an empty cache directory.
func (c *FileCache) Clear() error {
	if err := os.RemoveAll(c.cacheDir); err != nil {
		return eris.Wrapf(err, "edgar: clear cache dir %s", c.cacheDir)
	}
	return eris.Wrapf(os.MkdirAll(c.cacheDir, 0o755), "edgar: recreate cache dir %s", c.cacheDir)
}
