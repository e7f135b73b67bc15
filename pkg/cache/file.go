package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileCache stores rendered figure artifacts on disk, one file per entry.
// It is the CLI default: figures survive across invocations so re-rendering
// the same field at the same size is a read instead of a draw.
type FileCache struct {
	dir string
}

// NewFileCache opens a cache rooted at dir, creating it if needed.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// artifact is the on-disk envelope around a cached figure. Expiry is
// checked on read; there is no background sweeper.
type artifact struct {
	Data    []byte    `json:"data"`
	Expires time.Time `json:"expires,omitempty"`
}

func (a artifact) expired() bool {
	return !a.Expires.IsZero() && time.Now().After(a.Expires)
}

// Get reads an artifact. Corrupt or expired entries are removed and count
// as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var a artifact
	if err := json.Unmarshal(raw, &a); err != nil || a.expired() {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return a.Data, true, nil
}

// Set writes an artifact, stamping the expiry when a TTL is given.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	a := artifact{Data: data}
	if ttl > 0 {
		a.Expires = time.Now().Add(ttl)
	}

	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0644)
}

// Delete removes an artifact. A missing entry is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close is a no-op; every operation opens and closes its own file.
func (c *FileCache) Close() error {
	return nil
}

// path maps a key to its entry file. Keys carry a "figure:" prefix and
// arbitrary hash text, so the file name is a fresh hash of the whole key,
// sharded by its first byte to keep directories small.
func (c *FileCache) path(key string) string {
	sum := Hash([]byte(key))
	return filepath.Join(c.dir, sum[:2], sum[2:]+".json")
}

var _ Cache = (*FileCache)(nil)
