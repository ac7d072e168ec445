package cache

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/gradlayer/pkg/errors"
)

// entryHeader is the size of the expiry prefix on every entry file: a
// big-endian Unix time in nanoseconds, zero for entries that never expire.
const entryHeader = 8

// FileCache is the CLI cache: one file per key under dir, sharded by the
// first two hex digits of the key hash. Writes go through a temporary file
// and a rename, so concurrent runs never read a partial entry.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache creates dir if needed and returns a cache rooted there.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create cache dir %s", dir)
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Get implements [Cache]. Unreadable, truncated and expired entries are
// removed and reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "read cache entry")
	}
	if len(raw) < entryHeader {
		_ = os.Remove(path)
		return nil, false, nil
	}

	if exp := int64(binary.BigEndian.Uint64(raw[:entryHeader])); exp != 0 && c.now().UnixNano() > exp {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return raw[entryHeader:], true, nil
}

// Set implements [Cache].
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var exp int64
	if ttl > 0 {
		exp = c.now().Add(ttl).UnixNano()
	}
	buf := make([]byte, entryHeader+len(data))
	binary.BigEndian.PutUint64(buf, uint64(exp))
	copy(buf[entryHeader:], data)

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create cache shard")
	}
	if err := writeAtomic(path, buf); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write cache entry")
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Delete implements [Cache].
func (c *FileCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(c.path(key))
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "delete cache entry")
}

// Clear removes every entry and returns how many were removed. Empty shard
// directories are removed as well; the cache directory itself stays.
func (c *FileCache) Clear() (int, error) {
	shards, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "list cache dir")
	}

	count := 0
	for _, shard := range shards {
		if !shard.IsDir() {
			continue
		}
		sub := filepath.Join(c.dir, shard.Name())
		entries, err := os.ReadDir(sub)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if err := os.Remove(filepath.Join(sub, e.Name())); err == nil {
				count++
			}
		}
		_ = os.Remove(sub)
	}
	return count, nil
}

// Close implements [Cache]; there is nothing to release.
func (c *FileCache) Close() error { return nil }

func (c *FileCache) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(c.dir, hash[:2], hash[2:])
}

var _ Cache = (*FileCache)(nil)
