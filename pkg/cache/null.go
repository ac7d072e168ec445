package cache

import (
	"context"
	"time"
)

// NullCache stores nothing: every Get misses and Set discards the data. It
// backs --no-cache and the "none" backend, and still reports cancelled
// contexts like the real backends so callers see the same errors.
type NullCache struct{}

// NewNullCache returns a cache that never hits.
func NewNullCache() Cache {
	return NullCache{}
}

func (NullCache) Get(ctx context.Context, _ string) ([]byte, bool, error) {
	return nil, false, ctx.Err()
}

func (NullCache) Set(ctx context.Context, _ string, _ []byte, _ time.Duration) error {
	return ctx.Err()
}

func (NullCache) Delete(ctx context.Context, _ string) error {
	return ctx.Err()
}

func (NullCache) Close() error { return nil }

var _ Cache = NullCache{}
