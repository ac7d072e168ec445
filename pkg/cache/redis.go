package cache

import (
	"context"
	stderrors "errors"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/gradlayer/pkg/errors"
)

// RedisOptions configures a [RedisCache].
type RedisOptions struct {
	URL        string        // redis://[:password@]host:port/db
	Prefix     string        // prepended to every key
	Attempts   int           // tries per operation on network errors (default 3)
	RetryDelay time.Duration // first retry delay, doubled per attempt (default 100ms)
}

// maxRetryDelay caps the backoff between Redis retries.
const maxRetryDelay = 2 * time.Second

// RedisCache is a [Cache] backed by Redis, for servers sharing results
// across replicas. Network failures are retried with backoff; a missing key
// is a miss, not an error.
type RedisCache struct {
	client  redis.UniversalClient
	prefix  string
	backoff Backoff
}

// NewRedisCache connects to the server named by opts.URL and pings it.
// An unparsable URL returns INVALID_CONFIG, an unreachable server
// INTERNAL_ERROR.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	ropts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "redis url")
	}
	c := NewRedisCacheWithClient(redis.NewClient(ropts), opts)
	if err := c.client.Ping(ctx).Err(); err != nil {
		c.client.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping redis at %s", ropts.Addr)
	}
	return c, nil
}

// NewRedisCacheWithClient wraps an existing client. opts.URL is ignored.
func NewRedisCacheWithClient(client redis.UniversalClient, opts RedisOptions) *RedisCache {
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 100 * time.Millisecond
	}
	return &RedisCache{
		client:  client,
		prefix:  opts.Prefix,
		backoff: Backoff{
			Attempts: opts.Attempts,
			Delay:    opts.RetryDelay,
			MaxDelay: maxRetryDelay,
		},
	}
}

// Get retrieves a value from the cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	hit := false
	err := c.retry(ctx, func() error {
		b, err := c.client.Get(ctx, c.key(key)).Bytes()
		if stderrors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return classify(err)
		}
		data, hit = b, true
		return nil
	})
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "redis get")
	}
	return data, hit, nil
}

// Set stores a value in the cache.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.retry(ctx, func() error {
		return classify(c.client.Set(ctx, c.key(key), data, ttl).Err())
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "redis set")
	}
	return nil
}

// Delete removes a value from the cache.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	err := c.retry(ctx, func() error {
		return classify(c.client.Del(ctx, c.key(key)).Err())
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "redis delete")
	}
	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) key(k string) string { return c.prefix + k }

func (c *RedisCache) retry(ctx context.Context, fn func() error) error {
	return c.backoff.Do(ctx, fn)
}

// classify marks network failures as retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return Retryable(err)
	}
	return err
}

// Ensure RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
