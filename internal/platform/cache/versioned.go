package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const defaultLoadTimeout = 30 * time.Second

// Versioned is a JSON cache whose keys embed a version counter stored in
// Redis. Bump increments the counter, which orphans every existing key;
// entries then expire through their TTL.
type Versioned struct {
	client      *redis.Client
	ttl         time.Duration
	namespace   string
	loadTimeout time.Duration
	logger      *slog.Logger
	group       singleflight.Group
}

// Option customises a Versioned cache.
type Option func(*Versioned)

// WithLogger sets the logger used to report Redis failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Versioned) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLoadTimeout bounds a shared loader run.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *Versioned) {
		if d > 0 {
			c.loadTimeout = d
		}
	}
}

// NewVersioned returns a cache rooted at namespace. A nil client disables
// caching: every fetch runs its loader.
func NewVersioned(client *redis.Client, namespace string, ttl time.Duration, opts ...Option) *Versioned {
	c := &Versioned{
		client:      client,
		namespace:   namespace,
		ttl:         ttl,
		loadTimeout: defaultLoadTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Versioned) versionKey() string {
	return c.namespace + ":version"
}

// Version returns the current cache version, initialising it when missing.
func (c *Versioned) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, c.versionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, c.versionKey(), 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, c.versionKey(), ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// BuildKey composes "namespace:parts...:version".
func (c *Versioned) BuildKey(ctx context.Context, parts ...string) (string, error) {
	if c == nil {
		return strings.Join(parts, ":"), nil
	}
	joined := strings.Join(append([]string{c.namespace}, parts...), ":")
	if c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// FetchJSON decodes the cached value at key into dest. On a miss the loader
// runs once per key across concurrent callers and its result is stored.
// The shared run is detached from the caller's cancellation so that one
// caller going away does not fail the others. Redis errors are logged and
// the loader result is returned uncached.
func (c *Versioned) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("platform/cache: loader required")
	}
	if c == nil || c.client == nil {
		return load(ctx, loader, dest)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("cache read failed", slog.String("key", key), slog.Any("error", err))
		return load(ctx, loader, dest)
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(detached, c.loadTimeout)
		defer cancel()
		value, err := loader(loadCtx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(loadCtx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", slog.String("key", key), slog.Any("error", err))
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.([]byte), dest)
	}
}

// Bump invalidates the cache by incrementing the version.
func (c *Versioned) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, c.versionKey()).Err()
}

func load(ctx context.Context, loader func(context.Context) (any, error), dest any) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
