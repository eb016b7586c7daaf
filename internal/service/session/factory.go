package session

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendCache  = "cache"
	BackendRedis  = "redis"
)

// Options selects and tunes a Store implementation.
type Options struct {
	Backend         string
	TTL             time.Duration
	CleanupInterval time.Duration
	RedisURL        string
}

// Open builds the store named by opts.Backend. The returned closer releases backend connections.
func Open(ctx context.Context, opts Options, seed SeedFunc) (Store, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendMemory:
		return NewMemoryStore(seed), noop, nil
	case BackendCache:
		ttl := opts.TTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		cleanup := opts.CleanupInterval
		if cleanup <= 0 {
			cleanup = 10 * time.Minute
		}
		return NewCacheStore(seed, ttl, cleanup), noop, nil
	case BackendRedis:
		client, err := NewRedisClient(ctx, opts.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(client, seed, opts.TTL), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store backend %q", opts.Backend)
	}
}
