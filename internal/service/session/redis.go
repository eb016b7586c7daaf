package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zhouzirui/mock-interview/backend/internal/model/conversation"
)

const redisKeyPrefix = "interview:session:"

// RedisStore keeps sessions in Redis as JSON arrays of turns.
type RedisStore struct {
	client redis.Cmdable
	seed   SeedFunc
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. A zero ttl keeps sessions forever.
func NewRedisStore(client redis.Cmdable, seed SeedFunc, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, seed: seed, ttl: ttl}
}

// NewRedisClient parses a redis:// URL, falling back to a plain address.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		opt = &redis.Options{Addr: rawURL}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opt.Addr, err)
	}
	return client, nil
}

// GetOrCreate reads the session or seeds it with SETNX so concurrent first access installs one pair.
func (s *RedisStore) GetOrCreate(ctx context.Context, sessionID string) ([]conversation.Turn, error) {
	if sessionID == "" {
		return nil, ErrSessionIDRequired
	}

	turns, found, err := s.Lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if found {
		if s.ttl > 0 {
			if err := s.client.Expire(ctx, redisKey(sessionID), s.ttl).Err(); err != nil {
				return nil, fmt.Errorf("refresh session ttl: %w", err)
			}
		}
		return turns, nil
	}

	seeded := seedTurns(s.seed)
	payload, err := json.Marshal(seeded)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	created, err := s.client.SetNX(ctx, redisKey(sessionID), payload, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("seed session: %w", err)
	}
	if !created {
		// 其他请求抢先完成了播种，以存储中的版本为准
		turns, _, err := s.Lookup(ctx, sessionID)
		return turns, err
	}
	return seeded, nil
}

// Replace overwrites the stored sequence.
func (s *RedisStore) Replace(ctx context.Context, sessionID string, turns []conversation.Turn) error {
	if sessionID == "" {
		return ErrSessionIDRequired
	}

	payload, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(sessionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Lookup reads a session without seeding it.
func (s *RedisStore) Lookup(ctx context.Context, sessionID string) ([]conversation.Turn, bool, error) {
	raw, err := s.client.Get(ctx, redisKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load session: %w", err)
	}

	var turns []conversation.Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, false, fmt.Errorf("decode session: %w", err)
	}
	return turns, true, nil
}

func redisKey(sessionID string) string {
	return redisKeyPrefix + sessionID
}
