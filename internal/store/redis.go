package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a Redis connection pool. The pool is safe
// for concurrent use, so command dispatch may publish while a poll is in
// flight. Every call is bounded by opTimeout so a stalled connection can
// never hang a render cycle.
type RedisStore struct {
	client    *redis.Client
	opTimeout time.Duration
}

// NewRedisStore connects to Redis at host:port using the given database
// index. The connection is verified with a ping; an unreachable store at
// construction time is an error the caller decides the policy for.
func NewRedisStore(host string, port, db int, opTimeout time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		DB:           db,
		DialTimeout:  opTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
		// Reconnects are handled by the pool; a dead connection is
		// discarded and redialed on the next call.
		MaxRetries: 1,
	})

	s := &RedisStore{client: client, opTimeout: opTimeout}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s:%d: %w", host, port, err)
	}
	return s, nil
}

func (s *RedisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// Get returns the string at key, with ok=false for an absent key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return val, true, nil
}

// List returns the whole list at key. Redis returns an empty slice for an
// absent list key, which is exactly the contract.
func (s *RedisStore) List(ctx context.Context, key string) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	vals, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}
	return vals, nil
}

// ListTail returns at most n elements from the end of the list at key, so
// log history is never pulled unbounded.
func (s *RedisStore) ListTail(ctx context.Context, key string, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	vals, err := s.client.LRange(ctx, key, int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s tail %d: %w", key, n, err)
	}
	return vals, nil
}

// Scan returns all keys matching a glob-style pattern. It uses SCAN rather
// than KEYS so a large keyspace cannot block the server.
func (s *RedisStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", pattern, err)
	}
	return keys, nil
}

// Publish sends payload on channel. Zero subscribers is not an error.
func (s *RedisStore) Publish(ctx context.Context, channel string, payload []byte) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// Ping verifies the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
