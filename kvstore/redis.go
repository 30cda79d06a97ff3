package kvstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// defaultCallTimeout bounds every store round-trip so an unreachable
// Redis degrades into a fail-secure decision instead of a hung request.
const defaultCallTimeout = 2 * time.Second

// RedisStore implements Store over a Redis connection.
type RedisStore struct {
	client      *redis.Client
	callTimeout time.Duration
}

type RedisOption func(*RedisStore)

// WithCallTimeout overrides the per-call timeout (primarily for tests).
func WithCallTimeout(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.callTimeout = d
	}
}

func NewRedisStore(addr, password string, options ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "[RedisStore.Get]")
	}
	return value, true, nil
}

func (s *RedisStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Wrap(err, "[RedisStore.SetWithTTL]")
	}
	return nil
}

func (s *RedisStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	// INCR and EXPIRE NX run as one transaction so a key recreated
	// after expiry always gets a fresh TTL.
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, errors.Wrap(err, "[RedisStore.IncrWithTTL]")
	}
	return incr.Val(), nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, errors.Wrap(err, "[RedisStore.Exists]")
	}
	return n > 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
