package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRevocationPrefix = "taskboard:revoked:"

// RedisRevocationStore keeps revoked token ids in redis keys that expire
// together with the token, so no pruning job is needed.
type RedisRevocationStore struct {
	client redis.UniversalClient
	prefix string
	clock  func() time.Time
}

// NewRedisRevocationStore creates a store using client. An empty prefix uses the default.
func NewRedisRevocationStore(client redis.UniversalClient, prefix string) *RedisRevocationStore {
	if prefix == "" {
		prefix = defaultRevocationPrefix
	}
	return &RedisRevocationStore{
		client: client,
		prefix: prefix,
		clock:  time.Now,
	}
}

// Revoke records jti until expiresAt
func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Duration(0)
	if !expiresAt.IsZero() {
		ttl = expiresAt.Sub(s.clock())
		if ttl <= 0 {
			return nil
		}
	}
	return s.client.Set(ctx, s.prefix+jti, 1, ttl).Err()
}

// IsRevoked reports whether jti was revoked
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
