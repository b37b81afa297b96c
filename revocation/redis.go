package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrBackendUnavailable is returned when the backing store cannot answer.
// Callers must treat it as a hard failure: an unanswerable revocation check
// never degrades to allow.
var ErrBackendUnavailable = errors.New("revocation: backend unavailable")

const defaultKeyPrefix = "bg:rvk:"

// RedisSet is a [Set] backed by Redis, the shared-store option for
// multi-instance deployments. Entries are plain SET-with-TTL keys, so Redis
// expires them once the revoked token itself is past expiry.
// Read-your-writes consistency across instances is the deployment's
// responsibility (single primary or appropriately configured cluster).
type RedisSet struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisSet constructs a RedisSet with the given key prefix; an empty
// prefix selects the default.
func NewRedisSet(client redis.UniversalClient, prefix string) *RedisSet {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisSet{
		client: client,
		prefix: prefix,
	}
}

// Add implements [Set].
func (s *RedisSet) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.prefix+jti, "1", ttl).Err(); err != nil {
		return errors.Join(ErrBackendUnavailable, err)
	}
	return nil
}

// Contains implements [Set].
func (s *RedisSet) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+jti).Result()
	if err != nil {
		return false, errors.Join(ErrBackendUnavailable, err)
	}
	return n > 0, nil
}
