package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"pokevault/internal/auth/metrics"
)

// Redis key prefix for revoked tokens
const revokedTokenKeyPrefix = "trl:jti:"

// RedisTRL shares revocation state across instances. Entries expire with the
// token they revoke.
type RedisTRL struct {
	client  redis.UniversalClient
	metrics *metrics.Metrics
}

type RedisOption func(*RedisTRL)

// WithMetrics times IsRevoked lookups.
func WithMetrics(m *metrics.Metrics) RedisOption {
	return func(t *RedisTRL) {
		t.metrics = m
	}
}

func NewRedisTRL(client redis.UniversalClient, opts ...RedisOption) *RedisTRL {
	t := &RedisTRL{client: client}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RevokeToken adds a token to the revocation list with TTL.
func (t *RedisTRL) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	return t.client.Set(ctx, revokedTokenKeyPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether jti is on the list. Expired entries are gone.
func (t *RedisTRL) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if t.metrics != nil {
		defer t.metrics.ObserveRevocationCheck(time.Now())
	}

	if jti == "" {
		return false, nil
	}
	err := t.client.Get(ctx, revokedTokenKeyPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
