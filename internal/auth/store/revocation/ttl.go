package revocation

import (
	"context"
	"fmt"
	"time"

	"pokevault/pkg/platform/sentinel"
)

// Clock returns the current time.
type Clock func() time.Time

// List is the token revocation list contract shared by every backend.
type List interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

// Checker adapts a List to the auth middleware's revocation port.
type Checker struct {
	List List
}

func (c Checker) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return c.List.IsRevoked(ctx, jti)
}
