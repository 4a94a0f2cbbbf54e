package tokens

import (
	"context"
	"fmt"
	"time"

	"bookly/pkg/cache"
)

// RevocationStore records token ids that must no longer be accepted.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type cacheRevocationStore struct {
	cache cache.Service
}

// NewRevocationStore keeps the blocklist in the shared Redis cache.
func NewRevocationStore(c cache.Service) RevocationStore {
	return &cacheRevocationStore{cache: c}
}

func blocklistKey(jti string) string {
	return cache.Key("blocklist", jti)
}

func (s *cacheRevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return fmt.Errorf("revoke: empty jti")
	}
	if ttl <= 0 {
		return fmt.Errorf("revoke %s: ttl must be positive, got %s", jti, ttl)
	}
	if err := s.cache.Set(ctx, blocklistKey(jti), "", ttl); err != nil {
		return fmt.Errorf("revoke %s: %w", jti, err)
	}
	return nil
}

func (s *cacheRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ok, err := s.cache.Exists(ctx, blocklistKey(jti))
	if err != nil {
		return false, fmt.Errorf("check revocation of %s: %w", jti, err)
	}
	return ok, nil
}

// TTLFor returns how long a revocation record for claims must live: the
// token's remaining lifetime or the fixed window, whichever is longer.
func TTLFor(claims *Claims, window time.Duration, now time.Time) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return window
	}
	remaining := claims.ExpiresAt.Time.Sub(now)
	if remaining > window {
		// round up so the record outlives the token's last valid second
		return remaining.Truncate(time.Second) + time.Second
	}
	return window
}
