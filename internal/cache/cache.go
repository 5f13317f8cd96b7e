// internal/cache/cache.go
package cache

import (
	"context"
	"time"
)

// Repository is the result cache contract. A miss is ("", false, nil);
// a non-nil error means the backend itself failed, so callers can tell
// "not cached" from "cache down" and degrade to recomputation.
type Repository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
