// Package cache defines the port interface for in-process caching.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching. Implementations are
// free to evict entries before their TTL under memory pressure; callers
// must treat a miss as "recompute", never as an error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
