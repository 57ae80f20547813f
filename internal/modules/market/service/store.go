package service

import (
	"context"
	"time"
)

// Store is a byte-level key/value store with per-key expiry. Each key is replaced
// atomically; there are no cross-key operations.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
