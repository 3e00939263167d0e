package cache

import (
	"context"
	"time"
)

// Cache is a small string key/value cache with per-entry expiry.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// nopCache never stores anything; every Get is a miss.
type nopCache struct{}

// NewNopCache returns a Cache used when no cache backend is configured.
func NewNopCache() Cache { return nopCache{} }

func (nopCache) Get(context.Context, string) (string, bool, error)        { return "", false, nil }
func (nopCache) Set(context.Context, string, string, time.Duration) error { return nil }
func (nopCache) Delete(context.Context, string) error                     { return nil }
func (nopCache) Close() error                                             { return nil }
