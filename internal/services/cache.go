package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is the key/value store used for short-lived lookups.
type Cache interface {
	// Ping tests the cache connection
	Ping(ctx context.Context) error

	// Set stores value under key; a zero expiration keeps it forever
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)

	// Close releases the connection
	Close() error
}

// getJSON decodes the cached value for key into v. It reports false on a miss.
func getJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, c Cache, key string, v any, expiration time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return c.Set(ctx, key, string(data), expiration)
}
