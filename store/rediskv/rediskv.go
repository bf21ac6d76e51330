// Package rediskv backs deliver.Store with Redis, the way
// absmach-magistrala's clients/cache package wraps a *redis.Client behind a
// narrow domain interface.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store adapts a *redis.Client to the Get/Set/Delete shape the core's
// multipart reassembly depends on. TTL governs how long an incomplete
// multipart buffer survives before Redis evicts it; the core never sets one
// itself.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an existing Redis client. A zero ttl disables expiry.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Get returns the stored value, or ok=false if the key is absent.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("rediskv: get %s: %w", key, err)
	}
	return v, true, nil
}

// Set writes value under key with the configured TTL.
func (s *Store) Set(ctx context.Context, key string, value string) error {
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("rediskv: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("rediskv: delete %s: %w", key, err)
	}
	return nil
}
