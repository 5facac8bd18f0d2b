// Package redis implements the KVStore port on Redis.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ericfisherdev/streetpass/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.KVStore = (*KVStore)(nil)

// KVStore stores each slot as a plain string value under "<prefix>:<key>".
// Values never expire.
type KVStore struct {
	client goredis.UniversalClient
	prefix string
}

// NewKVStore creates a KVStore over an existing client. An empty prefix
// stores keys unprefixed.
func NewKVStore(client goredis.UniversalClient, prefix string) *KVStore {
	return &KVStore{client: client, prefix: prefix}
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr, prefix string) (*KVStore, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewKVStore(client, prefix), nil
}

func (s *KVStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Get returns the raw value for key, or (nil, nil) if the key is absent.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get redis %q: %w", key, err)
	}
	return val, nil
}

// Set stores or replaces the raw value for key.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("set redis %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *KVStore) Close() error {
	return s.client.Close()
}
