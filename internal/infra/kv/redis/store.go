// Package redis stores state blobs in Redis under a namespaced prefix.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"countingsheep/internal/persistence"
)

var _ persistence.Store = (*Store)(nil)

// DefaultPrefix namespaces keys when none is configured.
const DefaultPrefix = "countingsheep:"

// Config holds connection parameters.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// client is the subset of the go-redis API the store needs.
type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Store keeps each key as a Redis string.
type Store struct {
	rdb    client
	prefix string
}

// New connects to the server in cfg and verifies it answers PING.
func New(ctx context.Context, cfg Config) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	s := newWithClient(rdb, cfg.Prefix)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return s, nil
}

func newWithClient(rdb client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// Driver returns the driver identifier.
func (s *Store) Driver() persistence.Driver { return persistence.DriverRedis }

// Read returns the value stored under key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return b, nil
}

// Write replaces the value under key with no expiry.
func (s *Store) Write(ctx context.Context, key string, data []byte) error {
	if err := s.rdb.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.rdb.Close() }
