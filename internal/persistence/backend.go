// Package persistence stores the serialized game state under versioned keys
// and upgrades older blobs to the current schema on load.
package persistence

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Backend when no value is stored under a key.
var ErrNotFound = errors.New("persistence: key not found")

// Backend is a key/value store holding whole-state blobs. Write replaces any
// existing value.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}

// Driver identifies a concrete Store implementation.
type Driver string

// Known drivers.
const (
	DriverMemory   Driver = "memory"
	DriverFS       Driver = "fs"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverS3       Driver = "s3"
	DriverBadger   Driver = "badger"
	DriverRedis    Driver = "redis"
)

// Store is a Backend that owns resources and reports its driver.
type Store interface {
	Backend
	Driver() Driver
	Close() error
}
