// Package kv selects a state Store implementation from configuration.
package kv

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"countingsheep/internal/config"
	"countingsheep/internal/infra/kv/badger"
	"countingsheep/internal/infra/kv/fs"
	"countingsheep/internal/infra/kv/memory"
	"countingsheep/internal/infra/kv/postgres"
	"countingsheep/internal/infra/kv/redis"
	"countingsheep/internal/infra/kv/s3"
	"countingsheep/internal/infra/kv/sqlite"
	"countingsheep/internal/persistence"
)

// Open builds the Store named by cfg.Driver. log may be nil.
func Open(ctx context.Context, cfg config.Storage, log *zap.Logger) (persistence.Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch persistence.Driver(cfg.Driver) {
	case persistence.DriverMemory:
		return memory.New(), nil
	case persistence.DriverFS:
		return fs.New(cfg.FS.Root, fs.WithLogger(log.Named("fs")))
	case persistence.DriverSQLite:
		return sqlite.New(ctx, cfg.SQLite.Path)
	case persistence.DriverPostgres:
		return postgres.New(ctx, cfg.Postgres.DSN)
	case persistence.DriverS3:
		return s3.New(ctx, s3.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		})
	case persistence.DriverBadger:
		return badger.New(badger.Config{
			Path:       cfg.Badger.Path,
			InMemory:   cfg.Badger.InMemory,
			SyncWrites: true,
			Logger:     log,
		})
	case persistence.DriverRedis:
		return redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
