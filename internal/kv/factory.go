package kv

import (
	"context"
	"fmt"
	"strings"

	"lifeplan/internal/infra/kv/badger"
	"lifeplan/internal/infra/kv/fs"
	"lifeplan/internal/infra/kv/memory"
	"lifeplan/internal/infra/kv/postgres"
	"lifeplan/internal/infra/kv/s3"
	"lifeplan/internal/infra/kv/sqlite"
)

// Logger receives backend log output. It matches the core service logger.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// S3Config selects the bucket used by the s3 driver.
type S3Config struct {
	Bucket    string
	Region    string
	Prefix    string
	Endpoint  string
	PathStyle bool
}

// Config selects and parameterises a driver.
type Config struct {
	Driver Driver
	// Path is the fs root, the sqlite file or the badger directory.
	Path string
	// DSN is the postgres connection string.
	DSN        string
	S3         S3Config
	InMemory   bool
	SyncWrites bool
	Logger     Logger
}

// Open constructs the store selected by cfg. The default driver is sqlite.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(string(cfg.Driver))))
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverMemory:
		return memory.New(), nil
	case DriverFilesystem:
		return fs.New(cfg.Path)
	case DriverSQLite:
		return sqlite.New(ctx, cfg.Path)
	case DriverPostgres:
		return postgres.New(ctx, cfg.DSN)
	case DriverBadger:
		bcfg := badger.Config{Path: cfg.Path, InMemory: cfg.InMemory, SyncWrites: cfg.SyncWrites}
		if cfg.Logger != nil {
			bcfg.Logger = cfg.Logger
		}
		return badger.New(bcfg)
	case DriverS3:
		return s3.New(ctx, s3.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Prefix:    cfg.S3.Prefix,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown kv driver %s", cfg.Driver)
	}
}
