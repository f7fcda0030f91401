// Package core defines the key/value abstractions shared by the kv facade and
// the infra drivers behind it.
package core

import (
	"context"
	"errors"
)

// Driver identifies a concrete key/value backend implementation.
type Driver string

const (
	// DriverMemory keeps values in process memory (tests).
	DriverMemory Driver = "memory"
	// DriverFilesystem writes one JSON file per key.
	DriverFilesystem Driver = "fs"
	// DriverSQLite stores keys in a single SQLite table.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres stores keys in a single Postgres table.
	DriverPostgres Driver = "postgres"
	// DriverBadger stores keys in an embedded BadgerDB.
	DriverBadger Driver = "badger"
	// DriverS3 stores one object per key in an S3 compatible bucket.
	DriverS3 Driver = "s3"
)

// Store is a durable key/value store holding opaque byte values.
type Store interface {
	// Get returns the value for key. A missing key returns (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// RemoveMany deletes the given keys. Missing keys are ignored.
	RemoveMany(ctx context.Context, keys ...string) error
	// Driver returns the configured backend.
	Driver() Driver
	// Close releases backend resources.
	Close() error
}

// BatchSetter is implemented by stores that can write several keys atomically.
type BatchSetter interface {
	SetMany(ctx context.Context, values map[string][]byte) error
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv: store closed")
