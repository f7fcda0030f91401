// Package kv is the durable key/value adapter used by the entity stores. It
// wraps the infra drivers behind one interface and serialises values as JSON.
package kv

import (
	"lifeplan/internal/kv/core"
)

type (
	// Driver identifies a concrete backend.
	Driver = core.Driver
	// Store is the key/value abstraction every driver implements.
	Store = core.Store
	// BatchSetter is implemented by drivers that write several keys atomically.
	BatchSetter = core.BatchSetter
)

const (
	DriverMemory     = core.DriverMemory
	DriverFilesystem = core.DriverFilesystem
	DriverSQLite     = core.DriverSQLite
	DriverPostgres   = core.DriverPostgres
	DriverBadger     = core.DriverBadger
	DriverS3         = core.DriverS3
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = core.ErrClosed
