// Package store defines the persistence interfaces consumed by the engine
// and shared helpers (sentinel errors, the DBTX abstraction, transaction
// handling). Concrete implementations live in internal/platform/postgres.
package store
