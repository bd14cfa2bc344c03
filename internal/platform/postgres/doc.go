// Package postgres provides PostgreSQL implementations of the store
// interfaces. Every store takes a store.DBTX so the same implementation
// runs against a plain connection or inside a transaction, and maps driver
// errors to the sentinel errors the store package defines.
package postgres
