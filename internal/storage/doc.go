// Package storage provides the durable reminder store.
//
// Two drivers are available:
//   - "sqlite": a SQLite database file (modernc.org/sqlite, no cgo)
//   - "memory": an in-process map, used by tests and throwaway setups
//
// The Store is a shared mutable resource with last-write-wins semantics on
// the Reminder record; there is no optimistic locking. Callers that need
// stronger guarantees must add per-record versioning on top.
package storage
