// Package store is the durable reducer sink: a SQLite-backed counterpart
// of the in-memory feed store.
//
// It exposes three idempotent write operations: upsert-cast, delete-cast,
// and update-cursor, each safe to repeat with the same arguments. Every
// write classifies the stored row by event ID inside its transaction, so a
// re-harvested page applied twice changes nothing on the second pass.
//
// The database uses WAL mode with a single writer connection; the poller
// is the only writer and the casts CLI command is a reader.
package store
