// Package kv is the durable key-value store that backs the client session.
//
// SQLiteRepository implements Repository on any dbx.DBTX, so the same code
// runs against the database directly or inside a transaction. Store wraps a
// *sql.DB and adds Atomic, which groups several writes so no intermediate
// state is visible to other readers.
//
// The backing table is created by the embedded migrations in
// internal/client/migrations:
//
//	CREATE TABLE kv (key TEXT PRIMARY KEY, value BLOB NOT NULL);
package kv
