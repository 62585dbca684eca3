// Package store provides the SQLite connection provider for article records.
//
// A Store owns one *sqlx.DB and hands out a single scoped connection per
// persistence operation via Conn. Callers release the connection when the
// operation ends; no handle is held across operations.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout: Wait for locks (5 seconds unless overridden)
//   - foreign_keys=ON: Enforce referential integrity
//
// The schema (article and blog_article tables) is embedded and applied on
// every Open. Its version is recorded in PRAGMA user_version.
package store
