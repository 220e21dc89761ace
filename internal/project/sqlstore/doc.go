// Package sqlstore persists projects through database/sql. SQLite (via
// modernc.org/sqlite) is the default durable backend; PostgreSQL (via
// lib/pq) is available for shared deployments.
//
// Each project row carries indexed lifecycle columns plus the full record
// as a JSON payload. Updates read and rewrite one row inside a transaction,
// so concurrent updates to different projects never contend on a shared
// lock beyond what the database itself imposes.
package sqlstore
