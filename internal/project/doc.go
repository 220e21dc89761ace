// Package project defines the talking-video Project record, its closed
// status and step enumerations, partial updates, and the Store contract
// shared by every persistence backend.
//
// The in-memory store in this package is the reference implementation of
// the contract; durable backends live in the sqlstore and redisstore
// subpackages.
package project
