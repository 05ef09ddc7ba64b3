// Package pebble implements the db.KVDB interface on top of CockroachDB's Pebble,
// an embedded LSM key-value store with bytewise-ordered keys.
//
// Configuration is fixed at open time:
//   - No block compression on any level: sequence payloads are already one byte
//     per residue, so compression costs CPU for almost no size gain.
//   - Bloom filters (10 bits per key by default) on every level, since the
//     workload is dominated by point lookups of single accessions.
//   - A bounded number of open sstable handles (500 by default).
//
// Open Modes:
//
//	db.ReadOnly opens an existing database without write permission and fails
//	with ErrNotExist if the path is missing. Set and Delete are not advertised
//	as features in this mode. db.ReadWrite creates the database if necessary.
//	Pebble holds a LOCK file, so only one process can have a database open at a
//	time; within that process the handle may be shared by many goroutines.
//
// Iteration:
//
//	Iterate reads from an explicit pebble snapshot taken when iteration starts,
//	so it is snapshot-isolated from concurrent writers.
package pebble
