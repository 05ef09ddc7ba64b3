// Package db provides a standardized interface for ordered key-value database
// implementations. It defines a KVDB interface that allows for consistent
// interaction with various storage backends while abstracting implementation
// details.
//
// The package focuses on:
//   - A unified interface for byte-keyed operations (Set, Get, Has, Delete)
//   - Ordered, point-in-time iteration over all entries
//   - Feature discovery through capability flags
//   - Open modes (read-only and read-write)
//
// Key Components:
//
//   - KVDB Interface: The core interface that all database implementations must satisfy.
//     Keys are compared bytewise and Iterate visits them in ascending order.
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     advertise through the SupportsFeature method. A handle opened read-only does
//     not advertise FeatureSet or FeatureDelete, so callers can reject writes before
//     they reach the engine.
//
//   - Database Information: The DatabaseInfo structure reports the implementation,
//     open mode, supported features and an estimated on-disk or in-memory size.
//
// Related Packages:
//
// The engines/pebble package (github.com/ValentinKolb/seqbank/lib/db/engines/pebble)
// stores data on disk using CockroachDB's Pebble LSM engine. It is the engine used
// for real seqbanks.
//
// The engines/maple package (github.com/ValentinKolb/seqbank/lib/db/engines/maple)
// keeps everything in sharded in-memory maps. It is used for tests and dry runs.
//
// The testing package (github.com/ValentinKolb/seqbank/lib/db/testing) provides
// standardized tests and benchmarks that every implementation must pass.
package db
