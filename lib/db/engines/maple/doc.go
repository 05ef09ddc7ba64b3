// Package maple implements an in-memory key-value database that satisfies the
// db.KVDB interface. Nothing is persisted; the data lives as long as the
// database value.
//
// Key Components:
//
//   - Shards: The key space is partitioned across runtime.NumCPU() shards by
//     default. Each shard is an xsync.MapOf, so reads and writes to different
//     keys proceed without a global lock. A key is assigned to a shard by hashing
//     it with FNV-1a and a per-database seed, then shifting the hash right by 7 bits
//     to use the higher-quality bits.
//
//   - Ordered Iteration: Maps are unordered, so Iterate collects the entries of
//     every shard and sorts them bytewise before visiting them. Values are replaced,
//     never mutated, which makes the collected entries a consistent snapshot of
//     each shard.
//
//   - Read-only Mode: A database created with db.ReadOnly does not advertise
//     FeatureSet or FeatureDelete, and Set and Delete fail with ErrReadOnly.
//
// Suitable Use Cases:
//
//	Tests, dry runs of ingestion pipelines and benchmarks. For anything that has to
//	survive the process use the pebble engine.
package maple
